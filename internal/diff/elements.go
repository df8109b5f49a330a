package diff

import (
	"fmt"

	"github.com/conduit-lang/schemadiff/internal/model"
)

// Op identifies the variant of an Element
type Op int

const (
	OpCreateModule Op = iota
	OpCreateType
	OpCreateStructuredTypePart
	OpCreateClassifier
	OpCreateSingleton
	OpCreateRole
	OpDelete
	OpDeleteRole
	OpAddGeneralization
	OpRemoveGeneralization
	OpMoveGeneralization
	OpMoveClassifier
	OpMoveStructuredTypePart
	OpAddAnnotations
	OpRemoveAnnotation
	OpMakeAbstract
	OpMakeConcrete
	OpUpdateMandatory
)

var opNames = [...]string{
	OpCreateModule:             "create_module",
	OpCreateType:               "create_type",
	OpCreateStructuredTypePart: "create_structured_type_part",
	OpCreateClassifier:         "create_classifier",
	OpCreateSingleton:          "create_singleton",
	OpCreateRole:               "create_role",
	OpDelete:                   "delete",
	OpDeleteRole:               "delete_role",
	OpAddGeneralization:        "add_generalization",
	OpRemoveGeneralization:     "remove_generalization",
	OpMoveGeneralization:       "move_generalization",
	OpMoveClassifier:           "move_classifier",
	OpMoveStructuredTypePart:   "move_structured_type_part",
	OpAddAnnotations:           "add_annotations",
	OpRemoveAnnotation:         "remove_annotation",
	OpMakeAbstract:             "make_abstract",
	OpMakeConcrete:             "make_concrete",
	OpUpdateMandatory:          "update_mandatory",
}

// String returns the change-log tag of the operation
func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}

// ParseOp converts a change-log tag back to an Op
func ParseOp(s string) (Op, error) {
	for i, name := range opNames {
		if name == s {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("unknown operation: %s", s)
}

// Subject tells what a generic Delete removes
type Subject int

const (
	SubjectModule Subject = iota
	SubjectType
	SubjectPart
	SubjectClassifier
	SubjectSingleton
)

// String returns the string representation of the subject
func (s Subject) String() string {
	switch s {
	case SubjectModule:
		return "module"
	case SubjectType:
		return "type"
	case SubjectPart:
		return "part"
	case SubjectClassifier:
		return "classifier"
	case SubjectSingleton:
		return "singleton"
	default:
		return "unknown"
	}
}

// ParseSubject converts a string to a Subject
func ParseSubject(s string) (Subject, error) {
	switch s {
	case "module":
		return SubjectModule, nil
	case "type":
		return SubjectType, nil
	case "part":
		return SubjectPart, nil
	case "classifier":
		return SubjectClassifier, nil
	case "singleton":
		return SubjectSingleton, nil
	default:
		return 0, fmt.Errorf("unknown delete subject: %s", s)
	}
}

// Element is one operation of a patch. Elements are applied in emission order; each
// carries everything needed to address its target without the snapshots it came from.
// Empty Before values mean "append at the end".
type Element interface {
	Op() Op
	Target() model.QName
	isElement()
}

// CreateModule creates a module with its full definition
type CreateModule struct {
	Module *model.Module
}

// CreateType creates a type in an existing module
type CreateType struct {
	Type model.Type
}

// CreateStructuredTypePart inserts a part into its owner class
type CreateStructuredTypePart struct {
	Part   model.Part
	Before string
}

// CreateClassifier inserts a classifier into an enumeration
type CreateClassifier struct {
	Enumeration model.TypeRef
	Classifier  model.Classifier
	Before      string
}

// CreateSingleton binds a singleton name in a module
type CreateSingleton struct {
	Module    string
	Singleton model.Singleton
}

// CreateRole adds a role definition to a module
type CreateRole struct {
	Module string
	Role   model.Role
}

// Delete removes the element with the given qualified name
type Delete struct {
	Name    model.QName
	Subject Subject
}

// DeleteRole removes a role definition from a module
type DeleteRole struct {
	Module string
	Name   string
}

// AddGeneralization inserts a supertype into a class's generalization list
type AddGeneralization struct {
	Class  model.TypeRef
	Super  model.TypeRef
	Before model.TypeRef
}

// RemoveGeneralization removes a supertype from a class's generalization list
type RemoveGeneralization struct {
	Class model.TypeRef
	Super model.TypeRef
}

// MoveGeneralization repositions a supertype
type MoveGeneralization struct {
	Class  model.TypeRef
	Super  model.TypeRef
	Before model.TypeRef
}

// MoveClassifier repositions a classifier
type MoveClassifier struct {
	Enumeration model.TypeRef
	Name        string
	Before      string
}

// MoveStructuredTypePart repositions a part within its owner
type MoveStructuredTypePart struct {
	Owner  model.TypeRef
	Name   string
	Before string
}

// AddAnnotations attaches a batch of annotations to one element
type AddAnnotations struct {
	Element     model.QName
	Annotations []model.Annotation
}

// RemoveAnnotation detaches the annotation of one kind from an element
type RemoveAnnotation struct {
	Element model.QName
	Kind    string
}

// MakeAbstract marks a class abstract
type MakeAbstract struct {
	Class model.TypeRef
}

// MakeConcrete marks a class concrete
type MakeConcrete struct {
	Class model.TypeRef
}

// UpdateMandatory sets the mandatory flag of a part
type UpdateMandatory struct {
	Part      model.PartRef
	Mandatory bool
}

func (CreateModule) Op() Op             { return OpCreateModule }
func (CreateType) Op() Op               { return OpCreateType }
func (CreateStructuredTypePart) Op() Op { return OpCreateStructuredTypePart }
func (CreateClassifier) Op() Op         { return OpCreateClassifier }
func (CreateSingleton) Op() Op          { return OpCreateSingleton }
func (CreateRole) Op() Op               { return OpCreateRole }
func (Delete) Op() Op                   { return OpDelete }
func (DeleteRole) Op() Op               { return OpDeleteRole }
func (AddGeneralization) Op() Op        { return OpAddGeneralization }
func (RemoveGeneralization) Op() Op     { return OpRemoveGeneralization }
func (MoveGeneralization) Op() Op       { return OpMoveGeneralization }
func (MoveClassifier) Op() Op           { return OpMoveClassifier }
func (MoveStructuredTypePart) Op() Op   { return OpMoveStructuredTypePart }
func (AddAnnotations) Op() Op           { return OpAddAnnotations }
func (RemoveAnnotation) Op() Op         { return OpRemoveAnnotation }
func (MakeAbstract) Op() Op             { return OpMakeAbstract }
func (MakeConcrete) Op() Op             { return OpMakeConcrete }
func (UpdateMandatory) Op() Op          { return OpUpdateMandatory }

func (e CreateModule) Target() model.QName { return model.QName{Module: e.Module.Name} }
func (e CreateType) Target() model.QName   { return e.Type.Ref().QName() }
func (e CreateStructuredTypePart) Target() model.QName {
	return e.Part.Ref().QName()
}
func (e CreateClassifier) Target() model.QName {
	return e.Enumeration.QName().Child(e.Classifier.Name)
}
func (e CreateSingleton) Target() model.QName {
	return model.QName{Module: e.Module, Type: e.Singleton.Name}
}
func (e CreateRole) Target() model.QName           { return model.QName{Module: e.Module, Type: e.Role.Name} }
func (e Delete) Target() model.QName               { return e.Name }
func (e DeleteRole) Target() model.QName           { return model.QName{Module: e.Module, Type: e.Name} }
func (e AddGeneralization) Target() model.QName    { return e.Class.QName() }
func (e RemoveGeneralization) Target() model.QName { return e.Class.QName() }
func (e MoveGeneralization) Target() model.QName   { return e.Class.QName() }
func (e MoveClassifier) Target() model.QName {
	return e.Enumeration.QName().Child(e.Name)
}
func (e MoveStructuredTypePart) Target() model.QName { return e.Owner.QName().Child(e.Name) }
func (e AddAnnotations) Target() model.QName         { return e.Element }
func (e RemoveAnnotation) Target() model.QName       { return e.Element }
func (e MakeAbstract) Target() model.QName           { return e.Class.QName() }
func (e MakeConcrete) Target() model.QName           { return e.Class.QName() }
func (e UpdateMandatory) Target() model.QName        { return e.Part.QName() }

func (CreateModule) isElement()             {}
func (CreateType) isElement()               {}
func (CreateStructuredTypePart) isElement() {}
func (CreateClassifier) isElement()         {}
func (CreateSingleton) isElement()          {}
func (CreateRole) isElement()               {}
func (Delete) isElement()                   {}
func (DeleteRole) isElement()               {}
func (AddGeneralization) isElement()        {}
func (RemoveGeneralization) isElement()     {}
func (MoveGeneralization) isElement()       {}
func (MoveClassifier) isElement()           {}
func (MoveStructuredTypePart) isElement()   {}
func (AddAnnotations) isElement()           {}
func (RemoveAnnotation) isElement()         {}
func (MakeAbstract) isElement()             {}
func (MakeConcrete) isElement()             {}
func (UpdateMandatory) isElement()          {}
