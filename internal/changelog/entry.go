// Package changelog is the serialized form of a patch. Every diff element becomes one
// self-contained Entry that embeds the definitions it creates, so a change log can be
// stored, shipped and replayed without the snapshots it was computed from.
package changelog

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/schemadiff/internal/diff"
	"github.com/conduit-lang/schemadiff/internal/model"
	"github.com/conduit-lang/schemadiff/internal/modeldoc"
)

// Entry is one serialized patch element. Op selects which optional fields apply.
type Entry struct {
	Op          string                `json:"op" yaml:"op" msgpack:"op"`
	Target      model.QName           `json:"target" yaml:"target" msgpack:"target"`
	Subject     string                `json:"subject,omitempty" yaml:"subject,omitempty" msgpack:"subject,omitempty"`
	Before      string                `json:"before,omitempty" yaml:"before,omitempty" msgpack:"before,omitempty"`
	Super       string                `json:"super,omitempty" yaml:"super,omitempty" msgpack:"super,omitempty"`
	Mandatory   *bool                 `json:"mandatory,omitempty" yaml:"mandatory,omitempty" msgpack:"mandatory,omitempty"`
	Kind        string                `json:"kind,omitempty" yaml:"kind,omitempty" msgpack:"kind,omitempty"`
	Annotations []modeldoc.Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty" msgpack:"annotations,omitempty"`

	Module     *modeldoc.Module     `json:"module,omitempty" yaml:"module,omitempty" msgpack:"module,omitempty"`
	Type       *modeldoc.Type       `json:"type,omitempty" yaml:"type,omitempty" msgpack:"type,omitempty"`
	Part       *modeldoc.Part       `json:"part,omitempty" yaml:"part,omitempty" msgpack:"part,omitempty"`
	Classifier *modeldoc.Classifier `json:"classifier,omitempty" yaml:"classifier,omitempty" msgpack:"classifier,omitempty"`
	Singleton  *modeldoc.Singleton  `json:"singleton,omitempty" yaml:"singleton,omitempty" msgpack:"singleton,omitempty"`
	Role       *modeldoc.Role       `json:"role,omitempty" yaml:"role,omitempty" msgpack:"role,omitempty"`
}

// FromElements serializes a patch
func FromElements(elems []diff.Element) []Entry {
	out := make([]Entry, 0, len(elems))
	for _, e := range elems {
		out = append(out, FromElement(e))
	}
	return out
}

// FromElement serializes one patch element
func FromElement(e diff.Element) Entry {
	out := Entry{Op: e.Op().String(), Target: e.Target()}

	switch e := e.(type) {
	case diff.CreateModule:
		mod := modeldoc.FromModule(e.Module)
		out.Module = &mod
	case diff.CreateType:
		t := modeldoc.FromType(e.Type)
		out.Type = &t
	case diff.CreateStructuredTypePart:
		p := modeldoc.FromPart(e.Part)
		out.Part = &p
		out.Before = e.Before
	case diff.CreateClassifier:
		c := modeldoc.FromClassifier(e.Classifier)
		out.Classifier = &c
		out.Before = e.Before
	case diff.CreateSingleton:
		out.Singleton = &modeldoc.Singleton{Name: e.Singleton.Name, Type: e.Singleton.Type.String()}
	case diff.CreateRole:
		role := modeldoc.Role{Name: e.Role.Name, Config: modeldoc.NormalizeValues(e.Role.Config)}
		out.Role = &role
	case diff.Delete:
		out.Subject = e.Subject.String()
	case diff.AddGeneralization:
		out.Super = e.Super.String()
		out.Before = refString(e.Before)
	case diff.RemoveGeneralization:
		out.Super = e.Super.String()
	case diff.MoveGeneralization:
		out.Super = e.Super.String()
		out.Before = refString(e.Before)
	case diff.MoveClassifier:
		out.Before = e.Before
	case diff.MoveStructuredTypePart:
		out.Before = e.Before
	case diff.AddAnnotations:
		for _, a := range e.Annotations {
			out.Annotations = append(out.Annotations, modeldoc.FromAnnotation(a))
		}
	case diff.RemoveAnnotation:
		out.Kind = e.Kind
	case diff.UpdateMandatory:
		mandatory := e.Mandatory
		out.Mandatory = &mandatory
	}

	return out
}

// Elements turns entries back into patch elements
func Elements(entries []Entry) ([]diff.Element, error) {
	out := make([]diff.Element, 0, len(entries))
	for i, entry := range entries {
		e, err := entry.Element()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Element turns one entry back into a patch element
func (e Entry) Element() (diff.Element, error) {
	op, err := diff.ParseOp(e.Op)
	if err != nil {
		return nil, err
	}
	typ := e.Target.TypeRef()

	switch op {
	case diff.OpCreateModule:
		if e.Module == nil {
			return nil, e.missing("module")
		}
		mod, err := modeldoc.ToModule(*e.Module)
		if err != nil {
			return nil, err
		}
		return diff.CreateModule{Module: mod}, nil

	case diff.OpCreateType:
		if e.Type == nil {
			return nil, e.missing("type")
		}
		t, err := modeldoc.ToType(e.Target.Module, *e.Type)
		if err != nil {
			return nil, err
		}
		return diff.CreateType{Type: t}, nil

	case diff.OpCreateStructuredTypePart:
		if e.Part == nil {
			return nil, e.missing("part")
		}
		p, err := modeldoc.ToPart(typ, *e.Part)
		if err != nil {
			return nil, err
		}
		return diff.CreateStructuredTypePart{Part: p, Before: e.Before}, nil

	case diff.OpCreateClassifier:
		if e.Classifier == nil {
			return nil, e.missing("classifier")
		}
		c, err := modeldoc.ToClassifier(*e.Classifier)
		if err != nil {
			return nil, err
		}
		return diff.CreateClassifier{Enumeration: typ, Classifier: c, Before: e.Before}, nil

	case diff.OpCreateSingleton:
		if e.Singleton == nil {
			return nil, e.missing("singleton")
		}
		ref, err := model.ParseTypeRef(e.Singleton.Type)
		if err != nil {
			return nil, err
		}
		return diff.CreateSingleton{
			Module:    e.Target.Module,
			Singleton: model.Singleton{Name: e.Singleton.Name, Type: ref},
		}, nil

	case diff.OpCreateRole:
		if e.Role == nil {
			return nil, e.missing("role")
		}
		role := model.Role{Name: e.Role.Name, Config: modeldoc.NormalizeValues(e.Role.Config)}
		return diff.CreateRole{Module: e.Target.Module, Role: role}, nil

	case diff.OpDelete:
		subject, err := diff.ParseSubject(e.Subject)
		if err != nil {
			return nil, err
		}
		return diff.Delete{Name: e.Target, Subject: subject}, nil

	case diff.OpDeleteRole:
		return diff.DeleteRole{Module: e.Target.Module, Name: e.Target.Type}, nil

	case diff.OpAddGeneralization, diff.OpRemoveGeneralization, diff.OpMoveGeneralization:
		super, err := model.ParseTypeRef(e.Super)
		if err != nil {
			return nil, err
		}
		var before model.TypeRef
		if e.Before != "" {
			if before, err = model.ParseTypeRef(e.Before); err != nil {
				return nil, err
			}
		}
		switch op {
		case diff.OpAddGeneralization:
			return diff.AddGeneralization{Class: typ, Super: super, Before: before}, nil
		case diff.OpRemoveGeneralization:
			return diff.RemoveGeneralization{Class: typ, Super: super}, nil
		default:
			return diff.MoveGeneralization{Class: typ, Super: super, Before: before}, nil
		}

	case diff.OpMoveClassifier:
		return diff.MoveClassifier{Enumeration: typ, Name: e.Target.Member, Before: e.Before}, nil

	case diff.OpMoveStructuredTypePart:
		return diff.MoveStructuredTypePart{Owner: typ, Name: e.Target.Member, Before: e.Before}, nil

	case diff.OpAddAnnotations:
		annotations := make([]model.Annotation, 0, len(e.Annotations))
		for _, a := range e.Annotations {
			annotations = append(annotations, modeldoc.ToAnnotation(a))
		}
		return diff.AddAnnotations{Element: e.Target, Annotations: annotations}, nil

	case diff.OpRemoveAnnotation:
		return diff.RemoveAnnotation{Element: e.Target, Kind: e.Kind}, nil

	case diff.OpMakeAbstract:
		return diff.MakeAbstract{Class: typ}, nil

	case diff.OpMakeConcrete:
		return diff.MakeConcrete{Class: typ}, nil

	case diff.OpUpdateMandatory:
		if e.Mandatory == nil {
			return nil, e.missing("mandatory flag")
		}
		return diff.UpdateMandatory{
			Part:      model.PartRef{Owner: typ, Name: e.Target.Member},
			Mandatory: *e.Mandatory,
		}, nil
	}

	return nil, fmt.Errorf("unsupported operation: %s", e.Op)
}

// Destructive reports whether replaying the entry removes something
func (e Entry) Destructive() bool {
	switch e.Op {
	case diff.OpDelete.String(), diff.OpDeleteRole.String(),
		diff.OpRemoveGeneralization.String(), diff.OpRemoveAnnotation.String():
		return true
	}
	return false
}

func (e Entry) missing(what string) error {
	return fmt.Errorf("%s %s: missing %s definition", e.Op, e.Target, what)
}

// Describe renders the entry as one human-readable line
func (e Entry) Describe() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(" ")
	b.WriteString(e.Target.String())

	switch {
	case e.Subject != "":
		fmt.Fprintf(&b, " (%s)", e.Subject)
	case e.Super != "":
		fmt.Fprintf(&b, " super %s", e.Super)
	case e.Kind != "":
		fmt.Fprintf(&b, " %s", e.Kind)
	case e.Mandatory != nil:
		fmt.Fprintf(&b, " = %t", *e.Mandatory)
	case len(e.Annotations) > 0:
		kinds := make([]string, len(e.Annotations))
		for i, a := range e.Annotations {
			kinds[i] = a.Kind
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(kinds, ", "))
	case e.Part != nil:
		fmt.Fprintf(&b, ": %s %s", e.Part.Kind, e.Part.Target)
	case e.Type != nil:
		fmt.Fprintf(&b, ": %s", e.Type.Kind)
	case e.Singleton != nil:
		fmt.Fprintf(&b, ": %s", e.Singleton.Type)
	}

	if e.Before != "" {
		fmt.Fprintf(&b, " before %s", e.Before)
	}
	return b.String()
}

func refString(ref model.TypeRef) string {
	if ref.IsZero() {
		return ""
	}
	return ref.String()
}
