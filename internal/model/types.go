// Package model defines the read-only snapshot of a structured type model: modules
// holding classes, enumerations, primitives and associations, their typed members,
// generalizations and annotations.
//
// All cross references (owner, target type, inverse reference, supertypes) are plain
// values addressed by qualified name and resolved through the owning Model, so two
// snapshots never share mutable state.
package model

import (
	"fmt"
	"strings"
)

// TypeRef addresses a type by module and type name
type TypeRef struct {
	Module string
	Name   string
}

// String returns the dotted form "module.Type"
func (r TypeRef) String() string {
	if r.Module == "" {
		return r.Name
	}
	return r.Module + "." + r.Name
}

// IsZero reports whether the reference is unset
func (r TypeRef) IsZero() bool {
	return r.Module == "" && r.Name == ""
}

// QName returns the qualified name of the referenced type
func (r TypeRef) QName() QName {
	return QName{Module: r.Module, Type: r.Name}
}

// ParseTypeRef parses "module.Type". The module part may itself contain dots.
func ParseTypeRef(s string) (TypeRef, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return TypeRef{}, fmt.Errorf("invalid type reference %q: expected module.Type", s)
	}
	return TypeRef{Module: s[:i], Name: s[i+1:]}, nil
}

// PartRef addresses a member of a type
type PartRef struct {
	Owner TypeRef
	Name  string
}

// String returns the dotted form "module.Type.part"
func (r PartRef) String() string {
	return r.Owner.String() + "." + r.Name
}

// QName returns the qualified name of the referenced part
func (r PartRef) QName() QName {
	return QName{Module: r.Owner.Module, Type: r.Owner.Name, Member: r.Name}
}

// ParsePartRef parses "module.Type.part"
func ParsePartRef(s string) (PartRef, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return PartRef{}, fmt.Errorf("invalid part reference %q: expected module.Type.part", s)
	}
	owner, err := ParseTypeRef(s[:i])
	if err != nil {
		return PartRef{}, fmt.Errorf("invalid part reference %q: %w", s, err)
	}
	return PartRef{Owner: owner, Name: s[i+1:]}, nil
}

// QName is the address of any model element. Module-level elements leave Type empty,
// type-level elements leave Member empty.
type QName struct {
	Module string `json:"module" yaml:"module" msgpack:"module"`
	Type   string `json:"type,omitempty" yaml:"type,omitempty" msgpack:"type,omitempty"`
	Member string `json:"member,omitempty" yaml:"member,omitempty" msgpack:"member,omitempty"`
}

// String joins the non-empty segments with dots
func (q QName) String() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{q.Module, q.Type, q.Member} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ".")
}

// TypeRef returns the type portion of the name
func (q QName) TypeRef() TypeRef {
	return TypeRef{Module: q.Module, Name: q.Type}
}

// Child returns the qualified name of a member of the type q names
func (q QName) Child(member string) QName {
	return QName{Module: q.Module, Type: q.Type, Member: member}
}

// Kind identifies the variant of a Type
type Kind int

const (
	KindClass Kind = iota
	KindEnumeration
	KindPrimitive
	KindAssociation
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindEnumeration:
		return "enumeration"
	case KindPrimitive:
		return "primitive"
	case KindAssociation:
		return "association"
	default:
		return "unknown"
	}
}

// ParseKind converts a string to a Kind
func ParseKind(s string) (Kind, error) {
	switch s {
	case "class":
		return KindClass, nil
	case "enumeration", "enum":
		return KindEnumeration, nil
	case "primitive":
		return KindPrimitive, nil
	case "association":
		return KindAssociation, nil
	default:
		return 0, fmt.Errorf("unknown type kind: %s", s)
	}
}

// Annotation is a configuration value attached to a model element. An element holds at
// most one annotation per kind.
type Annotation struct {
	Kind   string
	Values map[string]any
}

// Annotations maps annotation kind to instance
type Annotations map[string]Annotation

// Clone returns a deep copy of the annotations
func (a Annotations) Clone() Annotations {
	if a == nil {
		return nil
	}
	out := make(Annotations, len(a))
	for k, v := range a {
		out[k] = v.Clone()
	}
	return out
}

// Clone returns a deep copy of the annotation
func (a Annotation) Clone() Annotation {
	return Annotation{Kind: a.Kind, Values: cloneValues(a.Values)}
}

// TypeHeader holds what every type variant carries
type TypeHeader struct {
	Module      string
	Name        string
	Annotations Annotations
}

// Ref returns the reference addressing this type
func (h *TypeHeader) Ref() TypeRef {
	return TypeRef{Module: h.Module, Name: h.Name}
}

// Header returns the shared type header
func (h *TypeHeader) Header() *TypeHeader {
	return h
}

func (h TypeHeader) clone() TypeHeader {
	return TypeHeader{Module: h.Module, Name: h.Name, Annotations: h.Annotations.Clone()}
}

// Type is one of *Class, *Enumeration, *Primitive or *Association
type Type interface {
	Ref() TypeRef
	Header() *TypeHeader
	Kind() Kind
	CloneType() Type
	isType()
}

// Class is a structured type with supertypes and local parts
type Class struct {
	TypeHeader
	Abstract        bool
	Generalizations []TypeRef
	Parts           []Part
}

// Enumeration is a type with an ordered list of classifiers
type Enumeration struct {
	TypeHeader
	Classifiers []Classifier
}

// Facets is the bundle of primitive properties compared for compatibility
type Facets struct {
	Precision    int
	Size         int
	StorageKind  string
	ValueMapping string
}

// Primitive is a scalar value type
type Primitive struct {
	TypeHeader
	Facets Facets
}

// Association links the association ends of a relationship. It is never diffed on its
// own; its state is observable through the references pointing at it.
type Association struct {
	TypeHeader
	Ends []*AssociationEnd
}

func (*Class) Kind() Kind       { return KindClass }
func (*Enumeration) Kind() Kind { return KindEnumeration }
func (*Primitive) Kind() Kind   { return KindPrimitive }
func (*Association) Kind() Kind { return KindAssociation }

func (*Class) isType()       {}
func (*Enumeration) isType() {}
func (*Primitive) isType()   {}
func (*Association) isType() {}

// Part returns the local part with the given name, or nil
func (c *Class) Part(name string) Part {
	if i := c.PartIndex(name); i >= 0 {
		return c.Parts[i]
	}
	return nil
}

// PartIndex returns the position of the named part, or -1
func (c *Class) PartIndex(name string) int {
	for i, p := range c.Parts {
		if p.PartName() == name {
			return i
		}
	}
	return -1
}

// PartNames returns the local part names in order
func (c *Class) PartNames() []string {
	names := make([]string, len(c.Parts))
	for i, p := range c.Parts {
		names[i] = p.PartName()
	}
	return names
}

// Classifier returns the classifier with the given name and whether it exists
func (e *Enumeration) Classifier(name string) (Classifier, bool) {
	for _, c := range e.Classifiers {
		if c.Name == name {
			return c, true
		}
	}
	return Classifier{}, false
}

// CloneType returns a deep copy of the class
func (c *Class) CloneType() Type {
	out := &Class{
		TypeHeader: c.TypeHeader.clone(),
		Abstract:   c.Abstract,
	}
	if c.Generalizations != nil {
		out.Generalizations = append([]TypeRef(nil), c.Generalizations...)
	}
	if c.Parts != nil {
		out.Parts = make([]Part, len(c.Parts))
		for i, p := range c.Parts {
			out.Parts[i] = p.ClonePart()
		}
	}
	return out
}

// CloneType returns a deep copy of the enumeration
func (e *Enumeration) CloneType() Type {
	out := &Enumeration{TypeHeader: e.TypeHeader.clone()}
	if e.Classifiers != nil {
		out.Classifiers = make([]Classifier, len(e.Classifiers))
		for i, c := range e.Classifiers {
			out.Classifiers[i] = c.Clone()
		}
	}
	return out
}

// CloneType returns a deep copy of the primitive
func (p *Primitive) CloneType() Type {
	return &Primitive{TypeHeader: p.TypeHeader.clone(), Facets: p.Facets}
}

// CloneType returns a deep copy of the association
func (a *Association) CloneType() Type {
	out := &Association{TypeHeader: a.TypeHeader.clone()}
	for _, e := range a.Ends {
		out.Ends = append(out.Ends, e.ClonePart().(*AssociationEnd))
	}
	return out
}

// Classifier is a named value of an enumeration
type Classifier struct {
	Name        string
	Annotations Annotations
}

// Clone returns a deep copy of the classifier
func (c Classifier) Clone() Classifier {
	return Classifier{Name: c.Name, Annotations: c.Annotations.Clone()}
}

// PartKind identifies the variant of a Part
type PartKind int

const (
	PartProperty PartKind = iota
	PartReference
	PartAssociationEnd
)

// String returns the string representation of the part kind
func (k PartKind) String() string {
	switch k {
	case PartProperty:
		return "property"
	case PartReference:
		return "reference"
	case PartAssociationEnd:
		return "association_end"
	default:
		return "unknown"
	}
}

// ParsePartKind converts a string to a PartKind
func ParsePartKind(s string) (PartKind, error) {
	switch s {
	case "property":
		return PartProperty, nil
	case "reference":
		return PartReference, nil
	case "association_end", "end":
		return PartAssociationEnd, nil
	default:
		return 0, fmt.Errorf("unknown part kind: %s", s)
	}
}

// PartHeader holds what every part variant carries
type PartHeader struct {
	Name        string
	Owner       TypeRef
	Target      TypeRef
	Mandatory   bool
	Storage     map[string]string
	Annotations Annotations
}

// PartName returns the part name
func (h *PartHeader) PartName() string {
	return h.Name
}

// Ref returns the reference addressing this part
func (h *PartHeader) Ref() PartRef {
	return PartRef{Owner: h.Owner, Name: h.Name}
}

// Header returns the shared part header
func (h *PartHeader) Header() *PartHeader {
	return h
}

func (h PartHeader) clone() PartHeader {
	out := h
	out.Annotations = h.Annotations.Clone()
	if h.Storage != nil {
		out.Storage = make(map[string]string, len(h.Storage))
		for k, v := range h.Storage {
			out.Storage[k] = v
		}
	}
	return out
}

// Part is one of *Property, *Reference or *AssociationEnd
type Part interface {
	PartName() string
	Ref() PartRef
	Header() *PartHeader
	Kind() PartKind
	ClonePart() Part
	isPart()
}

// Property is a value-typed member
type Property struct {
	PartHeader
	Derived  bool
	Multiple bool
	Ordered  bool
}

// Reference is a member pointing at another class, optionally linked to an inverse
// reference on the target side.
type Reference struct {
	PartHeader
	Derived  bool
	Multiple bool
	Ordered  bool
	Bag      bool
	Inverse  *PartRef
}

// AssociationEnd is a member owned by an association
type AssociationEnd struct {
	PartHeader
	Multiple bool
	Ordered  bool
}

func (*Property) Kind() PartKind       { return PartProperty }
func (*Reference) Kind() PartKind      { return PartReference }
func (*AssociationEnd) Kind() PartKind { return PartAssociationEnd }

func (*Property) isPart()       {}
func (*Reference) isPart()      {}
func (*AssociationEnd) isPart() {}

// ClonePart returns a deep copy of the property
func (p *Property) ClonePart() Part {
	out := *p
	out.PartHeader = p.PartHeader.clone()
	return &out
}

// ClonePart returns a deep copy of the reference
func (r *Reference) ClonePart() Part {
	out := *r
	out.PartHeader = r.PartHeader.clone()
	if r.Inverse != nil {
		inv := *r.Inverse
		out.Inverse = &inv
	}
	return &out
}

// ClonePart returns a deep copy of the association end
func (e *AssociationEnd) ClonePart() Part {
	out := *e
	out.PartHeader = e.PartHeader.clone()
	return &out
}

// Singleton binds a module-level name to a type
type Singleton struct {
	Name string
	Type TypeRef
}

// Role is a named role definition with free-form configuration
type Role struct {
	Name   string
	Config map[string]any
}

// Clone returns a deep copy of the role
func (r Role) Clone() Role {
	return Role{Name: r.Name, Config: cloneValues(r.Config)}
}

func cloneValues(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneValues(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
