package model

import (
	"fmt"
	"strings"
)

// Builder assembles a Model with a fluent API. Reference strings are parsed as they
// are added; parse errors are collected and reported together by Build.
type Builder struct {
	model  *Model
	errors []error
}

// NewBuilder creates a new model builder
func NewBuilder() *Builder {
	return &Builder{
		model:  NewModel(),
		errors: make([]error, 0),
	}
}

// Build validates the assembled model and returns it
func (b *Builder) Build() (*Model, error) {
	if len(b.errors) > 0 {
		var errMsgs []string
		for _, err := range b.errors {
			errMsgs = append(errMsgs, err.Error())
		}
		return nil, fmt.Errorf("model building failed with %d errors:\n%s",
			len(b.errors), strings.Join(errMsgs, "\n"))
	}

	if err := Validate(b.model); err != nil {
		return nil, err
	}

	return b.model, nil
}

// MustBuild is Build for fixtures; it panics on error
func (b *Builder) MustBuild() *Model {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

func (b *Builder) typeRef(s string) TypeRef {
	ref, err := ParseTypeRef(s)
	if err != nil {
		b.errors = append(b.errors, err)
	}
	return ref
}

func (b *Builder) partRef(s string) PartRef {
	ref, err := ParsePartRef(s)
	if err != nil {
		b.errors = append(b.errors, err)
	}
	return ref
}

// Module returns a builder for the named module, creating it on first use
func (b *Builder) Module(name string) *ModuleBuilder {
	mod := b.model.Modules[name]
	if mod == nil {
		mod = NewModule(name)
		b.model.Modules[name] = mod
	}
	return &ModuleBuilder{b: b, mod: mod}
}

// ModuleBuilder adds types and bindings to a module
type ModuleBuilder struct {
	b   *Builder
	mod *Module
}

func (mb *ModuleBuilder) add(t Type) {
	name := t.Header().Name
	if _, exists := mb.mod.Types[name]; exists {
		mb.b.errors = append(mb.b.errors, fmt.Errorf("type %s.%s is already defined", mb.mod.Name, name))
		return
	}
	mb.mod.Add(t)
}

// Class adds a class
func (mb *ModuleBuilder) Class(name string) *ClassBuilder {
	c := &Class{TypeHeader: TypeHeader{Name: name}}
	mb.add(c)
	return &ClassBuilder{mb: mb, class: c}
}

// Enumeration adds an enumeration with the given classifiers
func (mb *ModuleBuilder) Enumeration(name string, classifiers ...string) *EnumerationBuilder {
	e := &Enumeration{TypeHeader: TypeHeader{Name: name}}
	for _, c := range classifiers {
		e.Classifiers = append(e.Classifiers, Classifier{Name: c})
	}
	mb.add(e)
	return &EnumerationBuilder{mb: mb, enum: e}
}

// Primitive adds a primitive type
func (mb *ModuleBuilder) Primitive(name string, facets Facets) *TypeBuilder {
	p := &Primitive{TypeHeader: TypeHeader{Name: name}, Facets: facets}
	mb.add(p)
	return &TypeBuilder{mb: mb, header: &p.TypeHeader}
}

// Association adds an association; ends are added through the returned builder
func (mb *ModuleBuilder) Association(name string) *AssociationBuilder {
	a := &Association{TypeHeader: TypeHeader{Name: name}}
	mb.add(a)
	return &AssociationBuilder{mb: mb, assoc: a}
}

// Singleton binds a name to a type
func (mb *ModuleBuilder) Singleton(name, typ string) *ModuleBuilder {
	mb.mod.Singletons[name] = Singleton{Name: name, Type: mb.b.typeRef(typ)}
	return mb
}

// Role adds a role definition
func (mb *ModuleBuilder) Role(name string, config map[string]any) *ModuleBuilder {
	mb.mod.Roles[name] = Role{Name: name, Config: config}
	return mb
}

// End returns the model builder
func (mb *ModuleBuilder) End() *Builder {
	return mb.b
}

// TypeBuilder annotates a type without structural children
type TypeBuilder struct {
	mb     *ModuleBuilder
	header *TypeHeader
}

// Annotate attaches an annotation to the type
func (tb *TypeBuilder) Annotate(kind string, values map[string]any) *TypeBuilder {
	tb.header.Annotations = annotate(tb.header.Annotations, kind, values)
	return tb
}

// End returns the module builder
func (tb *TypeBuilder) End() *ModuleBuilder {
	return tb.mb
}

// ClassBuilder adds parts and supertypes to a class
type ClassBuilder struct {
	mb    *ModuleBuilder
	class *Class
}

// Abstract marks the class abstract
func (cb *ClassBuilder) Abstract() *ClassBuilder {
	cb.class.Abstract = true
	return cb
}

// Extends appends supertypes to the generalization list
func (cb *ClassBuilder) Extends(supers ...string) *ClassBuilder {
	for _, s := range supers {
		cb.class.Generalizations = append(cb.class.Generalizations, cb.mb.b.typeRef(s))
	}
	return cb
}

// Annotate attaches an annotation to the class
func (cb *ClassBuilder) Annotate(kind string, values map[string]any) *ClassBuilder {
	cb.class.Annotations = annotate(cb.class.Annotations, kind, values)
	return cb
}

func (cb *ClassBuilder) addPart(p Part) *PartBuilder {
	if cb.class.Part(p.PartName()) != nil {
		cb.mb.b.errors = append(cb.mb.b.errors,
			fmt.Errorf("part %s.%s is already defined", cb.class.Ref(), p.PartName()))
	}
	p.Header().Owner = cb.class.Ref()
	cb.class.Parts = append(cb.class.Parts, p)
	return &PartBuilder{cb: cb, part: p}
}

// Property appends a property part
func (cb *ClassBuilder) Property(name, target string) *PartBuilder {
	return cb.addPart(&Property{PartHeader: PartHeader{Name: name, Target: cb.mb.b.typeRef(target)}})
}

// Reference appends a reference part
func (cb *ClassBuilder) Reference(name, target string) *PartBuilder {
	return cb.addPart(&Reference{PartHeader: PartHeader{Name: name, Target: cb.mb.b.typeRef(target)}})
}

// AssociationEnd appends an association end as a class member
func (cb *ClassBuilder) AssociationEnd(name, target string) *PartBuilder {
	return cb.addPart(&AssociationEnd{PartHeader: PartHeader{Name: name, Target: cb.mb.b.typeRef(target)}})
}

// End returns the module builder
func (cb *ClassBuilder) End() *ModuleBuilder {
	return cb.mb
}

// PartBuilder sets part flags
type PartBuilder struct {
	cb   *ClassBuilder
	part Part
}

// Mandatory marks the part mandatory
func (pb *PartBuilder) Mandatory() *PartBuilder {
	pb.part.Header().Mandatory = true
	return pb
}

// Multiple marks the part multi-valued
func (pb *PartBuilder) Multiple() *PartBuilder {
	switch p := pb.part.(type) {
	case *Property:
		p.Multiple = true
	case *Reference:
		p.Multiple = true
	case *AssociationEnd:
		p.Multiple = true
	}
	return pb
}

// Ordered marks the part ordered
func (pb *PartBuilder) Ordered() *PartBuilder {
	switch p := pb.part.(type) {
	case *Property:
		p.Ordered = true
	case *Reference:
		p.Ordered = true
	case *AssociationEnd:
		p.Ordered = true
	}
	return pb
}

// Derived marks a property or reference derived
func (pb *PartBuilder) Derived() *PartBuilder {
	switch p := pb.part.(type) {
	case *Property:
		p.Derived = true
	case *Reference:
		p.Derived = true
	default:
		pb.cb.mb.b.errors = append(pb.cb.mb.b.errors,
			fmt.Errorf("part %s: %s cannot be derived", p.Ref(), p.Kind()))
	}
	return pb
}

// Bag marks a reference as a bag
func (pb *PartBuilder) Bag() *PartBuilder {
	if r, ok := pb.part.(*Reference); ok {
		r.Bag = true
	} else {
		pb.cb.mb.b.errors = append(pb.cb.mb.b.errors,
			fmt.Errorf("part %s: only references can be bags", pb.part.Ref()))
	}
	return pb
}

// Inverse links a reference to its inverse reference
func (pb *PartBuilder) Inverse(part string) *PartBuilder {
	if r, ok := pb.part.(*Reference); ok {
		ref := pb.cb.mb.b.partRef(part)
		r.Inverse = &ref
	} else {
		pb.cb.mb.b.errors = append(pb.cb.mb.b.errors,
			fmt.Errorf("part %s: only references have inverses", pb.part.Ref()))
	}
	return pb
}

// Storage sets a storage implementation setting
func (pb *PartBuilder) Storage(key, value string) *PartBuilder {
	h := pb.part.Header()
	if h.Storage == nil {
		h.Storage = make(map[string]string)
	}
	h.Storage[key] = value
	return pb
}

// Annotate attaches an annotation to the part
func (pb *PartBuilder) Annotate(kind string, values map[string]any) *PartBuilder {
	h := pb.part.Header()
	h.Annotations = annotate(h.Annotations, kind, values)
	return pb
}

// Part returns the part under construction
func (pb *PartBuilder) Part() Part {
	return pb.part
}

// End returns the class builder
func (pb *PartBuilder) End() *ClassBuilder {
	return pb.cb
}

// EnumerationBuilder adds classifiers to an enumeration
type EnumerationBuilder struct {
	mb   *ModuleBuilder
	enum *Enumeration
}

// Classifier appends a classifier
func (eb *EnumerationBuilder) Classifier(name string) *EnumerationBuilder {
	if _, exists := eb.enum.Classifier(name); exists {
		eb.mb.b.errors = append(eb.mb.b.errors,
			fmt.Errorf("classifier %s.%s is already defined", eb.enum.Ref(), name))
		return eb
	}
	eb.enum.Classifiers = append(eb.enum.Classifiers, Classifier{Name: name})
	return eb
}

// AnnotateClassifier attaches an annotation to an existing classifier
func (eb *EnumerationBuilder) AnnotateClassifier(name, kind string, values map[string]any) *EnumerationBuilder {
	for i := range eb.enum.Classifiers {
		if eb.enum.Classifiers[i].Name == name {
			eb.enum.Classifiers[i].Annotations = annotate(eb.enum.Classifiers[i].Annotations, kind, values)
			return eb
		}
	}
	eb.mb.b.errors = append(eb.mb.b.errors,
		fmt.Errorf("classifier %s.%s is not defined", eb.enum.Ref(), name))
	return eb
}

// Annotate attaches an annotation to the enumeration
func (eb *EnumerationBuilder) Annotate(kind string, values map[string]any) *EnumerationBuilder {
	eb.enum.Annotations = annotate(eb.enum.Annotations, kind, values)
	return eb
}

// End returns the module builder
func (eb *EnumerationBuilder) End() *ModuleBuilder {
	return eb.mb
}

// AssociationBuilder adds ends to an association
type AssociationBuilder struct {
	mb    *ModuleBuilder
	assoc *Association
}

// Connect appends an association end targeting the given type
func (ab *AssociationBuilder) Connect(name, target string, multiple bool) *AssociationBuilder {
	ab.assoc.Ends = append(ab.assoc.Ends, &AssociationEnd{
		PartHeader: PartHeader{Name: name, Owner: ab.assoc.Ref(), Target: ab.mb.b.typeRef(target)},
		Multiple:   multiple,
	})
	return ab
}

// End returns the module builder
func (ab *AssociationBuilder) End() *ModuleBuilder {
	return ab.mb
}

func annotate(a Annotations, kind string, values map[string]any) Annotations {
	if a == nil {
		a = make(Annotations)
	}
	a[kind] = Annotation{Kind: kind, Values: values}
	return a
}
