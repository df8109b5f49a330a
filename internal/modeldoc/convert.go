package modeldoc

import (
	"errors"
	"fmt"

	"github.com/conduit-lang/schemadiff/internal/model"
)

// Model converts the document to a model and validates it
func (d *Document) Model() (*model.Model, error) {
	c := &converter{}
	m := model.NewModel()

	for _, dm := range d.Modules {
		if _, exists := m.Modules[dm.Name]; exists {
			c.fail("module %s is defined more than once", dm.Name)
			continue
		}
		if mod := c.module(dm); mod != nil {
			m.Modules[mod.Name] = mod
		}
	}

	if err := c.err(); err != nil {
		return nil, err
	}
	if err := model.Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ToModule converts a serialized module without validating cross references
func ToModule(dm Module) (*model.Module, error) {
	c := &converter{}
	mod := c.module(dm)
	return mod, c.err()
}

// ToType converts a serialized type declared in the given module
func ToType(module string, dt Type) (model.Type, error) {
	c := &converter{}
	t := c.typ(module, dt)
	if err := c.err(); err != nil {
		return nil, err
	}
	return t, nil
}

// ToPart converts a serialized part owned by the given type
func ToPart(owner model.TypeRef, dp Part) (model.Part, error) {
	c := &converter{}
	p := c.part(owner, dp)
	if err := c.err(); err != nil {
		return nil, err
	}
	return p, nil
}

// ToClassifier converts a serialized classifier
func ToClassifier(dc Classifier) (model.Classifier, error) {
	c := &converter{}
	out := model.Classifier{Name: dc.Name, Annotations: c.annotations(dc.Name, dc.Annotations)}
	return out, c.err()
}

// ToAnnotations converts a serialized annotation list
func ToAnnotations(element string, list []Annotation) (model.Annotations, error) {
	c := &converter{}
	out := c.annotations(element, list)
	return out, c.err()
}

// ToAnnotation converts one serialized annotation instance
func ToAnnotation(a Annotation) model.Annotation {
	return model.Annotation{Kind: a.Kind, Values: NormalizeValues(a.Values)}
}

// converter collects every problem of a document instead of stopping at the first
type converter struct {
	errs []error
}

func (c *converter) fail(format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf(format, args...))
}

func (c *converter) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid model document: %w", errors.Join(c.errs...))
}

func (c *converter) typeRef(element, s string) model.TypeRef {
	ref, err := model.ParseTypeRef(s)
	if err != nil {
		c.fail("%s: %v", element, err)
	}
	return ref
}

func (c *converter) module(dm Module) *model.Module {
	if dm.Name == "" {
		c.fail("module without a name")
		return nil
	}
	mod := model.NewModule(dm.Name)

	for _, dt := range dm.Types {
		if _, exists := mod.Types[dt.Name]; exists {
			c.fail("type %s.%s is defined more than once", dm.Name, dt.Name)
			continue
		}
		if t := c.typ(dm.Name, dt); t != nil {
			mod.Add(t)
		}
	}

	for _, ds := range dm.Singletons {
		element := dm.Name + "." + ds.Name
		if _, exists := mod.Singletons[ds.Name]; exists {
			c.fail("singleton %s is defined more than once", element)
			continue
		}
		mod.Singletons[ds.Name] = model.Singleton{Name: ds.Name, Type: c.typeRef(element, ds.Type)}
	}

	for _, dr := range dm.Roles {
		if _, exists := mod.Roles[dr.Name]; exists {
			c.fail("role %s.%s is defined more than once", dm.Name, dr.Name)
			continue
		}
		mod.Roles[dr.Name] = model.Role{Name: dr.Name, Config: NormalizeValues(dr.Config)}
	}

	return mod
}

func (c *converter) typ(module string, dt Type) model.Type {
	element := module + "." + dt.Name
	if dt.Name == "" {
		c.fail("type without a name in module %s", module)
		return nil
	}

	kind, err := model.ParseKind(dt.Kind)
	if err != nil {
		c.fail("%s: %v", element, err)
		return nil
	}

	header := model.TypeHeader{
		Module:      module,
		Name:        dt.Name,
		Annotations: c.annotations(element, dt.Annotations),
	}

	if kind != model.KindClass && (dt.Abstract || len(dt.Extends) > 0 || len(dt.Parts) > 0) {
		c.fail("%s: only classes have parts, supertypes or the abstract flag", element)
	}
	if kind != model.KindEnumeration && len(dt.Classifiers) > 0 {
		c.fail("%s: only enumerations have classifiers", element)
	}
	if kind != model.KindPrimitive && dt.Facets != nil {
		c.fail("%s: only primitives have facets", element)
	}
	if kind != model.KindAssociation && len(dt.Ends) > 0 {
		c.fail("%s: only associations have ends", element)
	}

	switch kind {
	case model.KindClass:
		class := &model.Class{TypeHeader: header, Abstract: dt.Abstract}
		for _, s := range dt.Extends {
			class.Generalizations = append(class.Generalizations, c.typeRef(element, s))
		}
		for _, dp := range dt.Parts {
			if p := c.part(class.Ref(), dp); p != nil {
				class.Parts = append(class.Parts, p)
			}
		}
		return class

	case model.KindEnumeration:
		enum := &model.Enumeration{TypeHeader: header}
		for _, dc := range dt.Classifiers {
			enum.Classifiers = append(enum.Classifiers, model.Classifier{
				Name:        dc.Name,
				Annotations: c.annotations(element+"."+dc.Name, dc.Annotations),
			})
		}
		return enum

	case model.KindPrimitive:
		prim := &model.Primitive{TypeHeader: header}
		if dt.Facets != nil {
			prim.Facets = model.Facets{
				Precision:    dt.Facets.Precision,
				Size:         dt.Facets.Size,
				StorageKind:  dt.Facets.StorageKind,
				ValueMapping: dt.Facets.ValueMapping,
			}
		}
		return prim

	case model.KindAssociation:
		assoc := &model.Association{TypeHeader: header}
		for _, de := range dt.Ends {
			if de.Kind == "" {
				de.Kind = model.PartAssociationEnd.String()
			}
			p := c.part(assoc.Ref(), de)
			if end, ok := p.(*model.AssociationEnd); ok {
				assoc.Ends = append(assoc.Ends, end)
			} else if p != nil {
				c.fail("%s.%s: association ends must have kind %s", element, de.Name, model.PartAssociationEnd)
			}
		}
		return assoc
	}
	return nil
}

func (c *converter) part(owner model.TypeRef, dp Part) model.Part {
	element := owner.String() + "." + dp.Name
	if dp.Name == "" {
		c.fail("part without a name in %s", owner)
		return nil
	}

	kind := model.PartProperty
	if dp.Kind != "" {
		k, err := model.ParsePartKind(dp.Kind)
		if err != nil {
			c.fail("%s: %v", element, err)
			return nil
		}
		kind = k
	}

	header := model.PartHeader{
		Name:        dp.Name,
		Owner:       owner,
		Target:      c.typeRef(element, dp.Target),
		Mandatory:   dp.Mandatory,
		Annotations: c.annotations(element, dp.Annotations),
	}
	if len(dp.Storage) > 0 {
		header.Storage = make(map[string]string, len(dp.Storage))
		for k, v := range dp.Storage {
			header.Storage[k] = v
		}
	}

	if kind != model.PartReference && (dp.Bag || dp.Inverse != "") {
		c.fail("%s: only references can be bags or have an inverse", element)
	}

	switch kind {
	case model.PartReference:
		ref := &model.Reference{
			PartHeader: header,
			Derived:    dp.Derived,
			Multiple:   dp.Multiple,
			Ordered:    dp.Ordered,
			Bag:        dp.Bag,
		}
		if dp.Inverse != "" {
			inv, err := model.ParsePartRef(dp.Inverse)
			if err != nil {
				c.fail("%s: %v", element, err)
			} else {
				ref.Inverse = &inv
			}
		}
		return ref
	case model.PartAssociationEnd:
		if dp.Derived {
			c.fail("%s: association ends cannot be derived", element)
		}
		return &model.AssociationEnd{PartHeader: header, Multiple: dp.Multiple, Ordered: dp.Ordered}
	default:
		return &model.Property{
			PartHeader: header,
			Derived:    dp.Derived,
			Multiple:   dp.Multiple,
			Ordered:    dp.Ordered,
		}
	}
}

func (c *converter) annotations(element string, list []Annotation) model.Annotations {
	if len(list) == 0 {
		return nil
	}
	out := make(model.Annotations, len(list))
	for _, a := range list {
		if a.Kind == "" {
			c.fail("%s: annotation without a kind", element)
			continue
		}
		if _, exists := out[a.Kind]; exists {
			c.fail("%s: annotation %s is attached more than once", element, a.Kind)
			continue
		}
		out[a.Kind] = ToAnnotation(a)
	}
	return out
}
