package modeldoc

import (
	"sort"

	"github.com/conduit-lang/schemadiff/internal/model"
)

// FromModel renders a model as a canonical document: modules, types, singletons, roles
// and annotations sorted by name, ordered collections kept in model order.
func FromModel(m *model.Model) *Document {
	doc := &Document{}
	for _, name := range m.ModuleNames() {
		doc.Modules = append(doc.Modules, FromModule(m.Modules[name]))
	}
	return doc
}

// FromModule renders one module
func FromModule(mod *model.Module) Module {
	out := Module{Name: mod.Name}

	for _, name := range mod.TypeNames() {
		out.Types = append(out.Types, FromType(mod.Types[name]))
	}

	names := make([]string, 0, len(mod.Singletons))
	for name := range mod.Singletons {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := mod.Singletons[name]
		out.Singletons = append(out.Singletons, Singleton{Name: s.Name, Type: s.Type.String()})
	}

	names = names[:0]
	for name := range mod.Roles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := mod.Roles[name]
		out.Roles = append(out.Roles, Role{Name: r.Name, Config: NormalizeValues(r.Config)})
	}

	return out
}

// FromType renders one type
func FromType(t model.Type) Type {
	h := t.Header()
	out := Type{
		Kind:        t.Kind().String(),
		Name:        h.Name,
		Annotations: FromAnnotations(h.Annotations),
	}

	switch t := t.(type) {
	case *model.Class:
		out.Abstract = t.Abstract
		for _, g := range t.Generalizations {
			out.Extends = append(out.Extends, g.String())
		}
		for _, p := range t.Parts {
			out.Parts = append(out.Parts, FromPart(p))
		}
	case *model.Enumeration:
		for _, c := range t.Classifiers {
			out.Classifiers = append(out.Classifiers, FromClassifier(c))
		}
	case *model.Primitive:
		if t.Facets != (model.Facets{}) {
			out.Facets = &Facets{
				Precision:    t.Facets.Precision,
				Size:         t.Facets.Size,
				StorageKind:  t.Facets.StorageKind,
				ValueMapping: t.Facets.ValueMapping,
			}
		}
	case *model.Association:
		for _, e := range t.Ends {
			out.Ends = append(out.Ends, FromPart(e))
		}
	}

	return out
}

// FromPart renders one part
func FromPart(p model.Part) Part {
	h := p.Header()
	out := Part{
		Kind:        p.Kind().String(),
		Name:        h.Name,
		Target:      h.Target.String(),
		Mandatory:   h.Mandatory,
		Annotations: FromAnnotations(h.Annotations),
	}
	if len(h.Storage) > 0 {
		out.Storage = make(map[string]string, len(h.Storage))
		for k, v := range h.Storage {
			out.Storage[k] = v
		}
	}

	switch p := p.(type) {
	case *model.Property:
		out.Derived, out.Multiple, out.Ordered = p.Derived, p.Multiple, p.Ordered
	case *model.Reference:
		out.Derived, out.Multiple, out.Ordered, out.Bag = p.Derived, p.Multiple, p.Ordered, p.Bag
		if p.Inverse != nil {
			out.Inverse = p.Inverse.String()
		}
	case *model.AssociationEnd:
		out.Multiple, out.Ordered = p.Multiple, p.Ordered
	}

	return out
}

// FromClassifier renders one classifier
func FromClassifier(c model.Classifier) Classifier {
	return Classifier{Name: c.Name, Annotations: FromAnnotations(c.Annotations)}
}

// FromAnnotations renders annotations sorted by kind
func FromAnnotations(a model.Annotations) []Annotation {
	if len(a) == 0 {
		return nil
	}
	kinds := make([]string, 0, len(a))
	for k := range a {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	out := make([]Annotation, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, FromAnnotation(a[k]))
	}
	return out
}

// FromAnnotation renders one annotation instance
func FromAnnotation(a model.Annotation) Annotation {
	return Annotation{Kind: a.Kind, Values: NormalizeValues(a.Values)}
}
