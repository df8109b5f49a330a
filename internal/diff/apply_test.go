package diff

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/schemadiff/internal/model"
)

// apply replays elements against a copy of m the way a mutation API would, including
// the implicit removal of an inverse reference when its forward reference is deleted.
func apply(t *testing.T, m *model.Model, elems []Element) *model.Model {
	t.Helper()
	out := m.Clone()
	for i, e := range elems {
		require.NoError(t, applyElement(out, e), "element %d: %s %s", i, e.Op(), e.Target())
	}
	return out
}

func applyElement(m *model.Model, e Element) error {
	switch e := e.(type) {
	case CreateModule:
		if m.Module(e.Module.Name) != nil {
			return fmt.Errorf("module exists")
		}
		m.Modules[e.Module.Name] = e.Module.Clone()
	case CreateType:
		mod := m.Module(e.Type.Ref().Module)
		if mod == nil {
			return fmt.Errorf("module missing")
		}
		if mod.Types[e.Type.Header().Name] != nil {
			return fmt.Errorf("type exists")
		}
		mod.Add(e.Type.CloneType())
	case CreateStructuredTypePart:
		c := m.Class(e.Part.Ref().Owner)
		if c == nil {
			return fmt.Errorf("owner missing")
		}
		if c.Part(e.Part.PartName()) != nil {
			return fmt.Errorf("part exists")
		}
		parts, err := insertBefore(c.Parts, e.Part.ClonePart(), e.Before, model.Part.PartName)
		if err != nil {
			return err
		}
		c.Parts = parts
	case CreateClassifier:
		enum, ok := m.Type(e.Enumeration).(*model.Enumeration)
		if !ok {
			return fmt.Errorf("enumeration missing")
		}
		if _, exists := enum.Classifier(e.Classifier.Name); exists {
			return fmt.Errorf("classifier exists")
		}
		cs, err := insertBefore(enum.Classifiers, e.Classifier.Clone(), e.Before, classifierName)
		if err != nil {
			return err
		}
		enum.Classifiers = cs
	case CreateSingleton:
		mod := m.Module(e.Module)
		if _, exists := mod.Singletons[e.Singleton.Name]; exists {
			return fmt.Errorf("singleton exists")
		}
		mod.Singletons[e.Singleton.Name] = e.Singleton
	case CreateRole:
		mod := m.Module(e.Module)
		if _, exists := mod.Roles[e.Role.Name]; exists {
			return fmt.Errorf("role exists")
		}
		mod.Roles[e.Role.Name] = e.Role.Clone()
	case Delete:
		return applyDelete(m, e)
	case DeleteRole:
		mod := m.Module(e.Module)
		if _, exists := mod.Roles[e.Name]; !exists {
			return fmt.Errorf("role missing")
		}
		delete(mod.Roles, e.Name)
	case AddGeneralization:
		c := m.Class(e.Class)
		if indexOf(c.Generalizations, e.Super.String(), model.TypeRef.String) >= 0 {
			return fmt.Errorf("generalization exists")
		}
		gens, err := insertBefore(c.Generalizations, e.Super, beforeRef(e.Before), model.TypeRef.String)
		if err != nil {
			return err
		}
		c.Generalizations = gens
	case RemoveGeneralization:
		c := m.Class(e.Class)
		gens, _, err := remove(c.Generalizations, e.Super.String(), model.TypeRef.String)
		if err != nil {
			return err
		}
		c.Generalizations = gens
	case MoveGeneralization:
		c := m.Class(e.Class)
		gens, item, err := remove(c.Generalizations, e.Super.String(), model.TypeRef.String)
		if err != nil {
			return err
		}
		if c.Generalizations, err = insertBefore(gens, item, beforeRef(e.Before), model.TypeRef.String); err != nil {
			return err
		}
	case MoveClassifier:
		enum := m.Type(e.Enumeration).(*model.Enumeration)
		cs, item, err := remove(enum.Classifiers, e.Name, classifierName)
		if err != nil {
			return err
		}
		if enum.Classifiers, err = insertBefore(cs, item, e.Before, classifierName); err != nil {
			return err
		}
	case MoveStructuredTypePart:
		c := m.Class(e.Owner)
		parts, item, err := remove(c.Parts, e.Name, model.Part.PartName)
		if err != nil {
			return err
		}
		if c.Parts, err = insertBefore(parts, item, e.Before, model.Part.PartName); err != nil {
			return err
		}
	case AddAnnotations:
		target, err := annotationsOf(m, e.Element)
		if err != nil {
			return err
		}
		if *target == nil {
			*target = make(model.Annotations)
		}
		for _, a := range e.Annotations {
			if _, exists := (*target)[a.Kind]; exists {
				return fmt.Errorf("annotation %s exists", a.Kind)
			}
			(*target)[a.Kind] = a.Clone()
		}
	case RemoveAnnotation:
		target, err := annotationsOf(m, e.Element)
		if err != nil {
			return err
		}
		if _, exists := (*target)[e.Kind]; !exists {
			return fmt.Errorf("annotation %s missing", e.Kind)
		}
		delete(*target, e.Kind)
	case MakeAbstract:
		c := m.Class(e.Class)
		if c.Abstract {
			return fmt.Errorf("already abstract")
		}
		c.Abstract = true
	case MakeConcrete:
		c := m.Class(e.Class)
		if !c.Abstract {
			return fmt.Errorf("already concrete")
		}
		c.Abstract = false
	case UpdateMandatory:
		p := m.Part(e.Part)
		if p == nil {
			return fmt.Errorf("part missing")
		}
		p.Header().Mandatory = e.Mandatory
	default:
		return fmt.Errorf("unhandled element %T", e)
	}
	return nil
}

func applyDelete(m *model.Model, e Delete) error {
	switch e.Subject {
	case SubjectModule:
		mod := m.Module(e.Name.Module)
		if mod == nil {
			return fmt.Errorf("module missing")
		}
		delete(m.Modules, mod.Name)
		for _, t := range mod.Types {
			cascadeClass(m, t)
		}
	case SubjectType:
		mod := m.Module(e.Name.Module)
		t := mod.Types[e.Name.Type]
		if t == nil {
			return fmt.Errorf("type missing")
		}
		delete(mod.Types, e.Name.Type)
		cascadeClass(m, t)
	case SubjectPart:
		c := m.Class(e.Name.TypeRef())
		if c == nil {
			return fmt.Errorf("owner missing")
		}
		parts, p, err := remove(c.Parts, e.Name.Member, model.Part.PartName)
		if err != nil {
			return err
		}
		c.Parts = parts
		cascadePart(m, p)
	case SubjectClassifier:
		enum := m.Type(e.Name.TypeRef()).(*model.Enumeration)
		cs, _, err := remove(enum.Classifiers, e.Name.Member, classifierName)
		if err != nil {
			return err
		}
		enum.Classifiers = cs
	case SubjectSingleton:
		mod := m.Module(e.Name.Module)
		if _, exists := mod.Singletons[e.Name.Type]; !exists {
			return fmt.Errorf("singleton missing")
		}
		delete(mod.Singletons, e.Name.Type)
	}
	return nil
}

func cascadeClass(m *model.Model, t model.Type) {
	if c, ok := t.(*model.Class); ok {
		for _, p := range c.Parts {
			cascadePart(m, p)
		}
	}
}

func cascadePart(m *model.Model, p model.Part) {
	ref, ok := p.(*model.Reference)
	if !ok || ref.Inverse == nil {
		return
	}
	if owner := m.Class(ref.Inverse.Owner); owner != nil {
		if parts, _, err := remove(owner.Parts, ref.Inverse.Name, model.Part.PartName); err == nil {
			owner.Parts = parts
		}
	}
}

func annotationsOf(m *model.Model, q model.QName) (*model.Annotations, error) {
	t := m.Type(q.TypeRef())
	if t == nil {
		return nil, fmt.Errorf("type %s missing", q.TypeRef())
	}
	if q.Member == "" {
		return &t.Header().Annotations, nil
	}
	switch t := t.(type) {
	case *model.Class:
		if p := t.Part(q.Member); p != nil {
			return &p.Header().Annotations, nil
		}
	case *model.Enumeration:
		for i := range t.Classifiers {
			if t.Classifiers[i].Name == q.Member {
				return &t.Classifiers[i].Annotations, nil
			}
		}
	}
	return nil, fmt.Errorf("member %s missing", q)
}

func classifierName(c model.Classifier) string { return c.Name }

func beforeRef(ref model.TypeRef) string {
	if ref.IsZero() {
		return ""
	}
	return ref.String()
}

func indexOf[T any](items []T, key string, keyOf func(T) string) int {
	for i, item := range items {
		if keyOf(item) == key {
			return i
		}
	}
	return -1
}

func insertBefore[T any](items []T, item T, before string, keyOf func(T) string) ([]T, error) {
	if before == "" {
		return append(items, item), nil
	}
	i := indexOf(items, before, keyOf)
	if i < 0 {
		return nil, fmt.Errorf("before %s missing", before)
	}
	out := make([]T, 0, len(items)+1)
	out = append(out, items[:i]...)
	out = append(out, item)
	return append(out, items[i:]...), nil
}

func remove[T any](items []T, key string, keyOf func(T) string) ([]T, T, error) {
	var zero T
	i := indexOf(items, key, keyOf)
	if i < 0 {
		return nil, zero, fmt.Errorf("%s missing", key)
	}
	item := items[i]
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...), item, nil
}
