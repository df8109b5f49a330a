package model

import (
	"fmt"
	"strings"
)

// ValidationError describes a violated snapshot precondition
type ValidationError struct {
	Element string
	Message string
	Hint    string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder

	if e.Element != "" {
		b.WriteString(e.Element)
		b.WriteString(": ")
	}

	b.WriteString(e.Message)

	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}

	return b.String()
}

// ValidationErrors aggregates every problem found in one snapshot
type ValidationErrors []*ValidationError

// Error implements the error interface
func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("model validation failed with %d errors:\n%s", len(errs), strings.Join(msgs, "\n"))
}

// Validate checks that names are unique in their scope and that no reference dangles.
// The diff engine assumes these preconditions and never calls Validate itself.
func Validate(m *Model) error {
	v := &validator{model: m}
	for _, modName := range m.ModuleNames() {
		v.validateModule(modName, m.Modules[modName])
	}
	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

type validator struct {
	model  *Model
	errors ValidationErrors
}

func (v *validator) fail(element, hint, format string, args ...any) {
	v.errors = append(v.errors, &ValidationError{
		Element: element,
		Message: fmt.Sprintf(format, args...),
		Hint:    hint,
	})
}

func (v *validator) validateModule(name string, mod *Module) {
	if mod.Name != name {
		v.fail(name, "", "module is registered under %q but named %q", name, mod.Name)
	}

	for _, typeName := range mod.TypeNames() {
		t := mod.Types[typeName]
		h := t.Header()
		if h.Name != typeName || h.Module != mod.Name {
			v.fail(t.Ref().String(), "add types through Module.Add", "type is registered as %s.%s", mod.Name, typeName)
		}

		switch t := t.(type) {
		case *Class:
			v.validateClass(t)
		case *Enumeration:
			v.validateEnumeration(t)
		case *Association:
			for _, e := range t.Ends {
				v.validatePart(e, t.Ref())
			}
		case *Primitive:
			if t.Facets.Precision < 0 || t.Facets.Size < 0 {
				v.fail(t.Ref().String(), "", "primitive facets must not be negative")
			}
		}
	}

	for name, s := range mod.Singletons {
		if s.Name != name {
			v.fail(mod.Name+"."+name, "", "singleton is registered under %q but named %q", name, s.Name)
		}
		if v.model.Type(s.Type) == nil {
			v.fail(mod.Name+"."+name, "", "singleton type %s is not defined", s.Type)
		}
	}

	for name, r := range mod.Roles {
		if r.Name != name {
			v.fail(mod.Name+"."+name, "", "role is registered under %q but named %q", name, r.Name)
		}
	}
}

func (v *validator) validateClass(c *Class) {
	seen := make(map[TypeRef]bool, len(c.Generalizations))
	for _, g := range c.Generalizations {
		if seen[g] {
			v.fail(c.Ref().String(), "", "duplicate generalization %s", g)
		}
		seen[g] = true
		if v.model.Class(g) == nil {
			v.fail(c.Ref().String(), "generalizations must name classes", "supertype %s is not a defined class", g)
		}
	}

	names := make(map[string]bool, len(c.Parts))
	for _, p := range c.Parts {
		if names[p.PartName()] {
			v.fail(p.Ref().String(), "", "duplicate part name")
		}
		names[p.PartName()] = true
		v.validatePart(p, c.Ref())
	}
}

func (v *validator) validatePart(p Part, owner TypeRef) {
	h := p.Header()
	if h.Name == "" {
		v.fail(owner.String(), "", "part without a name")
		return
	}
	if h.Owner != owner {
		v.fail(p.Ref().String(), "", "part owner is %s, expected %s", h.Owner, owner)
	}

	target := v.model.Type(h.Target)
	if target == nil {
		v.fail(p.Ref().String(), "", "target type %s is not defined", h.Target)
		return
	}

	switch p := p.(type) {
	case *Property:
		if target.Kind() == KindAssociation {
			v.fail(p.Ref().String(), "", "association %s cannot be a value type", h.Target)
		}
	case *Reference:
		if target.Kind() != KindClass {
			v.fail(p.Ref().String(), "", "reference target %s is a %s, expected a class", h.Target, target.Kind())
		}
		if p.Inverse != nil {
			inv, ok := v.model.Part(*p.Inverse).(*Reference)
			if !ok {
				v.fail(p.Ref().String(), "", "inverse %s is not a defined reference", p.Inverse)
			} else if inv.Target != owner {
				v.fail(p.Ref().String(), "", "inverse %s targets %s, expected %s", p.Inverse, inv.Target, owner)
			}
		}
	case *AssociationEnd:
		if target.Kind() != KindClass {
			v.fail(p.Ref().String(), "", "association end target %s is a %s, expected a class", h.Target, target.Kind())
		}
	}
}

func (v *validator) validateEnumeration(e *Enumeration) {
	names := make(map[string]bool, len(e.Classifiers))
	for _, c := range e.Classifiers {
		if c.Name == "" {
			v.fail(e.Ref().String(), "", "classifier without a name")
			continue
		}
		if names[c.Name] {
			v.fail(e.Ref().String()+"."+c.Name, "", "duplicate classifier")
		}
		names[c.Name] = true
	}
}
