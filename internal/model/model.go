package model

import (
	"sort"
)

// Model is the root of a snapshot
type Model struct {
	Modules map[string]*Module
}

// NewModel creates an empty model
func NewModel() *Model {
	return &Model{Modules: make(map[string]*Module)}
}

// Module is a named container of types plus singleton and role bindings
type Module struct {
	Name       string
	Types      map[string]Type
	Singletons map[string]Singleton
	Roles      map[string]Role
}

// NewModule creates an empty module
func NewModule(name string) *Module {
	return &Module{
		Name:       name,
		Types:      make(map[string]Type),
		Singletons: make(map[string]Singleton),
		Roles:      make(map[string]Role),
	}
}

// Module returns the named module or nil
func (m *Model) Module(name string) *Module {
	if m == nil {
		return nil
	}
	return m.Modules[name]
}

// Type resolves a type reference, returning nil when it dangles
func (m *Model) Type(ref TypeRef) Type {
	mod := m.Module(ref.Module)
	if mod == nil {
		return nil
	}
	return mod.Types[ref.Name]
}

// Class resolves a reference to a class, returning nil for other kinds
func (m *Model) Class(ref TypeRef) *Class {
	c, _ := m.Type(ref).(*Class)
	return c
}

// Part resolves a part reference against class parts and association ends
func (m *Model) Part(ref PartRef) Part {
	switch t := m.Type(ref.Owner).(type) {
	case *Class:
		return t.Part(ref.Name)
	case *Association:
		for _, e := range t.Ends {
			if e.Name == ref.Name {
				return e
			}
		}
	}
	return nil
}

// ModuleNames returns the module names in sorted order
func (m *Model) ModuleNames() []string {
	names := make([]string, 0, len(m.Modules))
	for name := range m.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the model
func (m *Model) Clone() *Model {
	out := NewModel()
	for name, mod := range m.Modules {
		out.Modules[name] = mod.Clone()
	}
	return out
}

// Add registers a type in the module and stamps the module name into its header and
// into the owner of its parts.
func (mod *Module) Add(t Type) {
	h := t.Header()
	h.Module = mod.Name
	switch v := t.(type) {
	case *Class:
		for _, p := range v.Parts {
			p.Header().Owner = h.Ref()
		}
	case *Association:
		for _, e := range v.Ends {
			e.Owner = h.Ref()
		}
	}
	mod.Types[h.Name] = t
}

// TypeNames returns the type names of the module in sorted order
func (mod *Module) TypeNames() []string {
	names := make([]string, 0, len(mod.Types))
	for name := range mod.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the module
func (mod *Module) Clone() *Module {
	out := NewModule(mod.Name)
	for name, t := range mod.Types {
		out.Types[name] = t.CloneType()
	}
	for name, s := range mod.Singletons {
		out.Singletons[name] = s
	}
	for name, r := range mod.Roles {
		out.Roles[name] = r.Clone()
	}
	return out
}
