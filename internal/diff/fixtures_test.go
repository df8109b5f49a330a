package diff

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/schemadiff/internal/model"
)

var (
	person     = model.TypeRef{Module: "hr", Name: "Person"}
	employee   = model.TypeRef{Module: "hr", Name: "Employee"}
	contractor = model.TypeRef{Module: "hr", Name: "Contractor"}
	color      = model.TypeRef{Module: "hr", Name: "Color"}
	integer    = model.TypeRef{Module: "hr", Name: "Integer"}
)

// hrBuilder describes a small staffing model. Person.manager is the forward side of
// the manager/reports association.
func hrBuilder() *model.Builder {
	b := model.NewBuilder()
	hr := b.Module("hr")
	hr.Primitive("String", model.Facets{Size: 255, StorageKind: "varchar"})
	hr.Primitive("Integer", model.Facets{Precision: 10, StorageKind: "int"})
	hr.Enumeration("Color", "RED", "GREEN", "BLUE")

	p := hr.Class("Person")
	p.Property("name", "hr.String").Mandatory()
	p.Property("age", "hr.Integer")
	p.Property("email", "hr.String")
	p.Reference("manager", "hr.Employee").Inverse("hr.Employee.reports")

	hr.Class("Employee").Extends("hr.Person").
		Reference("reports", "hr.Person").Multiple().End().
		Property("badge", "hr.Integer")

	hr.Class("Contractor").Extends("hr.Person").
		Property("agency", "hr.String")

	hr.Singleton("ceo", "hr.Employee").
		Role("admin", map[string]any{"level": 1.0})
	return b
}

func hrModel(t *testing.T) *model.Model {
	t.Helper()
	m, err := hrBuilder().Build()
	require.NoError(t, err)
	return m
}

// mutate returns a changed copy of m
func mutate(m *model.Model, fn func(*model.Model)) *model.Model {
	out := m.Clone()
	fn(out)
	return out
}

func reorderParts(c *model.Class, names ...string) {
	parts := make([]model.Part, 0, len(names))
	for _, n := range names {
		parts = append(parts, c.Part(n))
	}
	c.Parts = parts
}

// retargetManager points Person.manager at Contractor and drops its inverse
func retargetManager(m *model.Model) {
	ref := m.Class(person).Part("manager").(*model.Reference)
	ref.Target = contractor
	ref.Inverse = nil
}

func ops(elems []Element) []Op {
	out := make([]Op, len(elems))
	for i, e := range elems {
		out[i] = e.Op()
	}
	return out
}
