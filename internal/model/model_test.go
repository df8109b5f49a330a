package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shopModel(t *testing.T) *Model {
	t.Helper()
	b := NewBuilder()
	shop := b.Module("shop")
	shop.Primitive("Text", Facets{Size: 120})
	shop.Primitive("Money", Facets{Precision: 12, StorageKind: "decimal"})
	shop.Enumeration("Status", "OPEN", "PAID").
		AnnotateClassifier("PAID", "Label", map[string]any{"text": "Paid"})

	shop.Class("Entity").Abstract().
		Property("id", "shop.Text").Mandatory()
	shop.Class("Customer").Extends("shop.Entity").
		Property("name", "shop.Text").Storage("column", "full_name").End().
		Reference("orders", "shop.Order").Multiple().Ordered().Inverse("shop.Order.customer")
	shop.Class("Order").Extends("shop.Entity").
		Annotate("Table", map[string]any{"name": "orders"}).
		Reference("customer", "shop.Customer").Mandatory().End().
		Property("total", "shop.Money").End().
		Property("status", "shop.Status")
	shop.Association("Purchase").
		Connect("buyer", "shop.Customer", false).
		Connect("items", "shop.Order", true)
	shop.Singleton("store", "shop.Customer").
		Role("clerk", map[string]any{"canRefund": false})

	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestModel_Lookups(t *testing.T) {
	m := shopModel(t)
	order := TypeRef{Module: "shop", Name: "Order"}

	assert.NotNil(t, m.Module("shop"))
	assert.Nil(t, m.Module("missing"))
	assert.Equal(t, KindClass, m.Type(order).Kind())
	assert.Nil(t, m.Class(TypeRef{Module: "shop", Name: "Money"}))
	assert.Equal(t, []string{"customer", "total", "status"}, m.Class(order).PartNames())
	assert.Equal(t, 1, m.Class(order).PartIndex("total"))
	assert.Equal(t, -1, m.Class(order).PartIndex("missing"))

	ref := PartRef{Owner: TypeRef{Module: "shop", Name: "Customer"}, Name: "orders"}
	assert.Equal(t, ref, m.Part(ref).Ref())

	end := m.Part(PartRef{Owner: TypeRef{Module: "shop", Name: "Purchase"}, Name: "items"})
	require.NotNil(t, end)
	assert.Equal(t, PartAssociationEnd, end.Kind())

	assert.Equal(t, []string{"shop"}, m.ModuleNames())
	assert.Equal(t, []string{"Customer", "Entity", "Money", "Order", "Purchase", "Status", "Text"}, m.Modules["shop"].TypeNames())

	var nilModel *Model
	assert.Nil(t, nilModel.Module("shop"))
}

func TestModel_CloneIsIndependent(t *testing.T) {
	m := shopModel(t)
	clone := m.Clone()
	require.True(t, Equal(m, clone))

	order := TypeRef{Module: "shop", Name: "Order"}
	clone.Class(order).Parts[0].Header().Mandatory = false
	clone.Class(order).Annotations["Table"].Values["name"] = "purchases"
	clone.Modules["shop"].Roles["clerk"].Config["canRefund"] = true

	assert.True(t, m.Class(order).Parts[0].Header().Mandatory)
	assert.Equal(t, "orders", m.Class(order).Annotations["Table"].Values["name"])
	assert.Equal(t, false, m.Modules["shop"].Roles["clerk"].Config["canRefund"])
	assert.False(t, Equal(m, clone))
}

func TestEqual(t *testing.T) {
	m := shopModel(t)

	t.Run("empty and nil collections", func(t *testing.T) {
		clone := m.Clone()
		entity := clone.Class(TypeRef{Module: "shop", Name: "Entity"})
		entity.Generalizations = []TypeRef{}
		entity.Annotations = Annotations{}
		entity.Parts[0].Header().Storage = map[string]string{}
		clone.Modules["shop"].Roles["viewer"] = Role{Name: "viewer", Config: map[string]any{}}

		withNil := m.Clone()
		withNil.Modules["shop"].Roles["viewer"] = Role{Name: "viewer"}

		assert.True(t, Equal(withNil, clone))
	})

	t.Run("part order matters", func(t *testing.T) {
		clone := m.Clone()
		order := clone.Class(TypeRef{Module: "shop", Name: "Order"})
		order.Parts[0], order.Parts[1] = order.Parts[1], order.Parts[0]

		assert.False(t, Equal(m, clone))
	})

	t.Run("classifier annotations", func(t *testing.T) {
		clone := m.Clone()
		status := clone.Type(TypeRef{Module: "shop", Name: "Status"}).(*Enumeration)
		status.Classifiers[1].Annotations = nil

		assert.False(t, Equal(m, clone))
	})

	t.Run("does not normalize the inputs", func(t *testing.T) {
		clone := m.Clone()
		clone.Class(TypeRef{Module: "shop", Name: "Entity"}).Annotations = Annotations{}
		Equal(m, clone)

		assert.NotNil(t, clone.Class(TypeRef{Module: "shop", Name: "Entity"}).Annotations)
	})
}

func TestModule_AddStampsOwners(t *testing.T) {
	mod := NewModule("crm")
	c := &Class{
		TypeHeader: TypeHeader{Name: "Lead"},
		Parts:      []Part{&Property{PartHeader: PartHeader{Name: "source"}}},
	}
	a := &Association{
		TypeHeader: TypeHeader{Name: "Referral"},
		Ends:       []*AssociationEnd{{PartHeader: PartHeader{Name: "from"}}},
	}

	mod.Add(c)
	mod.Add(a)

	assert.Equal(t, TypeRef{Module: "crm", Name: "Lead"}, c.Ref())
	assert.Equal(t, c.Ref(), c.Parts[0].Header().Owner)
	assert.Equal(t, a.Ref(), a.Ends[0].Owner)
}
