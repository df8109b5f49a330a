package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/conduit-lang/schemadiff/internal/model"
)

func TestCompute_Identical(t *testing.T) {
	m := hrModel(t)

	assert.Empty(t, Compute(m, m))
	assert.Empty(t, Compute(m, m.Clone()))
	assert.Empty(t, Compute(model.NewModel(), model.NewModel()))
}

func TestCompute_MinimalReorder(t *testing.T) {
	left := hrModel(t)
	right := mutate(left, func(m *model.Model) {
		reorderParts(m.Class(person), "email", "name", "age", "manager")
	})

	got := Compute(left, right)

	assert.Equal(t, []Element{
		MoveStructuredTypePart{Owner: person, Name: "email", Before: "name"},
	}, got)
	assert.True(t, model.Equal(right, apply(t, left, got)))
}

func TestCompute_CompatibleFlagChange(t *testing.T) {
	left := hrModel(t)
	right := mutate(left, func(m *model.Model) {
		m.Class(person).Part("age").Header().Mandatory = true
	})

	got := Compute(left, right)

	assert.Equal(t, []Element{
		UpdateMandatory{Part: model.PartRef{Owner: person, Name: "age"}, Mandatory: true},
	}, got)
}

func TestCompute_IncompatibleRetypeRecreatesInverse(t *testing.T) {
	left := hrModel(t)
	right := mutate(left, retargetManager)

	got := Compute(left, right)

	assert.Equal(t, []Element{
		Delete{Name: model.QName{Module: "hr", Type: "Person", Member: "manager"}, Subject: SubjectPart},
		CreateStructuredTypePart{Part: right.Class(employee).Part("reports").ClonePart(), Before: "badge"},
		CreateStructuredTypePart{Part: right.Class(person).Part("manager").ClonePart()},
	}, got)
	assert.True(t, model.Equal(right, apply(t, left, got)))
}

func TestCompute_InverseOwnerReordered(t *testing.T) {
	left := hrModel(t)
	right := mutate(left, func(m *model.Model) {
		retargetManager(m)
		reorderParts(m.Class(employee), "badge", "reports")
	})

	got := Compute(left, right)

	assert.Equal(t, []Element{
		MoveStructuredTypePart{Owner: employee, Name: "badge", Before: "reports"},
		Delete{Name: model.QName{Module: "hr", Type: "Person", Member: "manager"}, Subject: SubjectPart},
		CreateStructuredTypePart{Part: right.Class(employee).Part("reports").ClonePart()},
		CreateStructuredTypePart{Part: right.Class(person).Part("manager").ClonePart()},
	}, got)
	assert.True(t, model.Equal(right, apply(t, left, got)))
}

func TestCompute_InverseOwnerGainsPart(t *testing.T) {
	left := hrModel(t)
	level := &model.Property{PartHeader: model.PartHeader{Name: "level", Owner: employee, Target: integer}}
	right := mutate(left, func(m *model.Model) {
		retargetManager(m)
		e := m.Class(employee)
		e.Parts = append(e.Parts, level.ClonePart())
	})

	got := Compute(left, right)

	assert.Equal(t, []Element{
		CreateStructuredTypePart{Part: level},
		Delete{Name: model.QName{Module: "hr", Type: "Person", Member: "manager"}, Subject: SubjectPart},
		CreateStructuredTypePart{Part: right.Class(employee).Part("reports").ClonePart(), Before: "badge"},
		CreateStructuredTypePart{Part: right.Class(person).Part("manager").ClonePart()},
	}, got)
	assert.Equal(t, []string{"reports", "badge", "level"}, apply(t, left, got).Class(employee).PartNames())
	assert.True(t, model.Equal(right, apply(t, left, got)))
}

func TestCompute_SelfAssociationRetype(t *testing.T) {
	node := model.TypeRef{Module: "hr", Name: "Node"}
	other := model.TypeRef{Module: "hr", Name: "Other"}

	b := hrBuilder()
	hr := b.Module("hr")
	hr.Class("Other").Property("name", "hr.String")
	hr.Class("Node").
		Reference("parent", "hr.Node").Inverse("hr.Node.children").End().
		Reference("children", "hr.Node").Multiple()
	left, err := b.Build()
	require.NoError(t, err)

	retarget := func(m *model.Model) {
		ref := m.Class(node).Part("parent").(*model.Reference)
		ref.Target = other
		ref.Inverse = nil
	}

	t.Run("same order", func(t *testing.T) {
		right := mutate(left, retarget)

		core, logs := observer.New(zapcore.WarnLevel)
		got := New(WithLogger(zap.New(core))).Compute(left, right)

		assert.Equal(t, []Element{
			Delete{Name: model.QName{Module: "hr", Type: "Node", Member: "parent"}, Subject: SubjectPart},
			CreateStructuredTypePart{Part: right.Class(node).Part("children").ClonePart()},
			CreateStructuredTypePart{Part: right.Class(node).Part("parent").ClonePart(), Before: "children"},
		}, got)
		assert.Zero(t, logs.Len())
		assert.True(t, model.Equal(right, apply(t, left, got)))
	})

	t.Run("reordered", func(t *testing.T) {
		right := mutate(left, func(m *model.Model) {
			retarget(m)
			reorderParts(m.Class(node), "children", "parent")
		})

		got := Compute(left, right)

		assert.True(t, model.Equal(right, apply(t, left, got)))
	})

	t.Run("inverse dropped", func(t *testing.T) {
		right := mutate(left, func(m *model.Model) {
			retarget(m)
			reorderParts(m.Class(node), "parent")
		})

		got := Compute(left, right)

		assert.Equal(t, []Element{
			Delete{Name: model.QName{Module: "hr", Type: "Node", Member: "children"}, Subject: SubjectPart},
			Delete{Name: model.QName{Module: "hr", Type: "Node", Member: "parent"}, Subject: SubjectPart},
			CreateStructuredTypePart{Part: right.Class(node).Part("parent").ClonePart()},
		}, got)
		assert.True(t, model.Equal(right, apply(t, left, got)))
	})
}

func TestCompute_ForwardOwnerSortsAfterInverseOwner(t *testing.T) {
	alpha := model.TypeRef{Module: "hr", Name: "Alpha"}
	zeta := model.TypeRef{Module: "hr", Name: "Zeta"}

	b := hrBuilder()
	hr := b.Module("hr")
	hr.Class("Alpha").
		Reference("items", "hr.Zeta").Multiple().End().
		Property("name", "hr.String")
	hr.Class("Zeta").
		Reference("owner", "hr.Alpha").Inverse("hr.Alpha.items")
	left, err := b.Build()
	require.NoError(t, err)

	size := &model.Property{PartHeader: model.PartHeader{Name: "size", Owner: alpha, Target: integer}}
	right := mutate(left, func(m *model.Model) {
		a := m.Class(alpha)
		reorderParts(a, "name", "items")
		a.Parts = append(a.Parts, size.ClonePart())

		ref := m.Class(zeta).Part("owner").(*model.Reference)
		ref.Target = person
		ref.Inverse = nil
	})

	got := Compute(left, right)

	assert.Equal(t, []Element{
		CreateStructuredTypePart{Part: size},
		MoveStructuredTypePart{Owner: alpha, Name: "name", Before: "items"},
		Delete{Name: model.QName{Module: "hr", Type: "Zeta", Member: "owner"}, Subject: SubjectPart},
		CreateStructuredTypePart{Part: right.Class(alpha).Part("items").ClonePart(), Before: "size"},
		CreateStructuredTypePart{Part: right.Class(zeta).Part("owner").ClonePart()},
	}, got)
	assert.True(t, model.Equal(right, apply(t, left, got)))

	back := Compute(right, left)
	assert.True(t, model.Equal(left, apply(t, right, back)))
}

func TestCompute_AssociationKindChange(t *testing.T) {
	b := hrBuilder()
	b.Module("hr").Association("Employment").
		Connect("employer", "hr.Employee", false).
		Connect("staff", "hr.Person", true)
	left, err := b.Build()
	require.NoError(t, err)

	employment := model.TypeRef{Module: "hr", Name: "Employment"}
	right := mutate(left, func(m *model.Model) {
		m.Modules["hr"].Add(&model.Class{
			TypeHeader: model.TypeHeader{Name: "Employment"},
			Parts: []model.Part{&model.Property{
				PartHeader: model.PartHeader{Name: "since", Target: model.TypeRef{Module: "hr", Name: "String"}},
			}},
		})
	})
	require.NoError(t, model.Validate(right))

	t.Run("association to class", func(t *testing.T) {
		got := Compute(left, right)

		assert.Equal(t, []Element{
			Delete{Name: employment.QName(), Subject: SubjectType},
			CreateType{Type: right.Type(employment).CloneType()},
		}, got)
		assert.True(t, model.Equal(right, apply(t, left, got)))
	})

	t.Run("class to association", func(t *testing.T) {
		got := Compute(right, left)

		assert.Equal(t, []Op{OpDelete, OpCreateType}, ops(got))
		assert.True(t, model.Equal(left, apply(t, right, got)))
	})
}

func TestCompute_BothSidesOfAssociationDeleted(t *testing.T) {
	left := hrModel(t)
	right := mutate(left, func(m *model.Model) {
		reorderParts(m.Class(person), "name", "age", "email")
		reorderParts(m.Class(employee), "badge")
	})

	got := Compute(left, right)

	assert.Equal(t, []Element{
		Delete{Name: model.QName{Module: "hr", Type: "Employee", Member: "reports"}, Subject: SubjectPart},
		Delete{Name: model.QName{Module: "hr", Type: "Person", Member: "manager"}, Subject: SubjectPart},
	}, got)
	assert.True(t, model.Equal(right, apply(t, left, got)))
}

func TestCompute_BatchedAnnotations(t *testing.T) {
	b := hrBuilder()
	b.Module("hr").Class("Badge").Annotate("Visibility", map[string]any{"value": "public"})
	left, err := b.Build()
	require.NoError(t, err)

	badge := model.TypeRef{Module: "hr", Name: "Badge"}
	right := mutate(left, func(m *model.Model) {
		m.Class(badge).Annotations = model.Annotations{
			"Visibility": {Kind: "Visibility", Values: map[string]any{"value": "hidden"}},
			"Searchable": {Kind: "Searchable", Values: map[string]any{"value": true}},
		}
	})

	got := Compute(left, right)

	assert.Equal(t, []Element{
		RemoveAnnotation{Element: badge.QName(), Kind: "Visibility"},
		AddAnnotations{Element: badge.QName(), Annotations: []model.Annotation{
			{Kind: "Visibility", Values: map[string]any{"value": "hidden"}},
			{Kind: "Searchable", Values: map[string]any{"value": true}},
		}},
	}, got)
	assert.True(t, model.Equal(right, apply(t, left, got)))
}

func TestCompute_ClassifierInsertion(t *testing.T) {
	left := hrModel(t)
	right := mutate(left, func(m *model.Model) {
		enum := m.Type(color).(*model.Enumeration)
		enum.Classifiers = []model.Classifier{{Name: "RED"}, {Name: "GREEN"}, {Name: "YELLOW"}, {Name: "BLUE"}}
	})

	got := Compute(left, right)

	assert.Equal(t, []Element{
		CreateClassifier{Enumeration: color, Classifier: model.Classifier{Name: "YELLOW"}, Before: "BLUE"},
	}, got)
}

func TestCompute_Classifiers(t *testing.T) {
	left := hrModel(t)
	right := mutate(left, func(m *model.Model) {
		enum := m.Type(color).(*model.Enumeration)
		enum.Classifiers = []model.Classifier{
			{Name: "BLUE", Annotations: model.Annotations{"Hex": {Kind: "Hex", Values: map[string]any{"value": "#00f"}}}},
			{Name: "RED"},
		}
	})

	got := Compute(left, right)

	assert.Equal(t, []Op{OpDelete, OpMoveClassifier, OpAddAnnotations}, ops(got))
	assert.Equal(t, Delete{Name: color.QName().Child("GREEN"), Subject: SubjectClassifier}, got[0])
	assert.Equal(t, MoveClassifier{Enumeration: color, Name: "BLUE", Before: "RED"}, got[1])
	assert.True(t, model.Equal(right, apply(t, left, got)))
}

func TestCompute_Generalizations(t *testing.T) {
	b := hrBuilder()
	hr := b.Module("hr")
	hr.Class("Auditable")
	hr.Class("Payable")
	hr.Class("Intern").Extends("hr.Person", "hr.Auditable", "hr.Payable")
	left, err := b.Build()
	require.NoError(t, err)

	intern := model.TypeRef{Module: "hr", Name: "Intern"}
	auditable := model.TypeRef{Module: "hr", Name: "Auditable"}
	payable := model.TypeRef{Module: "hr", Name: "Payable"}

	t.Run("move", func(t *testing.T) {
		right := mutate(left, func(m *model.Model) {
			m.Class(intern).Generalizations = []model.TypeRef{auditable, person, payable}
		})

		got := Compute(left, right)

		assert.Equal(t, []Element{
			MoveGeneralization{Class: intern, Super: auditable, Before: person},
		}, got)
		assert.True(t, model.Equal(right, apply(t, left, got)))
	})

	t.Run("remove and add", func(t *testing.T) {
		right := mutate(left, func(m *model.Model) {
			m.Class(intern).Generalizations = []model.TypeRef{employee, person, payable}
		})

		got := Compute(left, right)

		assert.Equal(t, []Element{
			RemoveGeneralization{Class: intern, Super: auditable},
			AddGeneralization{Class: intern, Super: employee, Before: person},
		}, got)
		assert.True(t, model.Equal(right, apply(t, left, got)))
	})
}

func TestCompute_AbstractFlip(t *testing.T) {
	left := hrModel(t)
	abstract := mutate(left, func(m *model.Model) { m.Class(contractor).Abstract = true })

	assert.Equal(t, []Element{MakeAbstract{Class: contractor}}, Compute(left, abstract))
	assert.Equal(t, []Element{MakeConcrete{Class: contractor}}, Compute(abstract, left))
}

func TestCompute_PrimitiveFacetsRecreateDependents(t *testing.T) {
	left := hrModel(t)
	right := mutate(left, func(m *model.Model) {
		m.Type(integer).(*model.Primitive).Facets.Precision = 12
	})

	got := Compute(left, right)

	assert.Equal(t, []Op{
		OpDelete, OpCreateStructuredTypePart, // Employee.badge
		OpDelete, OpCreateType, // Integer
		OpDelete, OpCreateStructuredTypePart, // Person.age
	}, ops(got))
	assert.Equal(t, CreateStructuredTypePart{
		Part:   right.Class(person).Part("age").ClonePart(),
		Before: "email",
	}, got[5])
	assert.True(t, model.Equal(right, apply(t, left, got)))
}

func TestCompute_KindChange(t *testing.T) {
	left := hrModel(t)
	right := mutate(left, func(m *model.Model) {
		m.Modules["hr"].Add(&model.Class{TypeHeader: model.TypeHeader{Name: "Color"}})
	})

	got := Compute(left, right)

	assert.Equal(t, []Element{
		Delete{Name: color.QName(), Subject: SubjectType},
		CreateType{Type: right.Type(color).CloneType()},
	}, got)
}

func TestCompute_SingletonsAndRoles(t *testing.T) {
	left := hrModel(t)
	right := mutate(left, func(m *model.Model) {
		hr := m.Modules["hr"]
		hr.Singletons["ceo"] = model.Singleton{Name: "ceo", Type: person}
		hr.Singletons["board"] = model.Singleton{Name: "board", Type: person}
		hr.Roles["admin"] = model.Role{Name: "admin", Config: map[string]any{"level": 2.0}}
		hr.Roles["auditor"] = model.Role{Name: "auditor"}
	})

	got := Compute(left, right)

	assert.Equal(t, []Element{
		CreateSingleton{Module: "hr", Singleton: model.Singleton{Name: "board", Type: person}},
		Delete{Name: model.QName{Module: "hr", Type: "ceo"}, Subject: SubjectSingleton},
		CreateSingleton{Module: "hr", Singleton: model.Singleton{Name: "ceo", Type: person}},
		CreateRole{Module: "hr", Role: model.Role{Name: "auditor"}},
		DeleteRole{Module: "hr", Name: "admin"},
		CreateRole{Module: "hr", Role: model.Role{Name: "admin", Config: map[string]any{"level": 2.0}}},
	}, got)
	assert.True(t, model.Equal(right, apply(t, left, got)))
}

func TestCompute_EmptyRoleConfigs(t *testing.T) {
	left := hrModel(t)
	left.Modules["hr"].Roles["viewer"] = model.Role{Name: "viewer"}
	right := mutate(left, func(m *model.Model) {
		m.Modules["hr"].Roles["viewer"] = model.Role{Name: "viewer", Config: map[string]any{}}
	})

	assert.Empty(t, Compute(left, right))
}

func TestCompute_Modules(t *testing.T) {
	base := hrModel(t)
	invoice := model.TypeRef{Module: "billing", Name: "Invoice"}

	withBilling := mutate(base, func(m *model.Model) {
		billing := model.NewModule("billing")
		billing.Add(&model.Class{
			TypeHeader: model.TypeHeader{Name: "Invoice"},
			Parts: []model.Part{
				&model.Reference{
					PartHeader: model.PartHeader{Name: "customer", Target: person},
					Inverse:    &model.PartRef{Owner: person, Name: "invoices"},
				},
			},
		})
		m.Modules["billing"] = billing

		p := m.Class(person)
		p.Parts = append(p.Parts, &model.Reference{
			PartHeader: model.PartHeader{Name: "invoices", Owner: person, Target: invoice},
			Multiple:   true,
		})
	})
	require.NoError(t, model.Validate(withBilling))

	t.Run("create", func(t *testing.T) {
		right := mutate(base, func(m *model.Model) {
			m.Modules["audit"] = model.NewModule("audit")
		})

		got := Compute(base, right)

		require.Len(t, got, 1)
		assert.Equal(t, model.NewModule("audit"), got[0].(CreateModule).Module)
		assert.True(t, model.Equal(right, apply(t, base, got)))
	})

	t.Run("delete cascades inverse", func(t *testing.T) {
		got := Compute(withBilling, base)

		assert.Equal(t, []Element{
			Delete{Name: model.QName{Module: "billing"}, Subject: SubjectModule},
		}, got)
		assert.True(t, model.Equal(base, apply(t, withBilling, got)))
	})
}

func TestCompute_TypeDeleteCascadesInverse(t *testing.T) {
	b := hrBuilder()
	hr := b.Module("hr")
	hr.Class("Mentor").
		Property("name", "hr.String").End().
		Reference("interns", "hr.Intern").Multiple()
	hr.Class("Intern").
		Reference("mentor", "hr.Mentor").Inverse("hr.Mentor.interns")
	left, err := b.Build()
	require.NoError(t, err)

	right := mutate(left, func(m *model.Model) {
		delete(m.Modules["hr"].Types, "Intern")
		reorderParts(m.Class(model.TypeRef{Module: "hr", Name: "Mentor"}), "name")
	})
	require.NoError(t, model.Validate(right))

	got := Compute(left, right)

	assert.Equal(t, []Element{
		Delete{Name: model.QName{Module: "hr", Type: "Intern"}, Subject: SubjectType},
	}, got)
	assert.True(t, model.Equal(right, apply(t, left, got)))
}

func TestCompute_AssociationsAreIgnored(t *testing.T) {
	b := hrBuilder()
	b.Module("hr").Association("Employment").
		Connect("employer", "hr.Employee", false).
		Connect("staff", "hr.Person", true)
	left, err := b.Build()
	require.NoError(t, err)

	right := mutate(left, func(m *model.Model) {
		delete(m.Modules["hr"].Types, "Employment")
	})

	assert.Empty(t, Compute(left, right))
}

func TestCompute_RoundTrip(t *testing.T) {
	left := hrModel(t)
	right := mutate(left, func(m *model.Model) {
		hr := m.Modules["hr"]

		p := m.Class(person)
		reorderParts(p, "email", "name", "age", "manager")
		p.Part("age").Header().Mandatory = true
		p.Part("email").Header().Annotations = model.Annotations{
			"Searchable": {Kind: "Searchable", Values: map[string]any{"enabled": true}},
		}
		retargetManager(m)

		enum := m.Type(color).(*model.Enumeration)
		enum.Classifiers = []model.Classifier{{Name: "GREEN"}, {Name: "YELLOW"}, {Name: "BLUE"}, {Name: "RED"}}

		auditable := &model.Class{TypeHeader: model.TypeHeader{Name: "Auditable"}}
		auditable.Parts = []model.Part{&model.Property{
			PartHeader: model.PartHeader{Name: "auditedAt", Target: model.TypeRef{Module: "hr", Name: "String"}},
		}}
		hr.Add(auditable)
		m.Class(employee).Generalizations = []model.TypeRef{auditable.Ref(), person}

		m.Class(contractor).Abstract = true
		m.Type(integer).(*model.Primitive).Facets.Precision = 12

		hr.Singletons["ceo"] = model.Singleton{Name: "ceo", Type: person}
		hr.Roles["admin"] = model.Role{Name: "admin", Config: map[string]any{"level": 2.0}}
		hr.Roles["auditor"] = model.Role{Name: "auditor"}

		billing := model.NewModule("billing")
		billing.Add(&model.Class{
			TypeHeader: model.TypeHeader{Name: "Invoice"},
			Parts: []model.Part{&model.Reference{
				PartHeader: model.PartHeader{Name: "owner", Target: person},
			}},
		})
		m.Modules["billing"] = billing
	})
	require.NoError(t, model.Validate(right))

	leftCopy, rightCopy := left.Clone(), right.Clone()
	got := Compute(left, right)

	assert.True(t, model.Equal(right, apply(t, left, got)))
	assert.True(t, model.Equal(leftCopy, left), "left snapshot modified")
	assert.True(t, model.Equal(rightCopy, right), "right snapshot modified")

	// the patch owns its definitions
	for _, e := range got {
		if c, ok := e.(CreateStructuredTypePart); ok {
			c.Part.Header().Mandatory = !c.Part.Header().Mandatory
		}
	}
	assert.True(t, model.Equal(rightCopy, right), "patch shares memory with right snapshot")

	// and the reverse patch undoes it
	back := Compute(right, left)
	assert.True(t, model.Equal(left, apply(t, right, back)))
}

func TestCompute_Deterministic(t *testing.T) {
	left := hrModel(t)
	right := mutate(left, func(m *model.Model) {
		retargetManager(m)
		m.Class(contractor).Abstract = true
		m.Modules["a"] = model.NewModule("a")
		m.Modules["b"] = model.NewModule("b")
	})

	first := Compute(left, right)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Compute(left, right))
	}
}

func TestCompute_CustomAnnotationEquality(t *testing.T) {
	b := hrBuilder()
	b.Module("hr").Class("Report").Annotate("Audit", map[string]any{"owner": "ops", "updatedAt": "2024-01-01"})
	left, err := b.Build()
	require.NoError(t, err)

	report := model.TypeRef{Module: "hr", Name: "Report"}
	right := mutate(left, func(m *model.Model) {
		m.Class(report).Annotations["Audit"] = model.Annotation{
			Kind:   "Audit",
			Values: map[string]any{"owner": "ops", "updatedAt": "2025-06-30"},
		}
	})

	assert.Len(t, Compute(left, right), 2)

	eq := NewAnnotationEquality()
	require.NoError(t, eq.Register("Audit", IgnoreKeys("updatedAt")))
	assert.Empty(t, New(WithAnnotationEquality(eq)).Compute(left, right))
}

func TestCompute_UnreachableInverseWarns(t *testing.T) {
	left := mutate(hrModel(t), func(m *model.Model) {
		m.Class(person).Part("manager").(*model.Reference).Inverse = &model.PartRef{Owner: employee, Name: "ghost"}
	})
	right := mutate(left, retargetManager)

	core, logs := observer.New(zapcore.DebugLevel)
	got := New(WithLogger(zap.New(core))).Compute(left, right)

	assert.Equal(t, []Op{OpDelete, OpCreateStructuredTypePart}, ops(got))
	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "unreachable: inverse reference not found in left model", warnings[0].Message)
}

func TestCompute_ElementTargets(t *testing.T) {
	left := hrModel(t)
	right := mutate(left, retargetManager)

	got := Compute(left, right)

	require.Len(t, got, 3)
	assert.Equal(t, "hr.Person.manager", got[0].Target().String())
	assert.Equal(t, "hr.Employee.reports", got[1].Target().String())
	assert.Equal(t, "hr.Person.manager", got[2].Target().String())
}
