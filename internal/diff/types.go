package diff

import "github.com/conduit-lang/schemadiff/internal/model"

// diffType dispatches a matched type pair to the patcher for its kind
func (r *run) diffType(left, right model.Type) {
	if left.Kind() != right.Kind() {
		r.deleteType(left)
		r.createType(right)
		return
	}

	switch l := left.(type) {
	case *model.Class:
		r.diffClass(l, right.(*model.Class))
	case *model.Enumeration:
		r.diffEnumeration(l, right.(*model.Enumeration))
	case *model.Primitive:
		r.diffPrimitive(l, right.(*model.Primitive))
	case *model.Association:
		// observed through the references pointing at it
	}
}

// deleteType emits the deletion of a type together with the cascades of its references
func (r *run) deleteType(t model.Type) {
	r.emit(Delete{Name: t.Ref().QName(), Subject: SubjectType})
	r.deletedTypes[t.Ref()] = true
	r.cascadeType(t)
}

// cascadeType recreates the inverses lost with the references of a deleted class.
// The type must already be marked deleted.
func (r *run) cascadeType(t model.Type) {
	if _, ok := t.(*model.Class); !ok {
		return
	}
	parts := r.layout(t.Ref())
	r.parts[t.Ref()] = nil
	for _, p := range parts {
		if ref, ok := p.(*model.Reference); ok {
			r.emit(r.cascade(ref)...)
		}
	}
}

func (r *run) createType(t model.Type) {
	r.emit(CreateType{Type: t.CloneType()})
	if c, ok := t.(*model.Class); ok {
		r.parts[c.Ref()] = append([]model.Part(nil), c.Parts...)
	}
	delete(r.deletedTypes, t.Ref())
}

func (r *run) diffPrimitive(left, right *model.Primitive) {
	if left.Facets != right.Facets {
		r.emit(
			Delete{Name: left.Ref().QName(), Subject: SubjectType},
			CreateType{Type: right.CloneType()},
		)
		return
	}
	r.diffAnnotations(left.Ref().QName(), left.Annotations, right.Annotations)
}

func (r *run) diffEnumeration(left, right *model.Enumeration) {
	enum := left.Ref()
	r.diffAnnotations(enum.QName(), left.Annotations, right.Annotations)

	ops := DiffLists(left.Classifiers, right.Classifiers,
		func(c model.Classifier) string { return c.Name },
		func(l, rt model.Classifier) bool { return r.annotationsEqual(l.Annotations, rt.Annotations) },
	)

	for _, op := range ops {
		switch op.Kind {
		case ListCreate:
			r.emit(CreateClassifier{Enumeration: enum, Classifier: op.Right.Clone(), Before: op.Before})
		case ListDelete:
			r.emit(Delete{Name: enum.QName().Child(op.Left.Name), Subject: SubjectClassifier})
		case ListMove:
			r.emit(MoveClassifier{Enumeration: enum, Name: op.Right.Name, Before: op.Before})
			r.diffAnnotations(enum.QName().Child(op.Right.Name), op.Left.Annotations, op.Right.Annotations)
		case ListUpdate:
			r.diffAnnotations(enum.QName().Child(op.Right.Name), op.Left.Annotations, op.Right.Annotations)
		}
	}
}

func (r *run) diffClass(left, right *model.Class) {
	class := left.Ref()
	r.diffAnnotations(class.QName(), left.Annotations, right.Annotations)

	if left.Abstract != right.Abstract {
		if right.Abstract {
			r.emit(MakeAbstract{Class: class})
		} else {
			r.emit(MakeConcrete{Class: class})
		}
	}

	parts := DiffLists(r.layout(class), right.Parts, model.Part.PartName,
		func(l, rt model.Part) bool { return r.handled[l.Ref()] || r.partEqual(l, rt) },
	)
	for _, op := range parts {
		r.patchPart(op)
	}

	gens := DiffLists(left.Generalizations, right.Generalizations, model.TypeRef.String,
		func(l, rt model.TypeRef) bool { return true },
	)
	for _, op := range gens {
		switch op.Kind {
		case ListCreate:
			r.emit(AddGeneralization{Class: class, Super: op.Right, Before: op.Next})
		case ListDelete:
			r.emit(RemoveGeneralization{Class: class, Super: op.Left})
		case ListMove:
			r.emit(MoveGeneralization{Class: class, Super: op.Right, Before: op.Next})
		}
	}
}
