package diff

import (
	"go.uber.org/zap"

	"github.com/conduit-lang/schemadiff/internal/model"
)

// partEqual reports whether a matched part needs no operation at all
func (r *run) partEqual(left, right model.Part) bool {
	return r.compatible(left, right) &&
		left.Header().Mandatory == right.Header().Mandatory &&
		r.annotationsEqual(left.Header().Annotations, right.Header().Annotations)
}

// compatible decides whether a part can be updated in place or has to be recreated
func (r *run) compatible(left, right model.Part) bool {
	if left.Kind() != right.Kind() {
		return false
	}
	lh, rh := left.Header(), right.Header()
	return storageEqual(lh.Storage, rh.Storage) &&
		r.valueTypeCompatible(lh.Target, rh.Target) &&
		kindFlagsEqual(left, right)
}

func (r *run) valueTypeCompatible(left, right model.TypeRef) bool {
	if left != right {
		return false
	}
	lt, rt := r.left.Type(left), r.right.Type(right)
	if lt == nil || rt == nil || lt.Kind() != rt.Kind() {
		return false
	}

	switch lt := lt.(type) {
	case *model.Primitive:
		return lt.Facets == rt.(*model.Primitive).Facets
	case *model.Enumeration, *model.Class:
		// member differences are handled by the type-level diff
		return true
	case *model.Association:
		r.logger.Warn("unreachable: association used as a value type",
			zap.String("type", left.String()))
		return false
	}
	return false
}

func kindFlagsEqual(left, right model.Part) bool {
	switch l := left.(type) {
	case *model.Property:
		rt := right.(*model.Property)
		return l.Derived == rt.Derived && l.Multiple == rt.Multiple && l.Ordered == rt.Ordered
	case *model.Reference:
		rt := right.(*model.Reference)
		return l.Derived == rt.Derived && l.Multiple == rt.Multiple && l.Ordered == rt.Ordered &&
			l.Bag == rt.Bag && inverseEqual(l.Inverse, rt.Inverse)
	case *model.AssociationEnd:
		rt := right.(*model.AssociationEnd)
		return l.Multiple == rt.Multiple && l.Ordered == rt.Ordered
	}
	return false
}

func inverseEqual(a, b *model.PartRef) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func storageEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

// patchPart translates one list edit of a class's local parts
func (r *run) patchPart(op ListOp[model.Part]) {
	switch op.Kind {
	case ListCreate:
		r.createPart(op.Right, op.Before)
		return
	case ListDelete:
		if !r.placed(op.Left.Ref()) {
			return
		}
		r.emit(r.deletePart(op.Left)...)
		return
	}

	ref := op.Left.Ref()
	if r.handled[ref] {
		// recreated from its right definition, only the position can be off
		if op.Kind == ListMove {
			r.movePart(ref, op.Before)
		}
		return
	}

	if !r.compatible(op.Left, op.Right) {
		r.emit(r.deletePart(op.Left)...)
		r.createPart(op.Right, op.Before)
		return
	}

	if op.Kind == ListMove {
		r.movePart(ref, op.Before)
	}
	if lm, rm := op.Left.Header().Mandatory, op.Right.Header().Mandatory; lm != rm {
		r.emit(UpdateMandatory{Part: ref, Mandatory: rm})
	}
	r.diffAnnotations(ref.QName(), op.Left.Header().Annotations, op.Right.Header().Annotations)
}

func (r *run) createPart(p model.Part, before string) {
	r.emit(CreateStructuredTypePart{Part: p.ClonePart(), Before: before})
	r.place(p, before)
}

func (r *run) movePart(ref model.PartRef, before string) {
	r.emit(MoveStructuredTypePart{Owner: ref.Owner, Name: ref.Name, Before: before})
	r.move(ref, before)
}

// deletePart returns the Delete for a part followed by the recreation of an inverse
// reference that goes away with it.
func (r *run) deletePart(p model.Part) []Element {
	ref := p.Ref()
	r.take(ref)
	out := []Element{Delete{Name: ref.QName(), Subject: SubjectPart}}
	if fwd, ok := p.(*model.Reference); ok {
		out = append(out, r.cascade(fwd)...)
	}
	return out
}

// cascade handles the inverse of a deleted reference. The target model destroys the
// association together with the forward reference, taking the inverse with it. When the
// right model still defines the inverse it is recreated from that definition in the slot
// it held, so its owner's order is the same whether that owner was diffed already or not.
// Recreated inverses are marked handled; their owner's diff at most moves them.
func (r *run) cascade(fwd *model.Reference) []Element {
	if fwd.Inverse == nil {
		return nil
	}
	inv := *fwd.Inverse
	if r.deletedTypes[inv.Owner] {
		return nil
	}

	if leftOwner := r.left.Class(inv.Owner); leftOwner == nil || leftOwner.Part(inv.Name) == nil {
		r.logger.Warn("unreachable: inverse reference not found in left model",
			zap.String("part", fwd.Ref().String()),
			zap.String("inverse", inv.String()))
		return nil
	}

	next, ok := r.take(inv)
	if !ok {
		// deleted earlier in the patch
		return nil
	}

	rightOwner := r.right.Class(inv.Owner)
	if rightOwner == nil {
		return nil
	}
	def := rightOwner.Part(inv.Name)
	if def == nil {
		return nil
	}

	r.handled[inv] = true
	r.place(def, next)
	r.logger.Debug("recreating inverse reference",
		zap.String("part", inv.String()),
		zap.String("before", next))
	return []Element{CreateStructuredTypePart{Part: def.ClonePart(), Before: next}}
}
