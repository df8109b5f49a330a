package diff

import (
	"go.uber.org/zap"

	"github.com/conduit-lang/schemadiff/internal/model"
)

// layout returns the parts of a class in the order they have at the current point of
// the replay. It starts out as the left model's order and follows every part operation
// emitted so far, including the implicit removal of inverse references.
func (r *run) layout(owner model.TypeRef) []model.Part {
	if parts, ok := r.parts[owner]; ok {
		return parts
	}
	var parts []model.Part
	if c := r.left.Class(owner); c != nil {
		parts = append(parts, c.Parts...)
	}
	r.parts[owner] = parts
	return parts
}

// placed reports whether the part exists at the current point of the replay
func (r *run) placed(ref model.PartRef) bool {
	return partIndex(r.layout(ref.Owner), ref.Name) >= 0
}

// place inserts p before the named sibling, or at the end when before is empty
func (r *run) place(p model.Part, before string) {
	owner := p.Ref().Owner
	parts := r.layout(owner)

	i := len(parts)
	if before != "" {
		if j := partIndex(parts, before); j >= 0 {
			i = j
		} else {
			r.logger.Warn("unreachable: sibling not in place, appending",
				zap.String("part", p.Ref().String()),
				zap.String("before", before))
		}
	}

	out := make([]model.Part, 0, len(parts)+1)
	out = append(out, parts[:i]...)
	out = append(out, p)
	r.parts[owner] = append(out, parts[i:]...)
}

// take removes the part and returns the name of the sibling that followed it
func (r *run) take(ref model.PartRef) (next string, ok bool) {
	parts := r.layout(ref.Owner)
	i := partIndex(parts, ref.Name)
	if i < 0 {
		return "", false
	}
	if i+1 < len(parts) {
		next = parts[i+1].PartName()
	}

	out := make([]model.Part, 0, len(parts)-1)
	out = append(out, parts[:i]...)
	r.parts[ref.Owner] = append(out, parts[i+1:]...)
	return next, true
}

// move relocates a part within its owner
func (r *run) move(ref model.PartRef, before string) {
	parts := r.layout(ref.Owner)
	i := partIndex(parts, ref.Name)
	if i < 0 {
		return
	}
	p := parts[i]
	r.take(ref)
	r.place(p, before)
}

func partIndex(parts []model.Part, name string) int {
	for i, p := range parts {
		if p.PartName() == name {
			return i
		}
	}
	return -1
}
