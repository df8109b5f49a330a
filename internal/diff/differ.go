// Package diff computes the ordered patch that turns one model snapshot into another.
//
// The traversal descends model → module → type → member. Keyed collections (modules,
// types, singletons, roles, annotations) are compared as sets; ordered collections
// (class parts, generalizations, classifiers) are compared as lists so that moves can
// be expressed. The resulting elements replay in emission order against the left model.
package diff

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/conduit-lang/schemadiff/internal/model"
)

// Differ computes patches. A Differ holds no per-call state and may be shared between
// goroutines.
type Differ struct {
	logger   *zap.Logger
	equality *AnnotationEquality
}

// Option configures a Differ
type Option func(*Differ)

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(d *Differ) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithAnnotationEquality sets the per-kind annotation comparators
func WithAnnotationEquality(eq *AnnotationEquality) Option {
	return func(d *Differ) {
		if eq != nil {
			d.equality = eq
		}
	}
}

// New creates a differ
func New(opts ...Option) *Differ {
	d := &Differ{
		logger:   zap.NewNop(),
		equality: NewAnnotationEquality(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Compute is shorthand for New().Compute
func Compute(left, right *model.Model) []Element {
	return New().Compute(left, right)
}

// Compute returns the elements that, applied in order to left, reproduce right.
// Neither snapshot is modified and the result shares no memory with them.
func (d *Differ) Compute(left, right *model.Model) []Element {
	r := &run{
		logger:       d.logger,
		equality:     d.equality,
		left:         left,
		right:        right,
		parts:        make(map[model.TypeRef][]model.Part),
		handled:      make(map[model.PartRef]bool),
		deletedTypes: make(map[model.TypeRef]bool),
	}

	modules := DiffSets(left.Modules, right.Modules)

	for _, mod := range modules.Deleted {
		r.emit(Delete{Name: model.QName{Module: mod.Name}, Subject: SubjectModule})
		for _, t := range mod.Types {
			r.deletedTypes[t.Ref()] = true
		}
		for _, name := range mod.TypeNames() {
			r.cascadeType(mod.Types[name])
		}
	}

	for _, mod := range modules.Created {
		r.emit(CreateModule{Module: mod.Clone()})
	}

	for _, p := range modules.Updated {
		r.diffModule(p.Left, p.Right)
	}

	d.logger.Debug("diff computed",
		zap.Int("modules", len(right.Modules)),
		zap.Int("elements", len(r.out)))

	return r.out
}

// run is the working state of one Compute call
type run struct {
	logger   *zap.Logger
	equality *AnnotationEquality
	left     *model.Model
	right    *model.Model
	out      []Element

	// part order per class at the current point of the replay, see layout
	parts map[model.TypeRef][]model.Part
	// inverse references recreated from their right definition by a cascade
	handled map[model.PartRef]bool
	// types removed by an emitted Delete
	deletedTypes map[model.TypeRef]bool
}

func (r *run) emit(elems ...Element) {
	r.out = append(r.out, elems...)
}

func (r *run) diffModule(left, right *model.Module) {
	types := DiffSets(left.Types, right.Types)

	for _, t := range types.Deleted {
		if !isAssociation(t) {
			r.deleteType(t)
		}
	}

	for _, t := range types.Created {
		if !isAssociation(t) {
			r.createType(t)
		}
	}

	for _, p := range types.Updated {
		if !isAssociation(p.Left) || !isAssociation(p.Right) {
			r.diffType(p.Left, p.Right)
		}
	}

	singletons := DiffSets(left.Singletons, right.Singletons)
	for _, s := range singletons.Deleted {
		r.emit(Delete{Name: model.QName{Module: left.Name, Type: s.Name}, Subject: SubjectSingleton})
	}
	for _, s := range singletons.Created {
		r.emit(CreateSingleton{Module: right.Name, Singleton: s})
	}
	for _, p := range singletons.Updated {
		if p.Left.Type != p.Right.Type {
			r.emit(
				Delete{Name: model.QName{Module: left.Name, Type: p.Key}, Subject: SubjectSingleton},
				CreateSingleton{Module: right.Name, Singleton: p.Right},
			)
		}
	}

	roles := DiffSets(left.Roles, right.Roles)
	for _, role := range roles.Deleted {
		r.emit(DeleteRole{Module: left.Name, Name: role.Name})
	}
	for _, role := range roles.Created {
		r.emit(CreateRole{Module: right.Name, Role: role.Clone()})
	}
	for _, p := range roles.Updated {
		if !valuesEqual(p.Left.Config, p.Right.Config) {
			r.emit(
				DeleteRole{Module: left.Name, Name: p.Key},
				CreateRole{Module: right.Name, Role: p.Right.Clone()},
			)
		}
	}
}

// isAssociation reports whether t is left to the references pointing at it.
// An association replaced by another kind of type is still diffed as a kind change.
func isAssociation(t model.Type) bool {
	return t.Kind() == model.KindAssociation
}

func valuesEqual(left, right map[string]any) bool {
	if len(left) == 0 && len(right) == 0 {
		return true
	}
	return reflect.DeepEqual(left, right)
}
