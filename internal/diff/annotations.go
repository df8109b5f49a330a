package diff

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/conduit-lang/schemadiff/internal/model"
)

// EqualFunc decides whether two annotation instances of the same kind are equal
type EqualFunc func(left, right model.Annotation) bool

// AnnotationEquality holds per-kind comparators. Kinds without a registered comparator
// compare their values deeply.
type AnnotationEquality struct {
	byKind map[string]EqualFunc
	mu     sync.RWMutex
}

// NewAnnotationEquality creates an empty comparator registry
func NewAnnotationEquality() *AnnotationEquality {
	return &AnnotationEquality{
		byKind: make(map[string]EqualFunc),
	}
}

// Register installs the comparator for an annotation kind
func (e *AnnotationEquality) Register(kind string, fn EqualFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.byKind[kind]; exists {
		return fmt.Errorf("annotation kind %s already has a comparator", kind)
	}
	e.byKind[kind] = fn
	return nil
}

// Equal compares two annotation instances of the same kind
func (e *AnnotationEquality) Equal(left, right model.Annotation) bool {
	e.mu.RLock()
	fn, ok := e.byKind[left.Kind]
	e.mu.RUnlock()

	if ok {
		return fn(left, right)
	}
	if len(left.Values) == 0 && len(right.Values) == 0 {
		return true
	}
	return reflect.DeepEqual(left.Values, right.Values)
}

// IgnoreKeys returns a comparator that disregards the given value keys
func IgnoreKeys(keys ...string) EqualFunc {
	skip := make(map[string]bool, len(keys))
	for _, k := range keys {
		skip[k] = true
	}
	strip := func(values map[string]any) map[string]any {
		out := make(map[string]any, len(values))
		for k, v := range values {
			if !skip[k] {
				out[k] = v
			}
		}
		return out
	}
	return func(left, right model.Annotation) bool {
		return reflect.DeepEqual(strip(left.Values), strip(right.Values))
	}
}

// annotationsEqual reports whether two annotation sets would produce no operations
func (r *run) annotationsEqual(left, right model.Annotations) bool {
	if len(left) != len(right) {
		return false
	}
	for kind, l := range left {
		rt, ok := right[kind]
		if !ok || !r.equality.Equal(l, rt) {
			return false
		}
	}
	return true
}

// diffAnnotations emits one RemoveAnnotation per removed or changed kind and a single
// AddAnnotations carrying every changed and created instance.
func (r *run) diffAnnotations(target model.QName, left, right model.Annotations) {
	d := DiffSets(left, right)

	var removed []string
	var batch []model.Annotation

	for _, a := range d.Deleted {
		removed = append(removed, a.Kind)
	}
	for _, p := range d.Updated {
		if !r.equality.Equal(p.Left, p.Right) {
			removed = append(removed, p.Key)
			batch = append(batch, p.Right.Clone())
		}
	}
	for _, a := range d.Created {
		batch = append(batch, a.Clone())
	}

	sort.Strings(removed)
	for _, kind := range removed {
		r.emit(RemoveAnnotation{Element: target, Kind: kind})
	}
	if len(batch) > 0 {
		r.emit(AddAnnotations{Element: target, Annotations: batch})
	}
}
