package diff

import "sort"

// Pair is an item present on both sides of a keyed comparison
type Pair[T any] struct {
	Key   string
	Left  T
	Right T
}

// SetDiff classifies every key of two keyed collections into exactly one bucket.
// Buckets are ordered by key.
type SetDiff[T any] struct {
	Created []T
	Deleted []T
	Updated []Pair[T]
}

// Empty reports whether nothing was created or deleted and no pairs matched
func (s SetDiff[T]) Empty() bool {
	return len(s.Created) == 0 && len(s.Deleted) == 0 && len(s.Updated) == 0
}

// DiffSets compares two unordered keyed collections
func DiffSets[T any](left, right map[string]T) SetDiff[T] {
	var d SetDiff[T]

	leftKeys := sortedKeys(left)
	rightKeys := sortedKeys(right)

	for _, k := range setDifference(rightKeys, leftKeys) {
		d.Created = append(d.Created, right[k])
	}

	for _, k := range setDifference(leftKeys, rightKeys) {
		d.Deleted = append(d.Deleted, left[k])
	}

	for _, k := range setIntersection(leftKeys, rightKeys) {
		d.Updated = append(d.Updated, Pair[T]{Key: k, Left: left[k], Right: right[k]})
	}

	return d
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func setDifference(a, b []string) []string {
	mb := make(map[string]bool, len(b))
	for _, x := range b {
		mb[x] = true
	}

	var diff []string
	for _, x := range a {
		if !mb[x] {
			diff = append(diff, x)
		}
	}
	return diff
}

func setIntersection(a, b []string) []string {
	mb := make(map[string]bool, len(b))
	for _, x := range b {
		mb[x] = true
	}

	var inter []string
	for _, x := range a {
		if mb[x] {
			inter = append(inter, x)
		}
	}
	return inter
}
