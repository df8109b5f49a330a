package diff

import "sort"

// ListOpKind identifies an ordered-list edit
type ListOpKind int

const (
	ListCreate ListOpKind = iota
	ListDelete
	ListUpdate
	ListMove
)

// String returns the string representation of the edit kind
func (k ListOpKind) String() string {
	switch k {
	case ListCreate:
		return "create"
	case ListDelete:
		return "delete"
	case ListUpdate:
		return "update"
	case ListMove:
		return "move"
	default:
		return "unknown"
	}
}

// ListOp is one edit of an ordered list. Before is the key of the right-side successor
// and Next the successor itself; both are zero when the item belongs at the end.
// Create carries only Right, Delete only Left.
type ListOp[T any] struct {
	Kind   ListOpKind
	Left   T
	Right  T
	Before string
	Next   T
}

// DiffLists computes an edit script turning left into right.
//
// Items are matched by key. Among the matched items the longest run that keeps its
// relative order stays in place; every other matched item is moved. Matched items that
// stay in place are reported as updates only when equal returns false; moved items are
// always reported so the caller can diff their content as well.
//
// Operations replay in order: deletes come first in left order, then the right list is
// walked from its tail, so every Before names an item that is already in place.
func DiffLists[T any](left, right []T, key func(T) string, equal func(l, r T) bool) []ListOp[T] {
	leftIdx := make(map[string]int, len(left))
	for i, item := range left {
		leftIdx[key(item)] = i
	}
	rightIdx := make(map[string]int, len(right))
	for i, item := range right {
		rightIdx[key(item)] = i
	}

	var ops []ListOp[T]
	for _, item := range left {
		if _, ok := rightIdx[key(item)]; !ok {
			ops = append(ops, ListOp[T]{Kind: ListDelete, Left: item})
		}
	}

	// left positions of matched items, in right order
	var positions []int
	for _, item := range right {
		if i, ok := leftIdx[key(item)]; ok {
			positions = append(positions, i)
		}
	}
	stable := make(map[int]bool, len(positions))
	for _, i := range longestIncreasing(positions) {
		stable[i] = true
	}

	for j := len(right) - 1; j >= 0; j-- {
		item := right[j]
		op := ListOp[T]{Right: item}
		if j+1 < len(right) {
			op.Next = right[j+1]
			op.Before = key(op.Next)
		}

		i, matched := leftIdx[key(item)]
		switch {
		case !matched:
			op.Kind = ListCreate
		case !stable[i]:
			op.Kind = ListMove
			op.Left = left[i]
		case !equal(left[i], item):
			op.Kind = ListUpdate
			op.Left = left[i]
		default:
			continue
		}
		ops = append(ops, op)
	}

	return ops
}

// longestIncreasing returns the values of a longest strictly increasing subsequence
func longestIncreasing(seq []int) []int {
	if len(seq) == 0 {
		return nil
	}

	// tails[k] is the index into seq of the smallest tail of an increasing run of length k+1
	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))
	for i, v := range seq {
		k := sort.Search(len(tails), func(k int) bool { return seq[tails[k]] >= v })
		if k > 0 {
			prev[i] = tails[k-1]
		} else {
			prev[i] = -1
		}
		if k == len(tails) {
			tails = append(tails, i)
		} else {
			tails[k] = i
		}
	}

	out := make([]int, len(tails))
	for i, k := len(tails)-1, tails[len(tails)-1]; i >= 0; i-- {
		out[i] = seq[k]
		k = prev[k]
	}
	return out
}
