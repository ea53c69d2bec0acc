package order

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"todoboard/internal/model"
)

// ErrKeySpaceExhausted is returned when no float64 exists strictly between the
// requested bounds. Callers recover by renumbering the scope.
var ErrKeySpaceExhausted = errors.New("order key space exhausted")

// Between returns an order key strictly between prev and next.
// prev may be nil (no lower bound) and next may be nil (no upper bound).
//
// Keys are float64. Bisecting the same boundary over and over runs out of
// mantissa after ~52 steps; at that point ErrKeySpaceExhausted is returned and
// the scope must be renumbered.
func Between(prev, next *float64) (float64, error) {
	if prev != nil && !finite(*prev) {
		return 0, fmt.Errorf("invalid lower order key %v", *prev)
	}
	if next != nil && !finite(*next) {
		return 0, fmt.Errorf("invalid upper order key %v", *next)
	}

	switch {
	case prev == nil && next == nil:
		return Initial(), nil
	case prev == nil:
		return strictly(nil, next, *next-1)
	case next == nil:
		return strictly(prev, nil, *prev+1)
	}

	a, b := *prev, *next
	if !(a < b) {
		// Equal keys are a collision; a > b means the caller's siblings were not sorted.
		return 0, ErrKeySpaceExhausted
	}
	mid := (a + b) / 2
	if math.IsInf(mid, 0) {
		mid = a/2 + b/2
	}
	return strictly(prev, next, mid)
}

func After(a float64) (float64, error)  { return Between(&a, nil) }
func Before(b float64) (float64, error) { return Between(nil, &b) }
func Initial() float64                  { return 0 }

func strictly(prev, next *float64, v float64) (float64, error) {
	if !finite(v) {
		return 0, ErrKeySpaceExhausted
	}
	if prev != nil && !(*prev < v) {
		return 0, ErrKeySpaceExhausted
	}
	if next != nil && !(v < *next) {
		return 0, ErrKeySpaceExhausted
	}
	return v, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Compare orders by key, then by id. The id tie-break exists only so that
// colliding keys sort the same way on every client.
func Compare(a, b model.Orderable) int {
	switch {
	case a.Order < b.Order:
		return -1
	case a.Order > b.Order:
		return 1
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// SortByOrder sorts xs in place.
func SortByOrder(xs []model.Orderable) {
	sort.SliceStable(xs, func(i, j int) bool { return Compare(xs[i], xs[j]) < 0 })
}

// Sorted returns a sorted copy; the input slice is left untouched.
func Sorted(xs []model.Orderable) []model.Orderable {
	out := append([]model.Orderable(nil), xs...)
	SortByOrder(out)
	return out
}

// Append returns the key for a new entity at the end of a scope (max + 1).
func Append(siblings []model.Orderable) (float64, error) {
	if len(siblings) == 0 {
		return Initial(), nil
	}
	max := siblings[0].Order
	for _, x := range siblings[1:] {
		if x.Order > max {
			max = x.Order
		}
	}
	return After(max)
}

func without(xs []model.Orderable, id string) []model.Orderable {
	out := make([]model.Orderable, 0, len(xs))
	for _, x := range xs {
		if x.ID == id {
			continue
		}
		out = append(out, x)
	}
	return out
}

func indexOf(xs []model.Orderable, id string) int {
	for i, x := range xs {
		if x.ID == id {
			return i
		}
	}
	return -1
}

// keyAt computes the key for inserting at idx into sorted sibs.
func keyAt(sibs []model.Orderable, idx int) (float64, error) {
	switch {
	case len(sibs) == 0:
		return Between(nil, nil)
	case idx <= 0:
		return Between(nil, &sibs[0].Order)
	case idx >= len(sibs):
		return Between(&sibs[len(sibs)-1].Order, nil)
	}
	return Between(&sibs[idx-1].Order, &sibs[idx].Order)
}

func clamp(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx > n {
		return n
	}
	return idx
}
