package order

import (
	"sort"
	"strings"
	"time"
)

// Pending is an entity as read from storage, before its order is known to be set.
type Pending struct {
	ID        string
	Scope     string
	CreatedAt time.Time
	Order     *float64
}

// Normalize assigns an order to every entity that lacks one, once, at load time.
// Entities missing an order are appended after their scope's current maximum in
// (createdAt, id) sequence. The returned map holds only the newly assigned keys.
func Normalize(items []Pending) map[string]float64 {
	out := map[string]float64{}

	groups := map[string][]int{}
	var scopes []string
	for i := range items {
		sc := strings.TrimSpace(items[i].Scope)
		if _, ok := groups[sc]; !ok {
			scopes = append(scopes, sc)
		}
		groups[sc] = append(groups[sc], i)
	}
	sort.Strings(scopes)

	for _, sc := range scopes {
		idxs := groups[sc]
		var max *float64
		var missing []int
		for _, i := range idxs {
			o := items[i].Order
			if o == nil || !finite(*o) {
				missing = append(missing, i)
				continue
			}
			if max == nil || *o > *max {
				v := *o
				max = &v
			}
		}
		if len(missing) == 0 {
			continue
		}

		sort.SliceStable(missing, func(a, b int) bool {
			x, y := items[missing[a]], items[missing[b]]
			if !x.CreatedAt.Equal(y.CreatedAt) {
				return x.CreatedAt.Before(y.CreatedAt)
			}
			return x.ID < y.ID
		})

		for _, i := range missing {
			var next float64
			if max == nil {
				next = Initial()
			} else if v, err := After(*max); err == nil {
				next = v
			} else {
				// Past 2^53 there is no room after max; stack up behind it and let
				// the id tie-break keep the result deterministic.
				next = *max
			}
			out[items[i].ID] = next
			max = &next
		}
	}
	return out
}
