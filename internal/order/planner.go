package order

import (
	"errors"
	"strings"

	"todoboard/internal/model"
)

// Source describes the entity being moved as it is currently stored.
type Source struct {
	Kind  model.Kind
	ID    string
	Scope string
	Order float64
}

// Plan is the set of order assignments realizing one move or insert.
// Assignments include only entities whose stored values change.
type Plan struct {
	Assignments []model.Assignment `json:"assignments"`
	// Renumbered is set when the key space ran out and the whole scope was
	// reassigned 0, 1, 2, ... in visual order.
	Renumbered bool `json:"renumbered,omitempty"`
}

func (p Plan) Empty() bool { return len(p.Assignments) == 0 }

// OrderOf returns the planned order for id, if the plan assigns one.
func (p Plan) OrderOf(id string) (float64, bool) {
	for _, a := range p.Assignments {
		if a.EntityID == id {
			return a.NewOrder, true
		}
	}
	return 0, false
}

// PlanMove plans moving src into targetScope at destIndex.
//
// Inputs:
//   - siblings: the current members of targetScope, in any order. src may or may
//     not be among them; it is excluded before indexing.
//   - destIndex: 0-based insertion position in the order-sorted siblings *after*
//     removing src. Out-of-range values are clamped, so a stale sibling set
//     degrades to a nearby position rather than an error.
//
// Behavior:
//   - Prefer changing only src's order.
//   - If no key fits between the neighbors, renumber the destination scope with
//     src placed at destIndex.
func PlanMove(src Source, targetScope string, destIndex int, siblings []model.Orderable) (Plan, error) {
	src.ID = strings.TrimSpace(src.ID)
	targetScope = strings.TrimSpace(targetScope)
	if src.ID == "" {
		return Plan{}, errors.New("missing source id")
	}
	if targetScope == "" {
		return Plan{}, errors.New("missing target scope")
	}

	rest := Sorted(without(siblings, src.ID))
	destIndex = clamp(destIndex, len(rest))
	crossScope := targetScope != strings.TrimSpace(src.Scope)

	// Dropping back between the same two neighbors would otherwise pick a new
	// midpoint for an item that is already in place.
	if !crossScope && alreadyAt(src, rest, destIndex) {
		return Plan{}, nil
	}

	newOrder, err := keyAt(rest, destIndex)
	if errors.Is(err, ErrKeySpaceExhausted) {
		return renumberWithMoved(src, targetScope, crossScope, rest, destIndex), nil
	}
	if err != nil {
		return Plan{}, err
	}
	if !crossScope && newOrder == src.Order {
		return Plan{}, nil
	}

	a := model.Assignment{Kind: src.Kind, EntityID: src.ID, NewOrder: newOrder}
	if crossScope {
		a.NewListID = model.StrPtr(targetScope)
	}
	return Plan{Assignments: []model.Assignment{a}}, nil
}

// alreadyAt reports whether src already sorts exactly at idx among rest.
func alreadyAt(src Source, rest []model.Orderable, idx int) bool {
	self := model.Orderable{ID: src.ID, Order: src.Order}
	if idx > 0 && Compare(rest[idx-1], self) >= 0 {
		return false
	}
	if idx < len(rest) && Compare(self, rest[idx]) >= 0 {
		return false
	}
	return true
}

func renumberWithMoved(src Source, targetScope string, crossScope bool, rest []model.Orderable, idx int) Plan {
	final := make([]model.Orderable, 0, len(rest)+1)
	final = append(final, rest[:idx]...)
	final = append(final, model.Orderable{ID: src.ID, Order: src.Order})
	final = append(final, rest[idx:]...)

	plan := Plan{Renumbered: true}
	for i, x := range final {
		next := float64(i)
		if x.ID == src.ID {
			a := model.Assignment{Kind: src.Kind, EntityID: x.ID, NewOrder: next}
			if crossScope {
				a.NewListID = model.StrPtr(targetScope)
			}
			if crossScope || x.Order != next {
				plan.Assignments = append(plan.Assignments, a)
			}
			continue
		}
		if x.Order != next {
			plan.Assignments = append(plan.Assignments, model.Assignment{Kind: src.Kind, EntityID: x.ID, NewOrder: next})
		}
	}
	return plan
}

// PlanInsert picks an order for a new entity inserted at index among siblings.
// The returned plan is empty unless the scope had to be renumbered to make
// room, in which case it carries the existing siblings' new keys.
func PlanInsert(kind model.Kind, index int, siblings []model.Orderable) (float64, Plan, error) {
	sibs := Sorted(siblings)
	index = clamp(index, len(sibs))
	k, err := keyAt(sibs, index)
	if err == nil {
		return k, Plan{}, nil
	}
	if !errors.Is(err, ErrKeySpaceExhausted) {
		return 0, Plan{}, err
	}

	plan := Plan{Renumbered: true}
	next := 0
	var newOrder float64
	for i := 0; i <= len(sibs); i++ {
		if i == index {
			newOrder = float64(next)
			next++
		}
		if i == len(sibs) {
			break
		}
		if sibs[i].Order != float64(next) {
			plan.Assignments = append(plan.Assignments, model.Assignment{Kind: kind, EntityID: sibs[i].ID, NewOrder: float64(next)})
		}
		next++
	}
	return newOrder, plan, nil
}

// PlanAppend places a new entity after the scope's current maximum.
func PlanAppend(kind model.Kind, siblings []model.Orderable) (float64, Plan, error) {
	return PlanInsert(kind, len(siblings), siblings)
}

// PlanInsertAfter is the cascade insert: a new entity directly after anchorID,
// at the midpoint between the anchor and its next sibling.
func PlanInsertAfter(kind model.Kind, anchorID string, siblings []model.Orderable) (float64, Plan, error) {
	anchorID = strings.TrimSpace(anchorID)
	sibs := Sorted(siblings)
	idx := indexOf(sibs, anchorID)
	if idx < 0 {
		return 0, Plan{}, errors.New("anchor not found in sibling set")
	}
	return PlanInsert(kind, idx+1, sibs)
}

// Renumber reassigns 0, 1, 2, ... in current visual order. Only entities whose
// key changes are returned.
func Renumber(kind model.Kind, siblings []model.Orderable) Plan {
	plan := Plan{Renumbered: true}
	for i, x := range Sorted(siblings) {
		if x.Order == float64(i) {
			continue
		}
		plan.Assignments = append(plan.Assignments, model.Assignment{Kind: kind, EntityID: x.ID, NewOrder: float64(i)})
	}
	return plan
}
