package dragdrop

import (
	"context"

	"todoboard/internal/model"
	"todoboard/internal/order"
)

// Keyboard reorders with discrete steps by driving the same tracker a mouse
// drag would, so both paths plan and commit identically.
type Keyboard struct {
	T *Tracker
}

// Step moves kind/id by delta positions within its scope. Steps past either end
// are no-ops.
func (k Keyboard) Step(ctx context.Context, kind model.Kind, id string, delta int) (order.Plan, error) {
	snap, err := k.T.snaps.Snapshot(ctx)
	if err != nil {
		return order.Plan{}, err
	}
	src, err := snap.Source(kind, id)
	if err != nil {
		return order.Plan{}, err
	}
	sibs := order.Sorted(snap.Siblings(kind, src.Scope))
	cur := indexOf(sibs, src.ID)
	dest := cur + delta
	if cur < 0 || delta == 0 || dest < 0 || dest >= len(sibs) {
		return order.Plan{}, nil
	}
	// Indexes are positions among the siblings with the source removed, which
	// is exactly dest for both directions.
	return k.run(ctx, kind, id, src.Scope, dest)
}

// Shift moves a todo to the neighbouring list delta lists away, keeping its
// row position where the target list is long enough.
func (k Keyboard) Shift(ctx context.Context, id string, delta int) (order.Plan, error) {
	snap, err := k.T.snaps.Snapshot(ctx)
	if err != nil {
		return order.Plan{}, err
	}
	src, err := snap.Source(model.KindTodo, id)
	if err != nil {
		return order.Plan{}, err
	}
	lists := snap.SortedLists()
	cur := -1
	for i, l := range lists {
		if l.ID == src.Scope {
			cur = i
			break
		}
	}
	dest := cur + delta
	if cur < 0 || delta == 0 || dest < 0 || dest >= len(lists) {
		return order.Plan{}, nil
	}
	row := indexOf(order.Sorted(snap.Siblings(model.KindTodo, src.Scope)), src.ID)
	return k.run(ctx, model.KindTodo, id, lists[dest].ID, row)
}

func (k Keyboard) run(ctx context.Context, kind model.Kind, id, scope string, index int) (order.Plan, error) {
	if err := k.T.Start(ctx, kind, id); err != nil {
		return order.Plan{}, err
	}
	k.T.Hover(scope, index)
	return k.T.Drop(ctx)
}

func indexOf(xs []model.Orderable, id string) int {
	for i, x := range xs {
		if x.ID == id {
			return i
		}
	}
	return -1
}
