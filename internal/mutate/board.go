package mutate

import (
	"context"
	"errors"
	"strings"
	"time"

	"todoboard/internal/model"
	"todoboard/internal/order"
	"todoboard/internal/store"
)

// Board runs the board's user-level operations. Every operation reads one
// snapshot, plans against it, and commits a single batch through the emitter.
type Board struct {
	Store   store.Store
	Emitter *Emitter
	IDs     store.IDGen
	Now     func() time.Time
}

func NewBoard(s store.Store, e *Emitter, ids store.IDGen) *Board {
	if ids == nil {
		ids = store.UUIDGen{}
	}
	return &Board{Store: s, Emitter: e, IDs: ids, Now: time.Now}
}

func (b *Board) now() time.Time {
	if b.Now == nil {
		return time.Now().UTC()
	}
	return b.Now().UTC()
}

func (b *Board) AddList(ctx context.Context, name string) (model.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.List{}, errors.New("missing list name")
	}
	snap, err := b.Store.Snapshot(ctx)
	if err != nil {
		return model.List{}, err
	}
	ord, plan, err := order.PlanAppend(model.KindList, snap.Siblings(model.KindList, model.BoardScope))
	if err != nil {
		return model.List{}, err
	}
	l := model.List{ID: b.IDs.NewID(), Name: name, CreatedAt: b.now(), Order: ord}
	var batch model.Batch
	batch.Add(model.NewListMutation(l))
	if err := b.Emitter.EmitWith(ctx, batch, plan); err != nil {
		return model.List{}, err
	}
	return l, nil
}

func (b *Board) RenameList(ctx context.Context, id, name string) error {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("missing list name")
	}
	snap, err := b.Store.Snapshot(ctx)
	if err != nil {
		return err
	}
	l, ok := snap.FindList(id)
	if !ok {
		return NotFoundError{Kind: string(model.KindList), ID: id}
	}
	if l.Name == name {
		return nil
	}
	var batch model.Batch
	batch.Add(model.UpdateMutation(model.KindList, id, model.Fields{Name: &name}))
	return b.Emitter.EmitWith(ctx, batch)
}

// DeleteList removes a list and its todos. Remaining lists keep their orders.
func (b *Board) DeleteList(ctx context.Context, id string) (int, error) {
	id = strings.TrimSpace(id)
	snap, err := b.Store.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	if _, ok := snap.FindList(id); !ok {
		return 0, NotFoundError{Kind: string(model.KindList), ID: id}
	}
	var batch model.Batch
	todos := snap.TodosIn(id)
	for _, t := range todos {
		batch.Add(model.DeleteMutation(model.KindTodo, t.ID))
	}
	batch.Add(model.DeleteMutation(model.KindList, id))
	if err := b.Emitter.EmitWith(ctx, batch); err != nil {
		return 0, err
	}
	return len(todos), nil
}

// AddTodo appends a todo at the end of a list.
func (b *Board) AddTodo(ctx context.Context, listID, text string) (model.Todo, error) {
	listID = strings.TrimSpace(listID)
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Todo{}, errors.New("missing todo text")
	}
	snap, err := b.Store.Snapshot(ctx)
	if err != nil {
		return model.Todo{}, err
	}
	if _, ok := snap.FindList(listID); !ok {
		return model.Todo{}, NotFoundError{Kind: string(model.KindList), ID: listID}
	}
	ord, plan, err := order.PlanAppend(model.KindTodo, snap.Siblings(model.KindTodo, listID))
	if err != nil {
		return model.Todo{}, err
	}
	return b.createTodo(ctx, listID, text, ord, plan)
}

// InsertTodoAfter places a new todo directly below anchorID in the anchor's list.
func (b *Board) InsertTodoAfter(ctx context.Context, anchorID, text string) (model.Todo, error) {
	anchorID = strings.TrimSpace(anchorID)
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Todo{}, errors.New("missing todo text")
	}
	snap, err := b.Store.Snapshot(ctx)
	if err != nil {
		return model.Todo{}, err
	}
	anchor, ok := snap.FindTodo(anchorID)
	if !ok {
		return model.Todo{}, NotFoundError{Kind: string(model.KindTodo), ID: anchorID}
	}
	ord, plan, err := order.PlanInsertAfter(model.KindTodo, anchor.ID, snap.Siblings(model.KindTodo, anchor.ListID))
	if err != nil {
		return model.Todo{}, err
	}
	return b.createTodo(ctx, anchor.ListID, text, ord, plan)
}

func (b *Board) createTodo(ctx context.Context, listID, text string, ord float64, plan order.Plan) (model.Todo, error) {
	t := model.Todo{ID: b.IDs.NewID(), Text: text, ListID: listID, CreatedAt: b.now(), Order: ord}
	var batch model.Batch
	batch.Add(model.NewTodoMutation(t))
	if err := b.Emitter.EmitWith(ctx, batch, plan); err != nil {
		return model.Todo{}, err
	}
	return t, nil
}

// DeleteTodo removes one todo. Siblings are never renumbered on delete.
func (b *Board) DeleteTodo(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	snap, err := b.Store.Snapshot(ctx)
	if err != nil {
		return err
	}
	if _, ok := snap.FindTodo(id); !ok {
		return NotFoundError{Kind: string(model.KindTodo), ID: id}
	}
	var batch model.Batch
	batch.Add(model.DeleteMutation(model.KindTodo, id))
	return b.Emitter.EmitWith(ctx, batch)
}

func (b *Board) ToggleDone(ctx context.Context, id string) (model.Todo, error) {
	id = strings.TrimSpace(id)
	snap, err := b.Store.Snapshot(ctx)
	if err != nil {
		return model.Todo{}, err
	}
	t, ok := snap.FindTodo(id)
	if !ok {
		return model.Todo{}, NotFoundError{Kind: string(model.KindTodo), ID: id}
	}
	t.Done = !t.Done
	var batch model.Batch
	batch.Add(model.UpdateMutation(model.KindTodo, id, model.Fields{Done: model.BoolPtr(t.Done)}))
	if err := b.Emitter.EmitWith(ctx, batch); err != nil {
		return model.Todo{}, err
	}
	return t, nil
}

// ToggleAll marks every todo in a list done, or undone if they all already are.
// It returns the value written.
func (b *Board) ToggleAll(ctx context.Context, listID string) (bool, error) {
	listID = strings.TrimSpace(listID)
	snap, err := b.Store.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := snap.FindList(listID); !ok {
		return false, NotFoundError{Kind: string(model.KindList), ID: listID}
	}
	todos := snap.TodosIn(listID)
	allDone := true
	for _, t := range todos {
		if !t.Done {
			allDone = false
			break
		}
	}
	newVal := !allDone
	var batch model.Batch
	for _, t := range todos {
		if t.Done != newVal {
			batch.Add(model.UpdateMutation(model.KindTodo, t.ID, model.Fields{Done: model.BoolPtr(newVal)}))
		}
	}
	if err := b.Emitter.EmitWith(ctx, batch); err != nil {
		return false, err
	}
	return newVal, nil
}

// DeleteCompleted removes every done todo of a list in one batch.
func (b *Board) DeleteCompleted(ctx context.Context, listID string) (int, error) {
	listID = strings.TrimSpace(listID)
	snap, err := b.Store.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	if _, ok := snap.FindList(listID); !ok {
		return 0, NotFoundError{Kind: string(model.KindList), ID: listID}
	}
	var batch model.Batch
	for _, t := range snap.TodosIn(listID) {
		if t.Done {
			batch.Add(model.DeleteMutation(model.KindTodo, t.ID))
		}
	}
	if err := b.Emitter.EmitWith(ctx, batch); err != nil {
		return 0, err
	}
	return len(batch.Mutations), nil
}

// MoveTodo moves a todo to index within toListID (its own list when empty).
func (b *Board) MoveTodo(ctx context.Context, id, toListID string, index int) (order.Plan, error) {
	snap, err := b.Store.Snapshot(ctx)
	if err != nil {
		return order.Plan{}, err
	}
	src, err := snap.Source(model.KindTodo, id)
	if err != nil {
		return order.Plan{}, err
	}
	target := strings.TrimSpace(toListID)
	if target == "" {
		target = src.Scope
	}
	if _, ok := snap.FindList(target); !ok {
		return order.Plan{}, NotFoundError{Kind: string(model.KindList), ID: target}
	}
	plan, err := order.PlanMove(src, target, index, snap.Siblings(model.KindTodo, target))
	if err != nil {
		return order.Plan{}, err
	}
	if err := b.Emitter.Emit(ctx, plan); err != nil {
		return order.Plan{}, err
	}
	return plan, nil
}

func (b *Board) MoveList(ctx context.Context, id string, index int) (order.Plan, error) {
	snap, err := b.Store.Snapshot(ctx)
	if err != nil {
		return order.Plan{}, err
	}
	src, err := snap.Source(model.KindList, id)
	if err != nil {
		return order.Plan{}, err
	}
	plan, err := order.PlanMove(src, model.BoardScope, index, snap.Siblings(model.KindList, model.BoardScope))
	if err != nil {
		return order.Plan{}, err
	}
	if err := b.Emitter.Emit(ctx, plan); err != nil {
		return order.Plan{}, err
	}
	return plan, nil
}

// Renumber rewrites a scope's orders to 0, 1, 2, ... in visual order. scope is
// a list id, or model.BoardScope for the lists themselves.
func (b *Board) Renumber(ctx context.Context, scope string) (order.Plan, error) {
	scope = strings.TrimSpace(scope)
	snap, err := b.Store.Snapshot(ctx)
	if err != nil {
		return order.Plan{}, err
	}
	kind := model.KindTodo
	if scope == model.BoardScope {
		kind = model.KindList
	} else if _, ok := snap.FindList(scope); !ok {
		return order.Plan{}, NotFoundError{Kind: string(model.KindList), ID: scope}
	}
	plan := order.Renumber(kind, snap.Siblings(kind, scope))
	if err := b.Emitter.Emit(ctx, plan); err != nil {
		return order.Plan{}, err
	}
	return plan, nil
}
