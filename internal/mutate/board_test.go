package mutate

import (
	"context"
	"errors"
	"testing"
	"time"

	"todoboard/internal/model"
	"todoboard/internal/store"
)

func seed() store.Snapshot {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return store.Snapshot{
		Lists: []model.List{
			{ID: "l1", Name: "Todo", CreatedAt: t0, Order: 0},
			{ID: "l2", Name: "Done", CreatedAt: t0, Order: 1},
		},
		Todos: []model.Todo{
			{ID: "t1", Text: "a", ListID: "l1", Order: 5, CreatedAt: t0},
			{ID: "t2", Text: "b", ListID: "l1", Order: 6, CreatedAt: t0, Done: true},
			{ID: "t3", Text: "c", ListID: "l2", Order: 10, CreatedAt: t0},
			{ID: "t4", Text: "d", ListID: "l2", Order: 20, CreatedAt: t0},
		},
	}
}

func newTestBoard(t *testing.T) (*Board, *countingStore) {
	t.Helper()
	cs := newCountingStore(seed())
	b := NewBoard(cs, NewEmitter(cs, nil), &store.SeqGen{Prefix: "new"})
	b.Now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return b, cs
}

func snapshotOf(t *testing.T, s store.Store) store.Snapshot {
	t.Helper()
	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return snap
}

func TestBoard_InsertTodoAfter_CascadeLeavesSiblingsAlone(t *testing.T) {
	b, cs := newTestBoard(t)
	got, err := b.InsertTodoAfter(context.Background(), "t1", "between")
	if err != nil {
		t.Fatalf("InsertTodoAfter: %v", err)
	}
	if got.Order != 5.5 || got.ListID != "l1" {
		t.Fatalf("expected new todo at 5.5 in l1; got %+v", got)
	}
	if len(cs.commits) != 1 || len(cs.commits[0].Mutations) != 1 {
		t.Fatalf("expected one commit with only the create; got %+v", cs.commits)
	}
	ids := []string{}
	for _, td := range snapshotOf(t, cs).TodosIn("l1") {
		ids = append(ids, td.ID)
	}
	if len(ids) != 3 || ids[1] != "new-1" {
		t.Fatalf("unexpected order %v", ids)
	}
}

func TestBoard_AddTodoAndList_Append(t *testing.T) {
	b, cs := newTestBoard(t)
	td, err := b.AddTodo(context.Background(), "l2", "e")
	if err != nil {
		t.Fatalf("AddTodo: %v", err)
	}
	if td.Order != 21 {
		t.Fatalf("expected append at max+1 = 21; got %v", td.Order)
	}
	l, err := b.AddList(context.Background(), "Later")
	if err != nil {
		t.Fatalf("AddList: %v", err)
	}
	if l.Order != 2 {
		t.Fatalf("expected list append at 2; got %v", l.Order)
	}
	if _, err := b.AddTodo(context.Background(), "ghost", "x"); !errors.As(err, new(NotFoundError)) {
		t.Fatalf("expected NotFoundError for unknown list; got %v", err)
	}
	if _, err := b.AddList(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for blank list name")
	}
	if len(cs.commits) != 2 {
		t.Fatalf("expected 2 commits; got %d", len(cs.commits))
	}
}

func TestBoard_ToggleAll(t *testing.T) {
	b, cs := newTestBoard(t)
	v, err := b.ToggleAll(context.Background(), "l1")
	if err != nil {
		t.Fatalf("ToggleAll: %v", err)
	}
	if !v {
		t.Fatalf("expected not-all-done list to become all done")
	}
	if len(cs.commits[0].Mutations) != 1 {
		t.Fatalf("expected only the undone todo to change; got %+v", cs.commits[0].Mutations)
	}
	v, err = b.ToggleAll(context.Background(), "l1")
	if err != nil || v {
		t.Fatalf("expected all-done list to become undone; got %v %v", v, err)
	}
	if snapshotOf(t, cs).Remaining("l1") != 2 {
		t.Fatalf("expected 2 remaining after toggling back")
	}
}

func TestBoard_DeleteCompleted_OneBatch(t *testing.T) {
	b, cs := newTestBoard(t)
	if _, err := b.ToggleDone(context.Background(), "t1"); err != nil {
		t.Fatalf("ToggleDone: %v", err)
	}
	n, err := b.DeleteCompleted(context.Background(), "l1")
	if err != nil {
		t.Fatalf("DeleteCompleted: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted; got %d", n)
	}
	if got := len(cs.commits); got != 2 {
		t.Fatalf("expected toggle + one delete batch; got %d commits", got)
	}
	if len(snapshotOf(t, cs).TodosIn("l1")) != 0 {
		t.Fatalf("expected l1 to be empty")
	}
}

func TestBoard_DeleteTodo_DoesNotRenumber(t *testing.T) {
	b, cs := newTestBoard(t)
	if err := b.DeleteTodo(context.Background(), "t3"); err != nil {
		t.Fatalf("DeleteTodo: %v", err)
	}
	left := snapshotOf(t, cs).TodosIn("l2")
	if len(left) != 1 || left[0].Order != 20 {
		t.Fatalf("expected t4 untouched at 20; got %+v", left)
	}
}

func TestBoard_DeleteList_RemovesItsTodos(t *testing.T) {
	b, cs := newTestBoard(t)
	n, err := b.DeleteList(context.Background(), "l2")
	if err != nil {
		t.Fatalf("DeleteList: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 todos removed; got %d", n)
	}
	snap := snapshotOf(t, cs)
	if len(snap.Lists) != 1 || len(snap.Todos) != 2 {
		t.Fatalf("unexpected board after delete: %+v", snap)
	}
}

func TestBoard_MoveTodo_AcrossLists(t *testing.T) {
	b, cs := newTestBoard(t)
	plan, err := b.MoveTodo(context.Background(), "t1", "l2", 1)
	if err != nil {
		t.Fatalf("MoveTodo: %v", err)
	}
	if len(plan.Assignments) != 1 {
		t.Fatalf("expected one assignment; got %+v", plan.Assignments)
	}
	snap := snapshotOf(t, cs)
	moved, _ := snap.FindTodo("t1")
	if moved.ListID != "l2" || !(moved.Order > 10 && moved.Order < 20) {
		t.Fatalf("expected t1 between 10 and 20 in l2; got %+v", moved)
	}
	if rest := snap.TodosIn("l1"); len(rest) != 1 || rest[0].Order != 6 {
		t.Fatalf("expected l1 untouched; got %+v", rest)
	}
}

func TestBoard_MoveTodo_InPlaceIsNoop(t *testing.T) {
	b, cs := newTestBoard(t)
	plan, err := b.MoveTodo(context.Background(), "t2", "", 1)
	if err != nil {
		t.Fatalf("MoveTodo: %v", err)
	}
	if !plan.Empty() || len(cs.commits) != 0 {
		t.Fatalf("expected no commit for an in-place move; got %+v, %d commits", plan, len(cs.commits))
	}
}

func TestBoard_MoveList_AndRenumber(t *testing.T) {
	b, cs := newTestBoard(t)
	if _, err := b.MoveList(context.Background(), "l2", 0); err != nil {
		t.Fatalf("MoveList: %v", err)
	}
	lists := snapshotOf(t, cs).SortedLists()
	if lists[0].ID != "l2" {
		t.Fatalf("expected l2 first; got %+v", lists)
	}

	plan, err := b.Renumber(context.Background(), "l2")
	if err != nil {
		t.Fatalf("Renumber: %v", err)
	}
	if !plan.Renumbered || len(plan.Assignments) != 2 {
		t.Fatalf("expected both l2 todos renumbered; got %+v", plan)
	}
	todos := snapshotOf(t, cs).TodosIn("l2")
	if todos[0].Order != 0 || todos[1].Order != 1 || todos[0].ID != "t3" {
		t.Fatalf("unexpected orders after renumber: %+v", todos)
	}
	if _, err := b.Renumber(context.Background(), "ghost"); err == nil {
		t.Fatalf("expected error for unknown scope")
	}
}

func TestBoard_RenameList(t *testing.T) {
	b, cs := newTestBoard(t)
	if err := b.RenameList(context.Background(), "l1", "Backlog"); err != nil {
		t.Fatalf("RenameList: %v", err)
	}
	if l, _ := snapshotOf(t, cs).FindList("l1"); l.Name != "Backlog" {
		t.Fatalf("expected rename; got %+v", l)
	}
}
