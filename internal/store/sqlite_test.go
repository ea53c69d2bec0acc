package store

import (
	"context"
	"testing"
	"time"

	"todoboard/internal/model"
	"todoboard/internal/order"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_CommitAndSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var b model.Batch
	b.Add(model.NewListMutation(model.List{ID: "l1", Name: "Inbox", CreatedAt: t0, Order: 0}))
	b.Add(model.NewTodoMutation(model.Todo{ID: "t1", Text: "milk", ListID: "l1", CreatedAt: t0, Order: 1}))
	b.Add(model.NewTodoMutation(model.Todo{ID: "t2", Text: "eggs", ListID: "l1", CreatedAt: t0, Order: 0.5, Done: true}))
	if err := s.Commit(ctx, b); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	todos := snap.TodosIn("l1")
	if len(todos) != 2 || todos[0].ID != "t2" || !todos[0].Done || todos[1].Text != "milk" {
		t.Fatalf("unexpected todos: %+v", todos)
	}
	if l, ok := snap.FindList("l1"); !ok || l.Name != "Inbox" || !l.CreatedAt.Equal(t0) {
		t.Fatalf("unexpected list: %+v", l)
	}
}

func TestSQLite_FailedBatchRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	var seed model.Batch
	seed.Add(model.NewListMutation(model.List{ID: "l1", Name: "Inbox"}))
	seed.Add(model.NewTodoMutation(model.Todo{ID: "t1", Text: "a", ListID: "l1", Order: 1}))
	if err := s.Commit(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var b model.Batch
	b.Add(model.UpdateMutation(model.KindTodo, "t1", model.Fields{Order: model.FloatPtr(7)}))
	b.Add(model.DeleteMutation(model.KindTodo, "ghost"))
	if err := s.Commit(ctx, b); err == nil {
		t.Fatalf("expected error")
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got, _ := snap.FindTodo("t1"); got.Order != 1 {
		t.Fatalf("expected t1 order 1 after rollback; got %v", got.Order)
	}
}

func TestSQLite_NormalizePersistsMissingOrders(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	var seed model.Batch
	seed.Add(model.NewListMutation(model.List{ID: "l1", Name: "Inbox"}))
	seed.Add(model.NewTodoMutation(model.Todo{ID: "t1", Text: "a", ListID: "l1", Order: 3}))
	if err := s.Commit(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Rows written by an older client carry no order.
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO todos(id, text, done, created_at_unixms, list_id, ord) VALUES('t0', 'legacy', 0, 1, 'l1', NULL)`); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got, _ := snap.FindTodo("t0"); got.Order != 4 {
		t.Fatalf("expected legacy row ordered after max in memory; got %v", got.Order)
	}

	fix, err := s.Normalize(ctx)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(fix.Mutations) != 1 {
		t.Fatalf("expected one fixup; got %+v", fix.Mutations)
	}
	var ord *float64
	if err := s.db.QueryRowContext(ctx, `SELECT ord FROM todos WHERE id = 't0'`).Scan(&ord); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if ord == nil || *ord != 4 {
		t.Fatalf("expected persisted order 4; got %v", ord)
	}

	fix, err = s.Normalize(ctx)
	if err != nil || !fix.Empty() {
		t.Fatalf("expected second normalize to be a no-op; got %+v %v", fix, err)
	}
}

func TestSQLite_MoveToTailPastUnorderedRow(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	var seed model.Batch
	seed.Add(model.NewListMutation(model.List{ID: "L", Name: "Inbox"}))
	seed.Add(model.NewTodoMutation(model.Todo{ID: "a", Text: "a", ListID: "L", Order: 1}))
	seed.Add(model.NewTodoMutation(model.Todo{ID: "b", Text: "b", ListID: "L", Order: 2}))
	if err := s.Commit(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO todos(id, text, done, created_at_unixms, list_id, ord) VALUES('n', 'n', 0, 1, 'L', NULL)`); err != nil {
		t.Fatalf("insert unordered row: %v", err)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	src, err := snap.Source(model.KindTodo, "a")
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	plan, err := order.PlanMove(src, "L", 2, snap.Siblings(model.KindTodo, "L"))
	if err != nil {
		t.Fatalf("PlanMove: %v", err)
	}
	var b model.Batch
	for _, as := range plan.Assignments {
		b.Add(model.UpdateMutation(as.Kind, as.EntityID, model.Fields{Order: model.FloatPtr(as.NewOrder)}))
	}
	if err := s.Commit(ctx, b); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	for i := 0; i < 2; i++ {
		snap, err = s.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		var got []string
		for _, td := range snap.TodosIn("L") {
			got = append(got, td.ID)
		}
		if len(got) != 3 || got[0] != "b" || got[1] != "n" || got[2] != "a" {
			t.Fatalf("expected [b n a]; got %v", got)
		}
	}
	var ord *float64
	if err := s.db.QueryRowContext(ctx, `SELECT ord FROM todos WHERE id = 'n'`).Scan(&ord); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if ord == nil {
		t.Fatalf("expected the unordered row to get a stored key with the commit")
	}
}

func TestSQLite_SubscribersSeeCommittedState(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	var got []Snapshot
	s.Subscribe(func(snap Snapshot) { got = append(got, snap) })

	var b model.Batch
	b.Add(model.NewListMutation(model.List{ID: "l1", Name: "Inbox"}))
	if err := s.Commit(ctx, b); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(got) != 1 || len(got[0].Lists) != 1 {
		t.Fatalf("expected one notification with the new list; got %+v", got)
	}
}
