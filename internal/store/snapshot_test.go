package store

import (
	"errors"
	"testing"
	"time"

	"todoboard/internal/model"
)

func seedBoard() Snapshot {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return Snapshot{
		Lists: []model.List{
			{ID: "l2", Name: "Doing", CreatedAt: t0, Order: 1},
			{ID: "l1", Name: "Todo", CreatedAt: t0, Order: 0},
		},
		Todos: []model.Todo{
			{ID: "t3", Text: "c", ListID: "l1", Order: 3, CreatedAt: t0},
			{ID: "t1", Text: "a", ListID: "l1", Order: 1, CreatedAt: t0, Done: true},
			{ID: "t2", Text: "b", ListID: "l1", Order: 2, CreatedAt: t0},
			{ID: "t9", Text: "z", ListID: "l2", Order: 0, CreatedAt: t0},
		},
	}
}

func TestSnapshot_VisualOrderAndSiblings(t *testing.T) {
	s := seedBoard()
	lists := s.SortedLists()
	if lists[0].ID != "l1" || lists[1].ID != "l2" {
		t.Fatalf("unexpected list order: %+v", lists)
	}
	todos := s.TodosIn("l1")
	if len(todos) != 3 || todos[0].ID != "t1" || todos[2].ID != "t3" {
		t.Fatalf("unexpected todo order: %+v", todos)
	}
	if got := len(s.Siblings(model.KindTodo, "l2")); got != 1 {
		t.Fatalf("expected 1 sibling in l2; got %d", got)
	}
	if got := len(s.Siblings(model.KindList, model.BoardScope)); got != 2 {
		t.Fatalf("expected 2 list siblings; got %d", got)
	}
	if got := s.Remaining("l1"); got != 2 {
		t.Fatalf("expected 2 remaining; got %d", got)
	}
}

func TestSnapshot_Source(t *testing.T) {
	s := seedBoard()
	src, err := s.Source(model.KindTodo, "t2")
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if src.Scope != "l1" || src.Order != 2 {
		t.Fatalf("unexpected source %+v", src)
	}
	src, err = s.Source(model.KindList, "l2")
	if err != nil || src.Scope != model.BoardScope {
		t.Fatalf("expected list source in board scope; got %+v %v", src, err)
	}
	var nf model.NotFoundError
	if _, err := s.Source(model.KindTodo, "nope"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError; got %v", err)
	}
}

func TestSnapshot_ApplyIsAllOrNothing(t *testing.T) {
	s := seedBoard()
	var b model.Batch
	b.Add(model.UpdateMutation(model.KindTodo, "t1", model.Fields{Order: model.FloatPtr(9)}))
	b.Add(model.DeleteMutation(model.KindTodo, "missing"))

	if _, err := s.Apply(b); err == nil {
		t.Fatalf("expected error for delete of a missing todo")
	}
	if got, _ := s.FindTodo("t1"); got.Order != 1 {
		t.Fatalf("expected snapshot untouched; t1 order is %v", got.Order)
	}
}

func TestSnapshot_ApplyRejectsTodoInMissingList(t *testing.T) {
	s := seedBoard()
	var b model.Batch
	b.Add(model.UpdateMutation(model.KindTodo, "t1", model.Fields{ListID: model.StrPtr("ghost")}))
	var nf model.NotFoundError
	if _, err := s.Apply(b); !errors.As(err, &nf) || nf.ID != "ghost" {
		t.Fatalf("expected list NotFoundError; got %v", err)
	}
}

func TestSnapshot_ApplyCreateAndMove(t *testing.T) {
	s := seedBoard()
	var b model.Batch
	b.Add(model.NewTodoMutation(model.Todo{ID: "t4", Text: "d", ListID: "l2", Order: 5}))
	b.Add(model.UpdateMutation(model.KindTodo, "t1", model.Fields{ListID: model.StrPtr("l2"), Order: model.FloatPtr(-1)}))
	next, err := s.Apply(b)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := next.TodosIn("l2")
	if len(got) != 3 || got[0].ID != "t1" || got[2].ID != "t4" {
		t.Fatalf("unexpected l2 after apply: %+v", got)
	}
	if len(s.TodosIn("l2")) != 1 {
		t.Fatalf("expected the original snapshot to be unchanged")
	}
}

func TestNormalizeOrders_FillsMissingPerScope(t *testing.T) {
	s := seedBoard()
	s.Todos = append(s.Todos, model.Todo{ID: "t5", ListID: "l1", CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
	fix := NormalizeOrders(&s, map[string]bool{"t5": true})
	if len(fix.Mutations) != 1 {
		t.Fatalf("expected one fixup; got %+v", fix.Mutations)
	}
	if got, _ := s.FindTodo("t5"); got.Order != 4 {
		t.Fatalf("expected t5 appended at 4; got %v", got.Order)
	}
}
