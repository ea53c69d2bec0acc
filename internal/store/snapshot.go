package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"todoboard/internal/model"
	"todoboard/internal/order"
)

// Snapshot is an immutable view of the board at one point in time. Planning
// reads siblings from a snapshot and never writes back into it.
type Snapshot struct {
	Lists []model.List `json:"lists"`
	Todos []model.Todo `json:"todos"`
}

func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Lists: append([]model.List(nil), s.Lists...),
		Todos: append([]model.Todo(nil), s.Todos...),
	}
}

func (s Snapshot) FindTodo(id string) (model.Todo, bool) {
	id = strings.TrimSpace(id)
	for _, t := range s.Todos {
		if t.ID == id {
			return t, true
		}
	}
	return model.Todo{}, false
}

func (s Snapshot) FindList(id string) (model.List, bool) {
	id = strings.TrimSpace(id)
	for _, l := range s.Lists {
		if l.ID == id {
			return l, true
		}
	}
	return model.List{}, false
}

// SortedLists returns the board's lists in visual order.
func (s Snapshot) SortedLists() []model.List {
	out := append([]model.List(nil), s.Lists...)
	sort.SliceStable(out, func(i, j int) bool {
		return order.Compare(out[i].Orderable(), out[j].Orderable()) < 0
	})
	return out
}

// TodosIn returns one list's todos in visual order.
func (s Snapshot) TodosIn(listID string) []model.Todo {
	listID = strings.TrimSpace(listID)
	var out []model.Todo
	for _, t := range s.Todos {
		if t.ListID == listID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return order.Compare(out[i].Orderable(), out[j].Orderable()) < 0
	})
	return out
}

// Remaining counts the todos in a list that are not done.
func (s Snapshot) Remaining(listID string) int {
	n := 0
	for _, t := range s.TodosIn(listID) {
		if !t.Done {
			n++
		}
	}
	return n
}

// Siblings returns the members of a scope: every list for KindList, or the todos
// of list scope for KindTodo.
func (s Snapshot) Siblings(kind model.Kind, scope string) []model.Orderable {
	var out []model.Orderable
	switch kind {
	case model.KindList:
		for _, l := range s.Lists {
			out = append(out, l.Orderable())
		}
	case model.KindTodo:
		scope = strings.TrimSpace(scope)
		for _, t := range s.Todos {
			if t.ListID == scope {
				out = append(out, t.Orderable())
			}
		}
	}
	return out
}

// Source describes an existing entity as the planner needs it.
func (s Snapshot) Source(kind model.Kind, id string) (order.Source, error) {
	switch kind {
	case model.KindTodo:
		t, ok := s.FindTodo(id)
		if !ok {
			return order.Source{}, model.NotFoundError{Kind: string(kind), ID: id}
		}
		return order.Source{Kind: kind, ID: t.ID, Scope: t.ListID, Order: t.Order}, nil
	case model.KindList:
		l, ok := s.FindList(id)
		if !ok {
			return order.Source{}, model.NotFoundError{Kind: string(kind), ID: id}
		}
		return order.Source{Kind: kind, ID: l.ID, Scope: model.BoardScope, Order: l.Order}, nil
	}
	return order.Source{}, fmt.Errorf("unknown entity kind %q", kind)
}

// Apply returns a copy of s with b applied. It fails without side effects if any
// mutation does not fit the snapshot, which is how stores keep batches atomic.
func (s Snapshot) Apply(b model.Batch) (Snapshot, error) {
	next := s.Clone()
	touched := map[string]bool{}
	for _, m := range b.Mutations {
		if err := next.apply(m); err != nil {
			return Snapshot{}, err
		}
		if m.Kind == model.KindTodo && m.Op != model.OpDelete {
			touched[m.EntityID] = true
		}
	}
	for id := range touched {
		t, ok := next.FindTodo(id)
		if !ok {
			continue
		}
		if _, ok := next.FindList(t.ListID); !ok {
			return Snapshot{}, model.NotFoundError{Kind: string(model.KindList), ID: t.ListID}
		}
	}
	return next, nil
}

func (s *Snapshot) apply(m model.Mutation) error {
	id := strings.TrimSpace(m.EntityID)
	if id == "" {
		return errors.New("mutation is missing an entity id")
	}
	if !m.Kind.Valid() {
		return fmt.Errorf("unknown entity kind %q", m.Kind)
	}

	switch m.Kind {
	case model.KindTodo:
		idx := -1
		for i := range s.Todos {
			if s.Todos[i].ID == id {
				idx = i
				break
			}
		}
		switch m.Op {
		case model.OpCreate:
			if idx >= 0 {
				return fmt.Errorf("todo already exists: %s", id)
			}
			t := model.Todo{ID: id}
			applyTodoFields(&t, m.Fields)
			s.Todos = append(s.Todos, t)
		case model.OpUpdate:
			if idx < 0 {
				return model.NotFoundError{Kind: string(m.Kind), ID: id}
			}
			applyTodoFields(&s.Todos[idx], m.Fields)
		case model.OpDelete:
			if idx < 0 {
				return model.NotFoundError{Kind: string(m.Kind), ID: id}
			}
			s.Todos = append(s.Todos[:idx], s.Todos[idx+1:]...)
		default:
			return fmt.Errorf("unknown op %q", m.Op)
		}

	case model.KindList:
		idx := -1
		for i := range s.Lists {
			if s.Lists[i].ID == id {
				idx = i
				break
			}
		}
		switch m.Op {
		case model.OpCreate:
			if idx >= 0 {
				return fmt.Errorf("list already exists: %s", id)
			}
			l := model.List{ID: id}
			applyListFields(&l, m.Fields)
			s.Lists = append(s.Lists, l)
		case model.OpUpdate:
			if idx < 0 {
				return model.NotFoundError{Kind: string(m.Kind), ID: id}
			}
			applyListFields(&s.Lists[idx], m.Fields)
		case model.OpDelete:
			if idx < 0 {
				return model.NotFoundError{Kind: string(m.Kind), ID: id}
			}
			s.Lists = append(s.Lists[:idx], s.Lists[idx+1:]...)
		default:
			return fmt.Errorf("unknown op %q", m.Op)
		}
	}
	return nil
}

func applyTodoFields(t *model.Todo, f model.Fields) {
	if f.Text != nil {
		t.Text = *f.Text
	}
	if f.Done != nil {
		t.Done = *f.Done
	}
	if f.ListID != nil {
		t.ListID = strings.TrimSpace(*f.ListID)
	}
	if f.Order != nil {
		t.Order = *f.Order
	}
	if f.CreatedAt != nil {
		t.CreatedAt = *f.CreatedAt
	}
}

func applyListFields(l *model.List, f model.Fields) {
	if f.Name != nil {
		l.Name = *f.Name
	}
	if f.Order != nil {
		l.Order = *f.Order
	}
	if f.CreatedAt != nil {
		l.CreatedAt = *f.CreatedAt
	}
}

// NormalizeOrders gives every entity in missing an order after its scope's
// current maximum, updating s in place. The returned batch persists the fixups.
func NormalizeOrders(s *Snapshot, missing map[string]bool) model.Batch {
	var b model.Batch
	if len(missing) == 0 {
		return b
	}

	var pending []order.Pending
	for _, l := range s.Lists {
		p := order.Pending{ID: l.ID, Scope: model.BoardScope, CreatedAt: l.CreatedAt}
		if !missing[l.ID] {
			p.Order = model.FloatPtr(l.Order)
		}
		pending = append(pending, p)
	}
	listFix := order.Normalize(pending)

	pending = pending[:0]
	for _, t := range s.Todos {
		p := order.Pending{ID: t.ID, Scope: t.ListID, CreatedAt: t.CreatedAt}
		if !missing[t.ID] {
			p.Order = model.FloatPtr(t.Order)
		}
		pending = append(pending, p)
	}
	todoFix := order.Normalize(pending)

	for i := range s.Lists {
		if o, ok := listFix[s.Lists[i].ID]; ok {
			s.Lists[i].Order = o
			b.Add(model.UpdateMutation(model.KindList, s.Lists[i].ID, model.Fields{Order: model.FloatPtr(o)}))
		}
	}
	for i := range s.Todos {
		if o, ok := todoFix[s.Todos[i].ID]; ok {
			s.Todos[i].Order = o
			b.Add(model.UpdateMutation(model.KindTodo, s.Todos[i].ID, model.Fields{Order: model.FloatPtr(o)}))
		}
	}
	return b
}
