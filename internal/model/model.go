package model

import "time"

// Kind identifies which entity table a mutation targets.
type Kind string

const (
	KindTodo Kind = "todo"
	KindList Kind = "list"
)

func (k Kind) Valid() bool { return k == KindTodo || k == KindList }

// BoardScope is the ordering scope shared by every list on the board.
const BoardScope = "board"

type Todo struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"createdAt"`
	ListID    string    `json:"listId"`
	Order     float64   `json:"order"`
}

type List struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Order     float64   `json:"order"`
}

// Orderable is the slice of an entity the ordering engine works with.
type Orderable struct {
	ID    string  `json:"id"`
	Order float64 `json:"order"`
}

func (t Todo) Orderable() Orderable { return Orderable{ID: t.ID, Order: t.Order} }
func (l List) Orderable() Orderable { return Orderable{ID: l.ID, Order: l.Order} }

// Assignment is one planned order change. NewListID is set only when the entity
// changes scope.
type Assignment struct {
	Kind      Kind    `json:"kind"`
	EntityID  string  `json:"entityId"`
	NewOrder  float64 `json:"newOrder"`
	NewListID *string `json:"newListId,omitempty"`
}

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Fields carries field-level changes. Nil pointers are left untouched, which is
// what lets concurrent writers to different fields of one entity both win.
type Fields struct {
	Text      *string    `json:"text,omitempty"`
	Done      *bool      `json:"done,omitempty"`
	Name      *string    `json:"name,omitempty"`
	ListID    *string    `json:"listId,omitempty"`
	Order     *float64   `json:"order,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

func (f Fields) Empty() bool {
	return f.Text == nil && f.Done == nil && f.Name == nil && f.ListID == nil && f.Order == nil && f.CreatedAt == nil
}

// Merge overlays non-nil fields of o onto f.
func (f Fields) Merge(o Fields) Fields {
	if o.Text != nil {
		f.Text = o.Text
	}
	if o.Done != nil {
		f.Done = o.Done
	}
	if o.Name != nil {
		f.Name = o.Name
	}
	if o.ListID != nil {
		f.ListID = o.ListID
	}
	if o.Order != nil {
		f.Order = o.Order
	}
	if o.CreatedAt != nil {
		f.CreatedAt = o.CreatedAt
	}
	return f
}

type Mutation struct {
	Kind     Kind   `json:"kind"`
	EntityID string `json:"entityId"`
	Op       Op     `json:"op"`
	Fields   Fields `json:"fields"`
}

// Batch is applied as a unit: every mutation lands or none do.
type Batch struct {
	Mutations []Mutation `json:"mutations"`
}

func (b Batch) Empty() bool { return len(b.Mutations) == 0 }

func (b *Batch) Add(m Mutation) {
	b.Mutations = append(b.Mutations, m)
}

func (b *Batch) Append(o Batch) {
	b.Mutations = append(b.Mutations, o.Mutations...)
}

func NewTodoMutation(t Todo) Mutation {
	text, done, listID, ord, created := t.Text, t.Done, t.ListID, t.Order, t.CreatedAt
	return Mutation{
		Kind:     KindTodo,
		EntityID: t.ID,
		Op:       OpCreate,
		Fields:   Fields{Text: &text, Done: &done, ListID: &listID, Order: &ord, CreatedAt: &created},
	}
}

func NewListMutation(l List) Mutation {
	name, ord, created := l.Name, l.Order, l.CreatedAt
	return Mutation{
		Kind:     KindList,
		EntityID: l.ID,
		Op:       OpCreate,
		Fields:   Fields{Name: &name, Order: &ord, CreatedAt: &created},
	}
}

func DeleteMutation(kind Kind, id string) Mutation {
	return Mutation{Kind: kind, EntityID: id, Op: OpDelete}
}

func UpdateMutation(kind Kind, id string, f Fields) Mutation {
	return Mutation{Kind: kind, EntityID: id, Op: OpUpdate, Fields: f}
}

func StrPtr(s string) *string        { return &s }
func BoolPtr(b bool) *bool           { return &b }
func FloatPtr(f float64) *float64    { return &f }
func TimePtr(t time.Time) *time.Time { return &t }
