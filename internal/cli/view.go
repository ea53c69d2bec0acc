package cli

import (
	"fmt"
	"strings"

	"todoboard/internal/model"
	"todoboard/internal/store"
)

type listView struct {
	model.List
	Remaining int          `json:"remaining"`
	Todos     []model.Todo `json:"todos,omitempty"`
}

// boardView is the whole board in visual order.
type boardView struct {
	Lists []listView `json:"lists"`
}

func newBoardView(snap store.Snapshot, withTodos bool) boardView {
	lists := snap.SortedLists()
	out := boardView{Lists: make([]listView, 0, len(lists))}
	for _, l := range lists {
		lv := listView{List: l, Remaining: snap.Remaining(l.ID)}
		if withTodos {
			lv.Todos = snap.TodosIn(l.ID)
		}
		out.Lists = append(out.Lists, lv)
	}
	return out
}

func (b boardView) Text() string {
	var sb strings.Builder
	for i, l := range b.Lists {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "## %s (%d left)  %s\n", l.Name, l.Remaining, l.ID)
		for _, t := range l.Todos {
			sb.WriteString(todoLine(t))
		}
	}
	return sb.String()
}

type todosView []model.Todo

func (v todosView) Text() string {
	var sb strings.Builder
	for _, t := range v {
		sb.WriteString(todoLine(t))
	}
	return sb.String()
}

func todoLine(t model.Todo) string {
	box := "[ ]"
	if t.Done {
		box = "[x]"
	}
	return fmt.Sprintf("  %s %s  %s\n", box, t.Text, t.ID)
}
