package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"todoboard/internal/dragdrop"
	"todoboard/internal/model"
	"todoboard/internal/mutate"
	"todoboard/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus/hooks/test"
)

func seedStore() *store.Memory {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return store.NewMemory(store.Snapshot{
		Lists: []model.List{
			{ID: "A", Name: "Todo", CreatedAt: t0, Order: 0},
			{ID: "B", Name: "Done", CreatedAt: t0, Order: 1},
		},
		Todos: []model.Todo{
			{ID: "a1", Text: "first", ListID: "A", Order: 1, CreatedAt: t0},
			{ID: "a2", Text: "second", ListID: "A", Order: 2, CreatedAt: t0},
			{ID: "b1", Text: "third", ListID: "B", Order: 10, CreatedAt: t0},
			{ID: "b2", Text: "fourth", ListID: "B", Order: 20, CreatedAt: t0},
		},
	})
}

func newTestModel(t *testing.T) (boardModel, *store.Memory) {
	t.Helper()
	mem := seedStore()
	logger, _ := test.NewNullLogger()
	em := mutate.NewEmitter(mem, logger)
	m, err := newBoardModel(context.Background(), Deps{
		Store:   mem,
		Board:   mutate.NewBoard(mem, em, &store.SeqGen{Prefix: "t"}),
		Emitter: em,
		Log:     logger,
	})
	if err != nil {
		t.Fatalf("newBoardModel: %v", err)
	}
	return m, mem
}

func send(m boardModel, msg tea.Msg) boardModel {
	next, _ := m.Update(msg)
	return next.(boardModel)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Button: tea.MouseButtonLeft, Action: action}
}

func todoIDs(t *testing.T, mem *store.Memory, listID string) []string {
	t.Helper()
	snap, err := mem.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	var out []string
	for _, td := range snap.TodosIn(listID) {
		out = append(out, td.ID)
	}
	return out
}

func TestBoard_KeyboardMoveFollowsSelection(t *testing.T) {
	m, mem := newTestModel(t)

	m = send(m, runes("J"))
	if got := strings.Join(todoIDs(t, mem, "A"), ","); got != "a2,a1" {
		t.Fatalf("expected a1 moved down; got %s", got)
	}
	if m.selID != "a1" || m.row != 1 {
		t.Fatalf("expected selection to follow a1; got %q row %d", m.selID, m.row)
	}

	m = send(m, runes("L"))
	if got := strings.Join(todoIDs(t, mem, "B"), ","); got != "b1,a1,b2" {
		t.Fatalf("expected a1 at row 1 of B; got %s", got)
	}
	if m.col != 1 || m.selID != "a1" {
		t.Fatalf("expected selection in B; got col %d %q", m.col, m.selID)
	}
	if m.tracker.State() != dragdrop.Idle {
		t.Fatalf("expected idle tracker after keyboard moves")
	}
}

func TestBoard_MouseDragAcrossLists(t *testing.T) {
	m, mem := newTestModel(t)
	stride := defaultColW + colGap

	m = send(m, mouse(tea.MouseActionPress, 1, firstRow))
	if m.tracker.State() != dragdrop.Dragging {
		t.Fatalf("expected drag to start on a todo row")
	}
	m = send(m, mouse(tea.MouseActionMotion, stride+1, firstRow+1))
	c, ok := m.tracker.Target()
	if !ok || c.Scope != "B" || c.Index != 1 {
		t.Fatalf("expected candidate B/1; got %+v %v", c, ok)
	}
	if !strings.Contains(m.View(), "drop: Done, row 2") {
		t.Fatalf("expected drop hint in view")
	}

	m = send(m, mouse(tea.MouseActionRelease, stride+1, firstRow+1))
	if got := strings.Join(todoIDs(t, mem, "B"), ","); got != "b1,a1,b2" {
		t.Fatalf("expected a1 between b1 and b2; got %s", got)
	}
	if m.tracker.State() != dragdrop.Idle {
		t.Fatalf("expected idle after release")
	}
}

func TestBoard_EscapeCancelsDrag(t *testing.T) {
	m, mem := newTestModel(t)
	before, _ := mem.Snapshot(context.Background())

	m = send(m, mouse(tea.MouseActionPress, 1, firstRow))
	m = send(m, mouse(tea.MouseActionMotion, defaultColW+colGap+1, firstRow))
	m = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	m = send(m, mouse(tea.MouseActionRelease, defaultColW+colGap+1, firstRow))

	after, _ := mem.Snapshot(context.Background())
	if strings.Join(todoIDs(t, mem, "A"), ",") != "a1,a2" || len(after.Todos) != len(before.Todos) {
		t.Fatalf("expected board unchanged after cancel")
	}
	if m.status != "drag cancelled" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestBoard_DragListHeader(t *testing.T) {
	m, mem := newTestModel(t)
	stride := defaultColW + colGap

	m = send(m, mouse(tea.MouseActionPress, stride+2, headerRow))
	m = send(m, mouse(tea.MouseActionMotion, 0, headerRow))
	m = send(m, mouse(tea.MouseActionRelease, 0, headerRow))

	snap, _ := mem.Snapshot(context.Background())
	if snap.SortedLists()[0].ID != "B" {
		t.Fatalf("expected list B first; got %+v", snap.SortedLists())
	}
	_ = m
}

func TestBoard_ToggleAndClear(t *testing.T) {
	m, mem := newTestModel(t)
	m = send(m, runes("x"))
	m = send(m, runes("c"))
	if got := strings.Join(todoIDs(t, mem, "A"), ","); got != "a2" {
		t.Fatalf("expected a1 cleared; got %s", got)
	}
	if m.selID != "a2" {
		t.Fatalf("expected selection to fall back to a2; got %q", m.selID)
	}
}

func TestBoard_ColAtSkipsGaps(t *testing.T) {
	m, _ := newTestModel(t)
	if ci, ok := m.colAt(defaultColW); ok {
		t.Fatalf("expected gap to hit nothing; got %d", ci)
	}
	if ci, ok := m.colAt(defaultColW + colGap); !ok || ci != 1 {
		t.Fatalf("expected column 1; got %d %v", ci, ok)
	}
	if _, ok := m.colAt(3 * (defaultColW + colGap)); ok {
		t.Fatalf("expected nothing past the last column")
	}
}

func TestProfileFromEnv(t *testing.T) {
	if got := profileFromEnv(termenv.ANSI, "xterm-256color", ""); got != termenv.ANSI256 {
		t.Fatalf("expected ANSI256; got %v", got)
	}
	if got := profileFromEnv(termenv.ANSI256, "", "truecolor"); got != termenv.TrueColor {
		t.Fatalf("expected TrueColor; got %v", got)
	}
	if got := profileFromEnv(termenv.Ascii, "xterm", "truecolor"); got != termenv.Ascii {
		t.Fatalf("expected Ascii to stay; got %v", got)
	}
}

func TestFitLine(t *testing.T) {
	if got := fitLine("abcdef", 4); got != "abc…" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := fitLine("ab", 4); got != "ab  " {
		t.Fatalf("unexpected padding %q", got)
	}
}
