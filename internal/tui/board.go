package tui

import (
	"context"
	"errors"
	"fmt"

	"todoboard/internal/dragdrop"
	"todoboard/internal/model"
	"todoboard/internal/store"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

type snapshotMsg store.Snapshot

// boardModel renders lists as columns. Mouse drags and the J/K/H/L keys both go
// through the drop-zone tracker; nothing is written until a drop.
type boardModel struct {
	ctx     context.Context
	deps    Deps
	log     logrus.FieldLogger
	tracker *dragdrop.Tracker
	kb      dragdrop.Keyboard
	keys    keyMap
	help    help.Model
	updates chan store.Snapshot

	lists []model.List
	todos [][]model.Todo
	col   int
	row   int
	selID string

	width  int
	height int

	status    string
	statusErr bool
}

func newBoardModel(ctx context.Context, deps Deps) (boardModel, error) {
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	tr := dragdrop.NewTracker(deps.Store, deps.Emitter, log)
	m := boardModel{
		ctx:     ctx,
		deps:    deps,
		log:     log,
		tracker: tr,
		kb:      dragdrop.Keyboard{T: tr},
		keys:    defaultKeyMap(),
		help:    help.New(),
		updates: make(chan store.Snapshot, 1),
	}
	snap, err := deps.Store.Snapshot(ctx)
	if err != nil {
		return boardModel{}, err
	}
	m.setSnapshot(snap)
	return m, nil
}

// push hands a snapshot to the running program, keeping only the newest when
// the program has not caught up. It never blocks: stores notify from inside
// Commit, which may run on the program's own goroutine.
func (m boardModel) push(s store.Snapshot) {
	select {
	case m.updates <- s:
		return
	default:
	}
	select {
	case <-m.updates:
	default:
	}
	select {
	case m.updates <- s:
	default:
	}
}

func waitForSnapshot(ch <-chan store.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-ch)
	}
}

func (m boardModel) Init() tea.Cmd { return waitForSnapshot(m.updates) }

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case snapshotMsg:
		m.setSnapshot(store.Snapshot(msg))
		return m, waitForSnapshot(m.updates)
	case tea.MouseMsg:
		return m.updateMouse(msg), nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m boardModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		if m.tracker.State() == dragdrop.Dragging {
			m.tracker.Cancel()
			m.setStatus("drag cancelled", false)
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		m.selectRow(m.row - 1)
	case key.Matches(msg, m.keys.Down):
		m.selectRow(m.row + 1)
	case key.Matches(msg, m.keys.Left):
		m.selectCol(m.col - 1)
	case key.Matches(msg, m.keys.Right):
		m.selectCol(m.col + 1)
	case key.Matches(msg, m.keys.MoveUp):
		m.stepTodo(-1)
	case key.Matches(msg, m.keys.MoveDown):
		m.stepTodo(1)
	case key.Matches(msg, m.keys.MoveLeft):
		m.shiftTodo(-1)
	case key.Matches(msg, m.keys.MoveRight):
		m.shiftTodo(1)
	case key.Matches(msg, m.keys.ListLeft):
		m.stepList(-1)
	case key.Matches(msg, m.keys.ListRight):
		m.stepList(1)
	case key.Matches(msg, m.keys.Toggle):
		if t, ok := m.selectedTodo(); ok {
			_, err := m.deps.Board.ToggleDone(m.ctx, t.ID)
			m.after(err, "toggled")
		}
	case key.Matches(msg, m.keys.ToggleAll):
		if l, ok := m.selectedList(); ok {
			_, err := m.deps.Board.ToggleAll(m.ctx, l.ID)
			m.after(err, "toggled all in "+l.Name)
		}
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selectedTodo(); ok {
			err := m.deps.Board.DeleteTodo(m.ctx, t.ID)
			m.after(err, "deleted")
		}
	case key.Matches(msg, m.keys.Clear):
		if l, ok := m.selectedList(); ok {
			n, err := m.deps.Board.DeleteCompleted(m.ctx, l.ID)
			m.after(err, fmt.Sprintf("cleared %d completed", n))
		}
	case key.Matches(msg, m.keys.Renumber):
		if l, ok := m.selectedList(); ok {
			plan, err := m.deps.Board.Renumber(m.ctx, l.ID)
			m.after(err, fmt.Sprintf("renumbered %d", len(plan.Assignments)))
		}
	}
	return m, nil
}

func (m *boardModel) stepTodo(delta int) {
	t, ok := m.selectedTodo()
	if !ok {
		return
	}
	_, err := m.kb.Step(m.ctx, model.KindTodo, t.ID, delta)
	m.after(err, "")
}

func (m *boardModel) shiftTodo(delta int) {
	t, ok := m.selectedTodo()
	if !ok {
		return
	}
	_, err := m.kb.Shift(m.ctx, t.ID, delta)
	m.after(err, "")
}

func (m *boardModel) stepList(delta int) {
	l, ok := m.selectedList()
	if !ok {
		return
	}
	_, err := m.kb.Step(m.ctx, model.KindList, l.ID, delta)
	if err == nil && m.selID == "" {
		m.col += delta
	}
	m.after(err, "")
}

func (m boardModel) updateMouse(msg tea.MouseMsg) boardModel {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m
		}
		m.press(msg.X, msg.Y)
	case tea.MouseActionMotion:
		m.hover(msg.X, msg.Y)
	case tea.MouseActionRelease:
		if m.tracker.State() != dragdrop.Dragging {
			return m
		}
		plan, err := m.tracker.Drop(m.ctx)
		switch {
		case err != nil:
			m.after(err, "")
		case plan.Empty():
			m.setStatus("", false)
		case plan.Renumbered:
			m.after(nil, fmt.Sprintf("moved (renumbered %d)", len(plan.Assignments)))
		default:
			m.after(nil, "moved")
		}
	}
	return m
}

func (m *boardModel) press(x, y int) {
	ci, ok := m.colAt(x)
	if !ok {
		return
	}
	switch {
	case y == headerRow:
		m.selectCol(ci)
		if err := m.tracker.Start(m.ctx, model.KindList, m.lists[ci].ID); err != nil {
			m.setStatus(err.Error(), true)
		}
	case y >= firstRow:
		r := y - firstRow
		if r >= len(m.todos[ci]) {
			return
		}
		m.col = ci
		m.selectRow(r)
		if err := m.tracker.Start(m.ctx, model.KindTodo, m.todos[ci][r].ID); err != nil {
			m.setStatus(err.Error(), true)
		}
	}
}

func (m *boardModel) hover(x, y int) {
	kind, _, ok := m.tracker.Source()
	if !ok {
		return
	}
	if kind == model.KindList {
		stride := m.colWidth() + colGap
		boxes := make([]dragdrop.Box, 0, len(m.lists))
		for i, l := range m.lists {
			boxes = append(boxes, dragdrop.Box{ID: l.ID, Top: float64(i * stride), Height: float64(m.colWidth())})
		}
		m.tracker.Over(model.BoardScope, boxes, float64(x))
		return
	}

	ci, ok := m.colAt(x)
	if !ok {
		if c, has := m.tracker.Target(); has {
			m.tracker.Leave(c.Scope)
		}
		return
	}
	todos := m.todos[ci]
	boxes := make([]dragdrop.Box, 0, len(todos))
	for i, t := range todos {
		boxes = append(boxes, dragdrop.Box{ID: t.ID, Top: float64(firstRow + i), Height: 1})
	}
	// Compare against the middle of the pointer's cell.
	m.tracker.Over(m.lists[ci].ID, boxes, float64(y)+0.5)
}

func (m *boardModel) after(err error, ok string) {
	if err != nil {
		m.setStatus(err.Error(), true)
		if !errors.Is(err, dragdrop.ErrInvalidDragSource) {
			m.log.WithError(err).Warn("board operation failed")
		}
	} else {
		m.setStatus(ok, false)
	}
	m.reload()
}

func (m *boardModel) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *boardModel) reload() {
	snap, err := m.deps.Store.Snapshot(m.ctx)
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.setSnapshot(snap)
}

func (m *boardModel) setSnapshot(snap store.Snapshot) {
	m.lists = snap.SortedLists()
	m.todos = make([][]model.Todo, len(m.lists))
	for i, l := range m.lists {
		m.todos[i] = snap.TodosIn(l.ID)
	}
	// Follow the selected todo wherever it went.
	if m.selID != "" {
		for ci := range m.todos {
			for ri, t := range m.todos[ci] {
				if t.ID == m.selID {
					m.col, m.row = ci, ri
					return
				}
			}
		}
		m.selID = ""
	}
	m.selectCol(m.col)
}

func (m *boardModel) selectCol(ci int) {
	if len(m.lists) == 0 {
		m.col, m.row, m.selID = 0, 0, ""
		return
	}
	m.col = clampInt(ci, 0, len(m.lists)-1)
	m.selectRow(m.row)
}

func (m *boardModel) selectRow(r int) {
	if len(m.lists) == 0 || len(m.todos[m.col]) == 0 {
		m.row, m.selID = 0, ""
		return
	}
	m.row = clampInt(r, 0, len(m.todos[m.col])-1)
	m.selID = m.todos[m.col][m.row].ID
}

func (m boardModel) selectedList() (model.List, bool) {
	if m.col < 0 || m.col >= len(m.lists) {
		return model.List{}, false
	}
	return m.lists[m.col], true
}

func (m boardModel) selectedTodo() (model.Todo, bool) {
	if _, ok := m.selectedList(); !ok {
		return model.Todo{}, false
	}
	if m.row < 0 || m.row >= len(m.todos[m.col]) {
		return model.Todo{}, false
	}
	return m.todos[m.col][m.row], true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
