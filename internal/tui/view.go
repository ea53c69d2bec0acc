package tui

import (
	"fmt"
	"strings"

	"todoboard/internal/dragdrop"
	"todoboard/internal/model"

	"github.com/charmbracelet/lipgloss"
)

func (m boardModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.titleLine())
	sb.WriteString("\n")

	if len(m.lists) == 0 {
		sb.WriteString(styleMuted().Render("No lists yet. Add one with: todoboard lists add <name>"))
		sb.WriteString("\n\n")
		sb.WriteString(m.help.View(m.keys))
		return sb.String()
	}

	bodyH := 0
	if m.height > 0 {
		// title + help
		bodyH = m.height - 2
		if m.help.ShowAll {
			bodyH = m.height - 1 - len(m.keys.FullHelp()[1])
		}
		if bodyH < 1 {
			bodyH = 1
		}
	}

	w := m.colWidth()
	cols := make([]string, 0, len(m.lists)*2)
	for ci := range m.lists {
		if ci > 0 {
			cols = append(cols, strings.Repeat(" ", colGap))
		}
		cols = append(cols, normalizePane(m.renderColumn(ci, w), w, bodyH))
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m boardModel) titleLine() string {
	remaining := 0
	for _, todos := range m.todos {
		for _, t := range todos {
			if !t.Done {
				remaining++
			}
		}
	}
	title := lipgloss.NewStyle().Bold(true).Render("todoboard")
	parts := []string{title, styleMuted().Render(fmt.Sprintf("%d remaining", remaining))}

	if c, ok := m.tracker.Target(); ok {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorAccent).Render(m.describeTarget(c)))
	} else if m.tracker.State() == dragdrop.Dragging {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorAccent).Render("dragging"))
	}
	if m.status != "" {
		st := styleMuted()
		if m.statusErr {
			st = lipgloss.NewStyle().Foreground(colorError)
		}
		parts = append(parts, st.Render(m.status))
	}
	return strings.Join(parts, "  ")
}

func (m boardModel) describeTarget(c dragdrop.Candidate) string {
	if c.Scope == model.BoardScope {
		return fmt.Sprintf("drop: column %d", c.Index+1)
	}
	for _, l := range m.lists {
		if l.ID == c.Scope {
			return fmt.Sprintf("drop: %s, row %d", l.Name, c.Index+1)
		}
	}
	return "drop: ?"
}

func (m boardModel) renderColumn(ci, width int) string {
	l := m.lists[ci]
	_, dragID, dragging := m.tracker.Source()
	target, hasTarget := m.tracker.Target()

	remaining := 0
	for _, t := range m.todos[ci] {
		if !t.Done {
			remaining++
		}
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(colorHeaderFg).Background(colorHeaderBg)
	switch {
	case dragging && dragID == l.ID:
		header = header.Foreground(colorDragGhostFg)
	case hasTarget && target.Scope == l.ID:
		header = header.Foreground(colorAccentFg).Background(colorAccent)
	case ci == m.col:
		header = header.Foreground(colorSelectedFg).Background(colorSelectedBg)
	}
	lines := []string{header.Render(fitLine(fmt.Sprintf(" %s (%d)", l.Name, remaining), width))}

	item := lipgloss.NewStyle()
	for ri, t := range m.todos[ci] {
		box := "[ ]"
		if t.Done {
			box = "[x]"
		}
		line := fitLine(fmt.Sprintf(" %s %s", box, t.Text), width)
		st := item
		switch {
		case dragging && dragID == t.ID:
			st = st.Foreground(colorDragGhostFg)
		case ci == m.col && ri == m.row:
			st = st.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
		case t.Done:
			st = st.Foreground(colorDoneFg).Strikethrough(true)
		}
		lines = append(lines, st.Render(line))
	}
	return strings.Join(lines, "\n")
}
