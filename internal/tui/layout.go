package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// Screen geometry shared by rendering and mouse hit tests.
const (
	headerRow   = 1 // list headers
	firstRow    = 2 // first todo row
	colGap      = 2
	minColW     = 16
	defaultColW = 24
)

func (m boardModel) colWidth() int {
	n := len(m.lists)
	if m.width <= 0 || n == 0 {
		return defaultColW
	}
	w := (m.width - colGap*(n-1)) / n
	if w < minColW {
		return minColW
	}
	return w
}

// colAt maps a screen column to a list index. Gaps between columns hit nothing.
func (m boardModel) colAt(x int) (int, bool) {
	if x < 0 {
		return 0, false
	}
	w := m.colWidth()
	stride := w + colGap
	ci := x / stride
	if x%stride >= w || ci >= len(m.lists) {
		return 0, false
	}
	return ci, true
}

// fitLine truncates s to width cells (ANSI-aware) and pads it to exactly width.
func fitLine(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if xansi.StringWidth(s) > width {
		s = xansi.Truncate(s, width, "…")
	}
	if w := xansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// normalizePane forces s to exactly width columns and height lines.
func normalizePane(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i := range lines {
		lines[i] = fitLine(lines[i], width)
	}
	return strings.Join(lines, "\n")
}
