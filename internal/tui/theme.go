package tui

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette. Adaptive colors keep the board readable on light and dark
// terminals; faint styling is only applied on dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted       lipgloss.TerminalColor = ac("240", "243")
	colorHeaderBg    lipgloss.TerminalColor = ac("252", "236")
	colorHeaderFg    lipgloss.TerminalColor = ac("235", "252")
	colorSelectedBg  lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg  lipgloss.TerminalColor = ac("235", "255")
	colorAccent      lipgloss.TerminalColor = ac("27", "62")
	colorAccentFg    lipgloss.TerminalColor = ac("255", "235")
	colorError       lipgloss.TerminalColor = ac("160", "203")
	colorDoneFg      lipgloss.TerminalColor = ac("245", "240")
	colorDragGhostFg lipgloss.TerminalColor = ac("250", "238")
)

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

// applyColorProfilePreference honors NO_COLOR and otherwise trusts TERM and
// COLORTERM over termenv's probe when they claim more colors.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(profileFromEnv(termenv.ColorProfile(), os.Getenv("TERM"), os.Getenv("COLORTERM")))
}

func profileFromEnv(detected termenv.Profile, term, colorterm string) termenv.Profile {
	term = strings.ToLower(strings.TrimSpace(term))
	colorterm = strings.ToLower(strings.TrimSpace(colorterm))
	switch {
	case detected == termenv.Ascii:
		if strings.Contains(term, "256color") {
			return termenv.ANSI256
		}
		return detected
	case strings.Contains(colorterm, "truecolor"), strings.Contains(colorterm, "24bit"):
		return termenv.TrueColor
	case strings.Contains(term, "256color") && detected == termenv.ANSI:
		return termenv.ANSI256
	}
	return detected
}

// applyThemePreference picks the light or dark palette:
// TODOBOARD_THEME=light|dark|auto, then TODOBOARD_DARKBG=true|false, then the
// COLORFGBG "fg;bg" hint, then the macOS appearance setting.
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("TODOBOARD_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}
	if v := strings.TrimSpace(os.Getenv("TODOBOARD_DARKBG")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			lipgloss.SetHasDarkBackground(b)
			return
		}
	}
	if dark, ok := darkFromColorFGBG(os.Getenv("COLORFGBG")); ok {
		lipgloss.SetHasDarkBackground(dark)
		return
	}
	if runtime.GOOS == "darwin" {
		if dark, ok := macOSHasDarkAppearance(); ok {
			lipgloss.SetHasDarkBackground(dark)
		}
	}
}

func darkFromColorFGBG(v string) (bool, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return false, false
	}
	parts := strings.Split(v, ";")
	bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return false, false
	}
	return bg < 7, true
}

func macOSHasDarkAppearance() (dark bool, ok bool) {
	// Prints "Dark" in dark mode; exits 1 in light mode.
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	out, err := exec.CommandContext(ctx, "defaults", "read", "-g", "AppleInterfaceStyle").CombinedOutput()
	if ctx.Err() != nil {
		return false, false
	}
	if err == nil {
		return strings.Contains(strings.ToLower(string(out)), "dark"), true
	}
	if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 {
		return false, true
	}
	return false, false
}
