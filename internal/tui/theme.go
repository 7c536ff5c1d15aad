package tui

import (
	"os"
	"strconv"
	"strings"

	"calendo/internal/busyness"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The calendar must stay readable on light and dark backgrounds, so chrome
// uses adaptive colors and "faint" only on dark terminals.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted          lipgloss.TerminalColor = ac("240", "243")
	colorChromeMutedFg  lipgloss.TerminalColor = ac("240", "245")
	colorSelectedBg     lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg     lipgloss.TerminalColor = ac("235", "255")
	colorSurfaceBg      lipgloss.TerminalColor = ac("255", "235")
	colorSurfaceFg      lipgloss.TerminalColor = ac("235", "252")
	colorControlBg      lipgloss.TerminalColor = ac("252", "235")
	colorInputBg        lipgloss.TerminalColor = ac("254", "234")
	colorAccent         lipgloss.TerminalColor = ac("27", "62")
	colorAccentFg       lipgloss.TerminalColor = ac("255", "235")
	colorFlashErrorBg   lipgloss.TerminalColor = ac("196", "160")
	colorModalBorder    lipgloss.TerminalColor = ac("250", "243")
	colorModalHeaderBg                         = colorControlBg
	colorModalSurfaceBg                        = colorSurfaceBg

	// Busyness tiers: gray, green, yellow, red.
	colorTierNone     lipgloss.TerminalColor = ac("245", "242")
	colorTierLight    lipgloss.TerminalColor = lipgloss.Color("#2ecc71")
	colorTierModerate lipgloss.TerminalColor = lipgloss.Color("#f1c40f")
	colorTierBusy     lipgloss.TerminalColor = lipgloss.Color("#e74c3c")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func tierColor(t busyness.Tier) lipgloss.TerminalColor {
	switch t {
	case busyness.Light:
		return colorTierLight
	case busyness.Moderate:
		return colorTierModerate
	case busyness.Busy:
		return colorTierBusy
	default:
		return colorTierNone
	}
}

// applyColorProfilePreference sets Lip Gloss's color profile for the TUI.
//
// termenv.EnvColorProfile honors CLICOLOR, which can disable colors in a TUI;
// here only NO_COLOR is honored and TERM/COLORTERM may upgrade the guess.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	switch {
	case strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit"):
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	case strings.Contains(term, "256color"):
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures background detection.
//
// Priority:
// 1) CALENDO_TUI_THEME=light|dark|auto
// 2) COLORFGBG heuristic ("fg;bg")
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("CALENDO_TUI_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}

	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}
