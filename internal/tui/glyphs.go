package tui

import (
	"os"
	"strings"

	"calendo/internal/busyness"
)

// Fonts differ; CALENDO_TUI_GLYPHS=ascii swaps the markers for plain ASCII.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var currentGlyphs = glyphSetUnicode

func applyGlyphPreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("CALENDO_TUI_GLYPHS"))) {
	case "", "unicode", "utf8":
		currentGlyphs = glyphSetUnicode
	case "ascii":
		currentGlyphs = glyphSetASCII
	}
}

func glyphTier(t busyness.Tier) string {
	if currentGlyphs == glyphSetASCII {
		switch t {
		case busyness.None:
			return "."
		case busyness.Light:
			return "o"
		case busyness.Moderate:
			return "O"
		default:
			return "@"
		}
	}
	switch t {
	case busyness.None:
		return "·"
	case busyness.Light:
		return "•"
	case busyness.Moderate:
		return "●"
	default:
		return "◉"
	}
}

func glyphEllipsis() string {
	if currentGlyphs == glyphSetASCII {
		return "..."
	}
	return "…"
}

func glyphOverflow() string {
	if currentGlyphs == glyphSetASCII {
		return "+>"
	}
	return "↳"
}
