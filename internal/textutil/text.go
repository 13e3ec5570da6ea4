// Package textutil makes file names safe and measurable for terminal cells.
package textutil

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Ellipsis marks truncated text.
const Ellipsis = "…"

// Bidi and zero-width runes are shown as labels so a name cannot reorder or
// hide the text around it.
var formattingRuneLabels = map[rune]string{
	0x061C: "⟪ALM⟫",
	0x200B: "⟪ZWSP⟫",
	0x200C: "⟪ZWNJ⟫",
	0x200D: "⟪ZWJ⟫",
	0x200E: "⟪LRM⟫",
	0x200F: "⟪RLM⟫",
	0x202A: "⟪LRE⟫",
	0x202B: "⟪RLE⟫",
	0x202C: "⟪PDF⟫",
	0x202D: "⟪LRO⟫",
	0x202E: "⟪RLO⟫",
	0x2028: "⟪LSEP⟫",
	0x2029: "⟪PSEP⟫",
	0x2066: "⟪LRI⟫",
	0x2067: "⟪RLI⟫",
	0x2068: "⟪FSI⟫",
	0x2069: "⟪PDI⟫",
	0xFEFF: "⟪BOM⟫",
}

// SafeName rewrites a file name for display: control characters become '?',
// whitespace controls become spaces and formatting runes become labels.
// Names that need no rewriting are returned unchanged.
func SafeName(name string) string {
	if !needsRewrite(name) {
		return name
	}

	var b strings.Builder
	b.Grow(len(name) + 8)
	for _, r := range name {
		if label, ok := formattingRuneLabels[r]; ok {
			b.WriteString(label)
			continue
		}
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteByte(' ')
		case r < 0x20 || r == 0x7f:
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func needsRewrite(name string) bool {
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return true
		}
		if _, ok := formattingRuneLabels[r]; ok {
			return true
		}
	}
	return false
}

// DisplayWidth reports how many terminal cells text occupies.
func DisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// Truncate shortens text to at most width cells, ending with Ellipsis when
// anything was cut.
func Truncate(text string, width int) string {
	if width <= 0 || text == "" {
		return ""
	}
	if runewidth.StringWidth(text) <= width {
		return text
	}
	if width <= runewidth.StringWidth(Ellipsis) {
		return Ellipsis
	}
	return runewidth.Truncate(text, width, Ellipsis)
}

// PadRight fills text with spaces up to width cells, truncating first when
// it is too wide.
func PadRight(text string, width int) string {
	text = Truncate(text, width)
	if pad := width - runewidth.StringWidth(text); pad > 0 {
		return text + strings.Repeat(" ", pad)
	}
	return text
}
