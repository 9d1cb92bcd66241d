package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText greedily wraps plain text to the given display width. Words
// wider than the width are split across lines.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out strings.Builder
	lineWidth := 0
	for i, word := range strings.Fields(text) {
		wordWidth := runewidth.StringWidth(word)
		if lineWidth > 0 && lineWidth+1+wordWidth > width {
			out.WriteRune('\n')
			lineWidth = 0
		} else if i > 0 && lineWidth > 0 {
			out.WriteRune(' ')
			lineWidth++
		}
		if wordWidth > width {
			lineWidth = writeBrokenWord(&out, word, width, lineWidth)
			continue
		}
		out.WriteString(word)
		lineWidth += wordWidth
	}
	return out.String()
}

func writeBrokenWord(out *strings.Builder, word string, width, lineWidth int) int {
	for _, r := range word {
		rw := runewidth.RuneWidth(r)
		if lineWidth+rw > width {
			out.WriteRune('\n')
			lineWidth = 0
		}
		out.WriteRune(r)
		lineWidth += rw
	}
	return lineWidth
}
