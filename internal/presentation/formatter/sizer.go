package formatter

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/penwyp/go-pointer-monitor/internal/util"
)

const (
	fallbackWidth = 80
	minTermWidth  = 40
)

// displayWidth returns the terminal cell width of s.
func displayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// padString pads s to width display cells.
func padString(s string, width int, leftAlign bool) string {
	actual := displayWidth(s)
	if actual >= width {
		return s
	}
	padding := strings.Repeat(" ", width-actual)
	if leftAlign {
		return s + padding
	}
	return padding + s
}

// truncate shortens s to at most width display cells.
func truncate(s string, width int) string {
	if width <= 0 || displayWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// TerminalWidth returns the width of the terminal attached to stdout, or a
// fallback when stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < minTermWidth {
		width = fallbackWidth
	}
	util.LogDebugf("TerminalWidth %d", width)
	return width
}

// FitLine truncates line to the terminal width.
func FitLine(line string) string {
	return truncate(line, TerminalWidth())
}
