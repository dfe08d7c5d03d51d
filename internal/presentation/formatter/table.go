package formatter

import (
	"io"
	"strings"
)

// DefaultMaxCellWidth bounds the width of a single column.
const DefaultMaxCellWidth = 48

type TableFormatter struct {
	// MaxCellWidth truncates longer cells. Zero disables truncation.
	MaxCellWidth int
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{MaxCellWidth: DefaultMaxCellWidth}
}

func (f *TableFormatter) Format(w io.Writer, report Report) error {
	t := report.Table
	var b strings.Builder

	if t.Title != "" {
		b.WriteString(t.Title)
		b.WriteString("\n")
	}
	if len(t.Headers) == 0 {
		_, err := io.WriteString(w, b.String())
		return err
	}

	widths := f.calculateColumnWidths(t)

	f.writeBorder(&b, widths, "top")
	f.writeRow(&b, t.Headers, widths, nil)
	f.writeBorder(&b, widths, "middle")

	if len(t.Rows) == 0 {
		empty := make([]string, len(t.Headers))
		empty[0] = "(no data)"
		f.writeRow(&b, empty, widths, nil)
	}
	for _, row := range t.Rows {
		f.writeRow(&b, row, widths, t.RightAlign)
	}

	if len(t.Footer) > 0 {
		f.writeBorder(&b, widths, "middle")
		f.writeRow(&b, t.Footer, widths, t.RightAlign)
	}
	f.writeBorder(&b, widths, "bottom")

	_, err := io.WriteString(w, b.String())
	return err
}

// calculateColumnWidths sizes each column to its widest cell.
func (f *TableFormatter) calculateColumnWidths(t Table) []int {
	widths := make([]int, len(t.Headers))
	measure := func(row []string) {
		for i := range widths {
			if i >= len(row) {
				break
			}
			if width := displayWidth(f.cell(row[i])); width > widths[i] {
				widths[i] = width
			}
		}
	}

	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}
	measure(t.Footer)
	if len(t.Rows) == 0 && widths[0] < displayWidth("(no data)") {
		widths[0] = displayWidth("(no data)")
	}
	return widths
}

func (f *TableFormatter) cell(value string) string {
	return truncate(value, f.MaxCellWidth)
}

// writeBorder writes a top, middle or bottom border.
func (f *TableFormatter) writeBorder(b *strings.Builder, widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	default:
		left, middle, right = "└", "┴", "┘"
	}

	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	b.WriteString("\n")
}

func (f *TableFormatter) writeRow(b *strings.Builder, values []string, widths []int, rightAlign []bool) {
	b.WriteString("│")
	for i, width := range widths {
		value := ""
		if i < len(values) {
			value = f.cell(values[i])
		}
		leftAlign := i >= len(rightAlign) || !rightAlign[i]
		b.WriteString(" ")
		b.WriteString(padString(value, width, leftAlign))
		b.WriteString(" │")
	}
	b.WriteString("\n")
}
