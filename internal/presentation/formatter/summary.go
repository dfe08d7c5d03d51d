package formatter

import (
	"fmt"
	"io"
	"strings"
)

// SummaryFormatter writes one "header: value" block per row.
type SummaryFormatter struct{}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter() *SummaryFormatter {
	return &SummaryFormatter{}
}

func (f *SummaryFormatter) Format(w io.Writer, report Report) error {
	t := report.Table
	labelWidth := 0
	for _, header := range t.Headers {
		if width := displayWidth(header); width > labelWidth {
			labelWidth = width
		}
	}

	var b strings.Builder
	if t.Title != "" {
		fmt.Fprintf(&b, "%s\n%s\n", t.Title, strings.Repeat("=", displayWidth(t.Title)))
	}
	rows := t.Rows
	if len(t.Footer) > 0 {
		rows = append(rows[:len(rows):len(rows)], t.Footer)
	}
	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		for j, header := range t.Headers {
			value := ""
			if j < len(row) {
				value = row[j]
			}
			fmt.Fprintf(&b, "%s : %s\n", padString(header, labelWidth, true), value)
		}
	}
	if len(rows) == 0 {
		b.WriteString("(no data)\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
