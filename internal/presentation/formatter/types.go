package formatter

import (
	"fmt"
	"io"
	"strings"
)

// Output formats.
const (
	FormatTable   = "table"
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatSummary = "summary"
)

// Table is the tabular view of a report.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// RightAlign marks numeric columns.
	RightAlign []bool
	// Footer is an optional totals row.
	Footer []string
}

// Report pairs the tabular view with the structured value behind it.
type Report struct {
	Table Table
	Data  interface{}
}

// Formatter writes a report in one output format.
type Formatter interface {
	Format(w io.Writer, report Report) error
}

// New returns the formatter for name.
func New(name string) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", FormatTable:
		return NewTableFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatCSV:
		return NewCSVFormatter(), nil
	case FormatSummary:
		return NewSummaryFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, json, csv or summary)", name)
	}
}
