package formatter

import (
	"encoding/csv"
	"io"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Format writes the header row followed by every data row. Titles and
// footers are presentation only and are left out.
func (f *CSVFormatter) Format(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(report.Table.Headers); err != nil {
		return err
	}
	for _, row := range report.Table.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
