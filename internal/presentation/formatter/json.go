package formatter

import (
	"io"

	"github.com/bytedance/sonic"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes report.Data as indented JSON with sorted map keys.
func (f *JSONFormatter) Format(w io.Writer, report Report) error {
	data, err := sonic.ConfigStd.MarshalIndent(report.Data, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
