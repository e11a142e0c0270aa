package util

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// NewTable returns a go-pretty writer with a title and header row.
func NewTable(title string, header ...interface{}) table.Writer {
	t := table.NewWriter()
	if title != "" {
		t.SetTitle(title)
	}

	if len(header) > 0 {
		t.AppendHeader(table.Row(header))
	}

	return t
}
