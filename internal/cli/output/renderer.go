// Package output renders decoded result rows as a table or as JSON.
package output

import (
	"io"

	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Mode selects the rendering format.
type Mode string

const (
	ModeTable Mode = "table"
	ModeJSON  Mode = "json"
)

// Renderer writes decoded result rows to an output stream.
type Renderer struct {
	out  io.Writer
	mode Mode
}

// NewRenderer creates a renderer. Unknown modes fall back to the table form.
func NewRenderer(out io.Writer, mode Mode) *Renderer {
	if mode != ModeJSON {
		mode = ModeTable
	}
	return &Renderer{out: out, mode: mode}
}

// Render writes the result set. The column slice carries the declaration
// order, which the decoded maps alone cannot.
func (r *Renderer) Render(columns []string, rows []map[string]any) error {
	if r.mode == ModeJSON {
		return r.renderJSON(rows)
	}
	r.renderTable(columns, rows)
	return nil
}

func (r *Renderer) renderTable(columns []string, rows []map[string]any) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, m := range rows {
		row := make(table.Row, len(columns))
		for i, c := range columns {
			if v, ok := m[c]; ok && v != nil {
				row[i] = v
			} else {
				row[i] = "NULL"
			}
		}
		t.AppendRow(row)
	}
	t.Render()
}

func (r *Renderer) renderJSON(rows []map[string]any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if rows == nil {
		rows = []map[string]any{}
	}
	return enc.Encode(rows)
}
