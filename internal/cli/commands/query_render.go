package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlpad/pkg/adapter"
	"github.com/leapstack-labs/sqlpad/pkg/result"
)

// resolveFormat maps the configured output format to a concrete one.
// "auto" renders tables on a terminal and markdown otherwise.
func resolveFormat(format string, w io.Writer) string {
	switch format {
	case "", "auto":
		if isTerminalWriter(w) {
			return "table"
		}
		return "md"
	case "markdown":
		return "md"
	}
	return format
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// renderGrid writes g in format. total is the row count of the full
// result, used for the footer when the grid is truncated.
func renderGrid(w io.Writer, g result.Grid, total int, format string) error {
	switch resolveFormat(format, w) {
	case "json":
		return renderJSON(w, g)
	case "csv":
		return renderCSV(w, g)
	case "md":
		return renderMarkdown(w, g, total)
	case "yaml":
		return renderYAML(w, g)
	default:
		return renderTable(w, g, total)
	}
}

func renderTable(w io.Writer, g result.Grid, total int) error {
	if len(g.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(g.Columns))
	for i, col := range g.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for i, r := range g.Rows {
		row := make(table.Row, len(r))
		for j, cell := range r {
			row[j] = cell
		}
		if g.IsSentinel(i) {
			t.AppendSeparator()
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintln(w, footer(g, total))
	return nil
}

// footer summarises how much of the result is shown.
func footer(g result.Grid, total int) string {
	shown := len(g.DataRows())
	if g.Truncated {
		return fmt.Sprintf("(%d of %d rows)", shown, total)
	}
	if shown == 1 {
		return "(1 row)"
	}
	return fmt.Sprintf("(%d rows)", shown)
}

// orderedRow marshals one grid row as a JSON object in column order.
type orderedRow struct {
	cols []string
	vals []string
}

func (r orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.vals[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func renderJSON(w io.Writer, g result.Grid) error {
	rows := make([]orderedRow, 0, len(g.Rows))
	for _, r := range g.DataRows() {
		rows = append(rows, orderedRow{cols: g.Columns, vals: r})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func renderCSV(w io.Writer, g result.Grid) error {
	header := make([]string, len(g.Columns))
	for i, col := range g.Columns {
		header[i] = escapeCSV(col)
	}
	_, _ = fmt.Fprintln(w, strings.Join(header, ","))

	for _, r := range g.DataRows() {
		values := make([]string, len(r))
		for i, v := range r {
			values[i] = escapeCSV(v)
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, g result.Grid, total int) error {
	if len(g.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(escapeMarkdown(g.Columns), " | "))
	seps := make([]string, len(g.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, r := range g.Rows {
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(escapeMarkdown(r), " | "))
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, footer(g, total))
	return nil
}

// renderYAML writes a sequence of mappings, keeping column order.
func renderYAML(w io.Writer, g result.Grid) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range g.DataRows() {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for i, col := range g.Columns {
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: col},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: r[i]},
			)
		}
		doc.Content = append(doc.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func escapeMarkdown(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "|", `\|`)
		out[i] = strings.ReplaceAll(c, "\n", " ")
	}
	return out
}

// renderSchema prints the columns of a table.
func renderSchema(w io.Writer, tableName string, columns []adapter.Column, format string) error {
	if resolveFormat(format, w) == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(schemaOutput{Name: tableName, Columns: columns})
	}

	_, _ = fmt.Fprintf(w, "Table: %s\n", tableName)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Column", "Type", "Nullable"})
	for _, col := range columns {
		nullable := "NO"
		if col.Nullable {
			nullable = "YES"
		}
		t.AppendRow(table.Row{col.Position, col.Name, col.Type, nullable})
	}
	t.Render()
	return nil
}

type schemaOutput struct {
	Name    string           `json:"name"`
	Columns []adapter.Column `json:"columns"`
}

// renderError prints a query error. The message is the database's own,
// coloured red when w supports it.
func renderError(w io.Writer, err error) {
	out := termenv.NewOutput(w)
	msg := out.String("Error: " + err.Error()).Foreground(out.Color("1"))
	_, _ = fmt.Fprintln(w, msg.String())
}
