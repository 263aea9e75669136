package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/entconsole/pkg/session"
)

// tabulate flattens heterogeneous results into columns and rows. Records
// contribute one column per attribute, slices one column per position and
// scalars a single "value" column. The first result decides the columns.
func tabulate(results []any) ([]string, [][]any) {
	if len(results) == 0 {
		return nil, nil
	}

	var cols []string
	switch first := results[0].(type) {
	case *session.Record:
		for _, f := range first.Fields {
			cols = append(cols, f.Name)
		}
	case []any:
		for i := range first {
			cols = append(cols, fmt.Sprintf("col%d", i+1))
		}
	default:
		cols = []string{"value"}
	}

	rows := make([][]any, 0, len(results))
	for _, r := range results {
		row := make([]any, len(cols))
		switch val := r.(type) {
		case *session.Record:
			for i, c := range cols {
				row[i], _ = val.Get(c)
			}
		case []any:
			copy(row, val)
		default:
			row[0] = val
		}
		rows = append(rows, row)
	}
	return cols, rows
}

func renderTable(w io.Writer, results []any) error {
	cols, rows := tabulate(results)
	if len(rows) == 0 {
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	return nil
}

func renderJSON(w io.Writer, results []any) error {
	out := make([]any, len(results))
	for i, r := range results {
		out[i] = jsonValue(r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func jsonValue(v any) any {
	switch val := v.(type) {
	case *session.Record:
		m := make(map[string]any, len(val.Fields))
		for _, f := range val.Fields {
			m[f.Name] = jsonValue(f.Value)
		}
		return m
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = jsonValue(e)
		}
		return out
	case time.Time:
		return val.Format(DateLayout)
	default:
		return val
	}
}

func renderCSV(w io.Writer, results []any) error {
	cols, rows := tabulate(results)
	if len(cols) == 0 {
		return nil
	}
	_, _ = fmt.Fprintln(w, strings.Join(cols, ","))

	for _, r := range rows {
		values := make([]string, len(r))
		for i, v := range r {
			values[i] = escapeCSV(formatValue(v))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, results []any) error {
	cols, rows := tabulate(results)
	if len(rows) == 0 {
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, r := range rows {
		values := make([]string, len(r))
		for i, v := range r {
			values[i] = formatValue(v)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fieldValue(v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
