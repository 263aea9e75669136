// Package render formats query results for the console.
package render

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/entconsole/pkg/session"
)

// Style selects how results are displayed.
type Style string

// Display styles.
const (
	StyleRecord   Style = "record"
	StyleTable    Style = "table"
	StyleJSON     Style = "json"
	StyleCSV      Style = "csv"
	StyleMarkdown Style = "md"
)

// DateLayout is used for every temporal value.
const DateLayout = "2006-01-02"

// Styles lists the accepted style names.
func Styles() []string {
	return []string{string(StyleRecord), string(StyleTable), string(StyleJSON), string(StyleCSV), string(StyleMarkdown)}
}

// ParseStyle validates a style name. An empty name selects the record style.
func ParseStyle(name string) (Style, error) {
	switch s := Style(strings.ToLower(name)); s {
	case "":
		return StyleRecord, nil
	case StyleRecord, StyleTable, StyleJSON, StyleCSV, StyleMarkdown:
		return s, nil
	case "markdown":
		return StyleMarkdown, nil
	}
	return "", fmt.Errorf("unknown format %q (valid: %s)", name, strings.Join(Styles(), ", "))
}

// Formatter renders query results in one style.
type Formatter struct {
	style Style
	title cases.Caser
}

// New creates a formatter for style.
func New(style Style) *Formatter {
	if style == "" {
		style = StyleRecord
	}
	return &Formatter{style: style, title: cases.Title(language.Und, cases.NoLower)}
}

// Style returns the formatter's display style.
func (f *Formatter) Style() Style {
	return f.style
}

// Render writes every result. The result count line is left to the caller.
func (f *Formatter) Render(w io.Writer, results []any) error {
	switch f.style {
	case StyleTable:
		return renderTable(w, results)
	case StyleJSON:
		return renderJSON(w, results)
	case StyleCSV:
		return renderCSV(w, results)
	case StyleMarkdown:
		return renderMarkdown(w, results)
	default:
		for _, r := range results {
			f.Write(w, r)
		}
		return nil
	}
}

// Write renders one result value in the record style:
//
//	nil          NULL
//	string       String:<v>
//	number/time  <TypeName>:<v>
//	sequence     each element, then a blank line
//	*Record      Type[ attr=value ... ] one attribute per line
func (f *Formatter) Write(w io.Writer, v any) {
	switch val := v.(type) {
	case nil:
		_, _ = fmt.Fprintln(w, "NULL")
	case string:
		_, _ = fmt.Fprintf(w, "String:%s \n", val)
	case time.Time:
		_, _ = fmt.Fprintf(w, "%s:%s \n", f.typeName(val), val.Format(DateLayout))
	case *session.Record:
		_, _ = fmt.Fprintln(w, formatRecord(val))
	case []any:
		for _, elem := range val {
			f.Write(w, elem)
		}
		_, _ = fmt.Fprintln(w)
	default:
		_, _ = fmt.Fprintf(w, "%s:%v \n", f.typeName(val), val)
	}
}

// typeName returns the short, title-cased type name of v (Int64, Float64,
// Time, Bool).
func (f *Formatter) typeName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = t.Kind().String()
	}
	return f.title.String(name)
}

func formatRecord(r *session.Record) string {
	var b strings.Builder
	b.WriteString(r.Type)
	b.WriteString("[\n  ")
	for i, field := range r.Fields {
		if i > 0 {
			b.WriteString("\n  ")
		}
		b.WriteString(field.Name)
		b.WriteByte('=')
		b.WriteString(fieldValue(field.Value))
	}
	b.WriteString("\n]")
	return b.String()
}

// fieldValue renders a record attribute. Nested records stay on one line.
func fieldValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "<null>"
	case time.Time:
		return val.Format(DateLayout)
	case *session.Record:
		parts := make([]string, len(val.Fields))
		for i, f := range val.Fields {
			parts[i] = f.Name + "=" + fieldValue(f.Value)
		}
		return val.Type + "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}
