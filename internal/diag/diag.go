// Package diag turns data session failures into console diagnostics.
package diag

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/leapstack-labs/entconsole/pkg/session"
)

// Verdict tells the caller whether the console can keep running.
type Verdict int

const (
	// Recovered means the failure was reported and the loop continues.
	Recovered Verdict = iota
	// Fatal means the session is unusable.
	Fatal
)

const descriptionMarker = "Exception Description:"

// grammarPhrases identify backend SQL grammar errors by message.
var grammarPhrases = []string{
	"syntax error at or near", // postgres
	"Parser Error:",           // duckdb
	"SQL logic error",         // sqlite
	"could not resolve property",
	"could not execute query",
}

// Diagnostic is a failure description with an optional caret marker.
type Diagnostic struct {
	Message string

	// Fragment is the statement text the caret points into, when it is not
	// already part of Message.
	Fragment string

	// Column is the zero-based offset of the caret on its line.
	Column int

	// Detail follows the caret line.
	Detail string
}

// Render writes the diagnostic with its caret line.
func (d Diagnostic) Render(w io.Writer) {
	_, _ = fmt.Fprintln(w, d.Message)
	if d.Fragment != "" {
		_, _ = fmt.Fprintln(w, d.Fragment)
	}
	_, _ = fmt.Fprintln(w, strings.Repeat(" ", d.Column)+"*")
	if d.Detail != "" {
		_, _ = fmt.Fprintln(w, d.Detail)
	}
}

// Extract recovers a caret diagnostic from a provider message of the form
//
//	Exception Description: <text> [<query>], column <n>: <detail>
//
// where n is the 1-based column inside the bracketed query. It reports false
// when the message does not have that shape.
func Extract(msg string) (Diagnostic, bool) {
	s := msg
	if i := strings.Index(s, descriptionMarker); i >= 0 {
		s = s[i+len(descriptionMarker):]
	}
	s = strings.TrimSpace(s)

	bracket := strings.IndexByte(s, '[')
	if bracket < 0 {
		return Diagnostic{}, false
	}

	start := strings.Index(s, "], column ")
	if start >= 0 {
		start += len("], ")
	} else {
		start = strings.Index(s, "column ")
	}
	if start < bracket {
		return Diagnostic{}, false
	}
	numStart := start + len("column ")
	end := strings.IndexByte(s[numStart:], ':')
	if end < 0 {
		return Diagnostic{}, false
	}
	end += numStart

	n, err := strconv.Atoi(strings.TrimSpace(s[numStart:end]))
	if err != nil || n < 0 {
		return Diagnostic{}, false
	}

	return Diagnostic{
		Message: s[:end],
		Column:  bracket + n,
		Detail:  strings.TrimSpace(s[end+1:]),
	}, true
}

// Translator writes diagnostics for failures raised by a data session.
type Translator struct {
	w io.Writer
}

// New creates a translator writing to w.
func New(w io.Writer) *Translator {
	return &Translator{w: w}
}

// Translate reports err and classifies it. Connectivity failures anywhere
// in the chain are fatal; everything else is recovered.
func (t *Translator) Translate(err error) Verdict {
	if err == nil {
		return Recovered
	}

	var ce *session.ConnectivityError
	if errors.As(err, &ce) {
		t.connectivity(ce)
		return Fatal
	}

	cause := errors.Unwrap(err)
	if cause == nil {
		t.println(err.Error())
		return Recovered
	}
	msg := cause.Error()

	if strings.Contains(msg, "Unknown entity type") || strings.Contains(msg, "is not mapped") {
		t.println(msg)
		t.println("Possible misspelling of entity name.")
		t.println("Please make sure all entities are declared in the schema manifest.")
		return Recovered
	}

	for _, phrase := range grammarPhrases {
		if strings.Contains(msg, phrase) {
			t.println("SQL grammar exception: " + msg)
			t.println("")
			return Recovered
		}
	}

	var qe *session.QueryError
	if errors.As(err, &qe) && qe.Column > 0 && qe.Statement != "" {
		Diagnostic{Message: firstLine(msg), Fragment: qe.Statement, Column: qe.Column - 1}.Render(t.w)
		return Recovered
	}

	if d, ok := Extract(msg); ok {
		d.Render(t.w)
		return Recovered
	}

	if i := strings.Index(msg, descriptionMarker); i >= 0 {
		msg = strings.TrimSpace(msg[i+len(descriptionMarker):])
	}
	t.println(strings.ReplaceAll(msg, ":", "\n"))
	t.println("")
	return Recovered
}

// Unexpected reports a failure no rule recognizes, such as a panic raised
// inside a backend.
func (t *Translator) Unexpected(v any) {
	if v != nil {
		t.println(fmt.Sprint(v))
	}
	t.println("received an unexpected or internal provider exception")
}

func (t *Translator) connectivity(ce *session.ConnectivityError) {
	t.println("Database Error")
	code := ce.Code
	if code == "" {
		code = "unknown"
	}
	t.println("ErrorCode: " + code)

	msg := ce.Error()
	start := strings.Index(msg, "Call: ")
	end := -1
	if start >= 0 {
		end = strings.IndexByte(msg[start:], '\n')
	}
	if start >= 0 && end > 0 {
		t.println(msg[start : start+end])
	} else {
		t.println(msg)
	}

	if ce.Err != nil && ce.Err.Error() != msg {
		t.println("Cause: " + ce.Err.Error())
	}
	t.println("")
}

func (t *Translator) println(s string) {
	_, _ = fmt.Fprintln(t.w, s)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
