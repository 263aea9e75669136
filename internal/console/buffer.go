package console

import "strings"

// multilineTriggers start a statement that must be terminated by ';' when
// multiline mode is on.
var multilineTriggers = []string{"insert", "sql ", "select"}

// StatementBuffer accumulates input lines into statements.
type StatementBuffer struct {
	parts  []string
	active bool
}

// Add feeds one trimmed line into the buffer and reports the completed
// statement, if any. With multiline off every non-empty line is a statement.
// With multiline on, a line starting with a trigger keyword opens an
// accumulation that ends at the first line ending in ';'; the terminator is
// stripped and the lines are joined with single spaces.
func (b *StatementBuffer) Add(line string, multiline bool) (string, bool) {
	if line == "" {
		return "", false
	}

	b.parts = append(b.parts, line)
	if multiline && !b.active && hasTrigger(line) {
		b.active = true
	}

	if b.active {
		if !strings.HasSuffix(line, ";") {
			return "", false
		}
		stmt := strings.Join(b.parts, " ")
		b.Reset()
		return strings.TrimSpace(strings.TrimSuffix(stmt, ";")), true
	}

	stmt := strings.Join(b.parts, " ")
	b.Reset()
	return stmt, true
}

// Pending reports whether a multiline statement is being accumulated.
func (b *StatementBuffer) Pending() bool {
	return b.active
}

// Reset discards any partial statement.
func (b *StatementBuffer) Reset() {
	b.parts = b.parts[:0]
	b.active = false
}

func hasTrigger(line string) bool {
	lower := strings.ToLower(line)
	for _, t := range multilineTriggers {
		if strings.HasPrefix(lower, t) {
			return true
		}
	}
	return false
}
