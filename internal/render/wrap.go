package render

import "strings"

const (
	lineSize = 80
	tabSize  = len("\t")
)

// clauseKeywords start a new line when wrapping SQL.
var clauseKeywords = map[string]bool{
	"FROM": true, "GROUP": true, "HAVING": true, "ORDER": true, "WHERE": true,
}

// WrapSQL lays out a SQL statement for display under a named query: a
// "\tSQL: " prefix, a line break before each clause keyword, and a
// continuation break once a line reaches 80 columns.
func WrapSQL(sql string) string {
	var b strings.Builder
	b.WriteString("\tSQL: ")
	col := 1
	for _, piece := range strings.Fields(sql) {
		switch {
		case clauseKeywords[strings.ToUpper(piece)]:
			if !strings.HasSuffix(b.String(), "\t") {
				b.WriteString("\n\t")
			}
			b.WriteString(piece + " ")
			col = len(piece) + tabSize
		case col >= lineSize:
			b.WriteString(piece + "\n\t\t")
			col = tabSize
		default:
			b.WriteString(piece + " ")
			col += len(piece) + 1
		}
	}
	return b.String()
}
