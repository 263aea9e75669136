package session

import (
	"fmt"
	"strings"
	"unicode"
)

// Entity query translation.
//
// Entity queries use entity and attribute names where SQL uses tables and
// columns. The translator is token based: it resolves range declarations
// (FROM, JOIN, UPDATE and comma-separated ranges) against the catalog and
// rewrites identification variable paths, leaving every other token as
// written so the backend still validates the statement.

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
	tokNumber
	tokParam
	tokSpace
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int // 0-based character offset in the query
}

// translation is the SQL form of an entity query.
type translation struct {
	SQL string

	// Projection is set when the query selects a whole entity, in which case
	// every result row is materialized as a Record.
	Projection *projection
}

// projection maps result columns back onto an entity's attributes.
type projection struct {
	entity *EntityDescriptor
	fields []projectedField
}

type projectedField struct {
	name string

	// embedded is set when the field is an embeddable value spanning several
	// result columns.
	embedded *projection
}

// width is the number of result columns the projection consumes.
func (p *projection) width() int {
	n := 0
	for _, f := range p.fields {
		if f.embedded != nil {
			n += f.embedded.width()
		} else {
			n++
		}
	}
	return n
}

// record builds a Record from the projection's columns and returns the
// remaining values.
func (p *projection) record(values []any) (*Record, []any) {
	r := &Record{Type: p.entity.Name, Fields: make([]Field, 0, len(p.fields))}
	for _, f := range p.fields {
		if f.embedded != nil {
			var nested *Record
			nested, values = f.embedded.record(values)
			r.Fields = append(r.Fields, Field{Name: f.name, Value: nested})
			continue
		}
		var v any
		if len(values) > 0 {
			v, values = values[0], values[1:]
		}
		r.Fields = append(r.Fields, Field{Name: f.name, Value: v})
	}
	return r, values
}

// Keywords that end a range declaration list or never name an alias.
var reservedWords = map[string]bool{
	"select": true, "from": true, "where": true, "group": true, "by": true,
	"having": true, "order": true, "join": true, "inner": true, "left": true,
	"outer": true, "on": true, "as": true, "and": true, "or": true, "not": true,
	"set": true, "update": true, "delete": true, "distinct": true, "in": true,
	"is": true, "null": true, "like": true, "between": true, "asc": true,
	"desc": true, "fetch": true, "member": true, "of": true, "exists": true,
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"new": true, "case": true, "when": true, "then": true, "else": true,
	"end": true, "escape": true, "true": true, "false": true, "limit": true,
	"offset": true, "empty": true, "some": true, "all": true, "any": true,
	"upper": true, "lower": true, "trim": true, "length": true, "concat": true,
	"substring": true, "locate": true, "abs": true, "sqrt": true, "mod": true,
	"size": true, "type": true, "coalesce": true, "nullif": true,
}

// translate rewrites an entity query into SQL against the catalog's tables.
func translate(text string, cat *Catalog) (*translation, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}

	first := nextSignificant(toks, -1)
	if first < 0 {
		return nil, newSyntaxError(text, 1, "the query is empty")
	}
	verb := strings.ToLower(toks[first].text)
	switch verb {
	case "select", "update", "delete":
	default:
		return nil, newSyntaxError(text, toks[first].pos+1,
			fmt.Sprintf("unexpected token [%s], expected SELECT, UPDATE or DELETE", toks[first].text))
	}

	t := &translator{text: text, cat: cat, toks: toks, ranges: make(map[string]*EntityDescriptor)}
	if err := t.resolveRanges(); err != nil {
		return nil, err
	}
	return t.rewrite(verb)
}

type translator struct {
	text   string
	cat    *Catalog
	toks   []token
	ranges map[string]*EntityDescriptor // lower-cased alias -> entity

	// replaced holds the SQL text for range declaration tokens, by index.
	replaced map[int]string

	// unaliased is the entity of a single range declared without an alias.
	unaliased *EntityDescriptor
}

// resolveRanges finds every range declaration and maps its alias.
func (t *translator) resolveRanges() error {
	t.replaced = make(map[int]string)
	inFrom := false
	expectRange := false
	unaliasedCount := 0

	for i := 0; i < len(t.toks); i++ {
		tok := t.toks[i]
		if tok.kind == tokSpace {
			continue
		}
		lower := strings.ToLower(tok.text)

		if tok.kind == tokWord {
			switch lower {
			case "from", "update":
				inFrom, expectRange = true, true
				continue
			case "join":
				inFrom, expectRange = true, true
				continue
			case "where", "group", "having", "order", "set", "on":
				inFrom, expectRange = false, false
				continue
			}
		}
		if tok.kind == tokPunct {
			switch tok.text {
			case ",":
				expectRange = inFrom
			case ")":
				inFrom, expectRange = false, false
			}
			continue
		}
		if !expectRange || tok.kind != tokWord {
			continue
		}
		expectRange = false

		if strings.Contains(tok.text, ".") {
			// Path join over an association.
			return newPathError(t.text, tok.pos+1, tok.text)
		}
		ent, ok := t.cat.Entity(tok.text)
		if !ok {
			return newUnknownEntityError(t.text, tok.text)
		}

		// Optional AS, then optional alias.
		j := nextSignificant(t.toks, i)
		asIdx := -1
		if j >= 0 && strings.EqualFold(t.toks[j].text, "as") {
			asIdx = j
			j = nextSignificant(t.toks, j)
		}
		if j >= 0 && t.toks[j].kind == tokWord && !reservedWords[strings.ToLower(t.toks[j].text)] && !strings.Contains(t.toks[j].text, ".") {
			alias := t.toks[j].text
			t.ranges[strings.ToLower(alias)] = ent
			t.replaced[i] = ent.TableName()
			if asIdx < 0 {
				t.replaced[i] = ent.TableName() + " AS"
			}
			t.replaced[j] = alias
			i = j
			continue
		}
		if asIdx >= 0 {
			return newSyntaxError(t.text, t.toks[asIdx].pos+1, "an identification variable must follow AS")
		}
		t.replaced[i] = ent.TableName()
		t.unaliased = ent
		unaliasedCount++
	}

	if unaliasedCount != 1 || len(t.ranges) > 0 {
		t.unaliased = nil
	}
	return nil
}

func (t *translator) rewrite(verb string) (*translation, error) {
	var b strings.Builder
	out := &translation{}

	soleAlias := -1
	if verb == "select" {
		soleAlias = t.soleProjectedAlias()
	}

	inSet := false
	for i, tok := range t.toks {
		if repl, ok := t.replaced[i]; ok {
			b.WriteString(repl)
			continue
		}
		if tok.kind != tokWord {
			b.WriteString(tok.text)
			continue
		}

		lower := strings.ToLower(tok.text)
		switch lower {
		case "set":
			inSet = verb == "update"
		case "where":
			inSet = false
		}

		switch {
		case strings.Contains(tok.text, "."):
			col, err := t.resolvePath(tok)
			if err != nil {
				return nil, err
			}
			if inSet && t.isAssignmentTarget(i) {
				col = col[strings.Index(col, ".")+1:]
			}
			b.WriteString(col)

		case t.ranges[lower] != nil:
			ent := t.ranges[lower]
			if i == soleAlias {
				proj, cols := t.expand(tok.text, ent)
				out.Projection = proj
				b.WriteString(strings.Join(cols, ", "))
				continue
			}
			b.WriteString(tok.text + "." + t.idColumn(ent))

		case t.unaliased != nil && !reservedWords[lower]:
			if attr, ok := t.cat.Attribute(t.unaliased, tok.text); ok && attr.Kind != AttrCollection {
				b.WriteString(attr.ColumnName())
				continue
			}
			b.WriteString(tok.text)

		default:
			b.WriteString(tok.text)
		}
	}

	out.SQL = b.String()
	return out, nil
}

// resolvePath maps alias.attr[.sub] to alias.column.
func (t *translator) resolvePath(tok token) (string, error) {
	parts := strings.Split(tok.text, ".")
	ent, ok := t.ranges[strings.ToLower(parts[0])]
	if !ok || len(parts) < 2 {
		return "", newPathError(t.text, tok.pos+1, tok.text)
	}

	owner := ent
	for k := 1; k < len(parts); k++ {
		attr, ok := t.cat.Attribute(owner, parts[k])
		if !ok || attr.Kind == AttrCollection {
			return "", newPathError(t.text, tok.pos+1, tok.text)
		}
		if attr.Kind == AttrEmbedded {
			if k == len(parts)-1 {
				return "", newPathError(t.text, tok.pos+1, tok.text)
			}
			emb, ok := t.cat.Lookup(attr.Type)
			if !ok {
				return "", newPathError(t.text, tok.pos+1, tok.text)
			}
			owner = emb
			continue
		}
		if k != len(parts)-1 {
			return "", newPathError(t.text, tok.pos+1, tok.text)
		}
		return parts[0] + "." + attr.ColumnName(), nil
	}
	return "", newPathError(t.text, tok.pos+1, tok.text)
}

// expand lists the qualified columns of an entity projection.
func (t *translator) expand(alias string, ent *EntityDescriptor) (*projection, []string) {
	p := &projection{entity: ent}
	var cols []string
	for _, attr := range t.cat.Attributes(ent) {
		switch attr.Kind {
		case AttrCollection:
			continue
		case AttrEmbedded:
			emb, ok := t.cat.Lookup(attr.Type)
			if !ok {
				continue
			}
			nested, nestedCols := t.expand(alias, emb)
			p.fields = append(p.fields, projectedField{name: attr.Name, embedded: nested})
			cols = append(cols, nestedCols...)
		default:
			p.fields = append(p.fields, projectedField{name: attr.Name})
			cols = append(cols, alias+"."+attr.ColumnName())
		}
	}
	return p, cols
}

func (t *translator) idColumn(ent *EntityDescriptor) string {
	attrs := t.cat.Attributes(ent)
	for _, a := range attrs {
		if a.IsID() && a.Kind == AttrScalar {
			return a.ColumnName()
		}
	}
	for _, a := range attrs {
		if a.Kind == AttrScalar {
			return a.ColumnName()
		}
	}
	return "id"
}

// soleProjectedAlias returns the token index of an identification variable
// that is the whole select list, or -1.
func (t *translator) soleProjectedAlias() int {
	i := nextSignificant(t.toks, -1) // select
	i = nextSignificant(t.toks, i)
	if i >= 0 && strings.EqualFold(t.toks[i].text, "distinct") {
		i = nextSignificant(t.toks, i)
	}
	if i < 0 || t.toks[i].kind != tokWord || t.ranges[strings.ToLower(t.toks[i].text)] == nil {
		return -1
	}
	j := nextSignificant(t.toks, i)
	if j < 0 || !strings.EqualFold(t.toks[j].text, "from") {
		return -1
	}
	return i
}

func (t *translator) isAssignmentTarget(i int) bool {
	j := nextSignificant(t.toks, i)
	return j >= 0 && t.toks[j].text == "="
}

func nextSignificant(toks []token, i int) int {
	for j := i + 1; j < len(toks); j++ {
		if toks[j].kind != tokSpace {
			return j
		}
	}
	return -1
}

func tokenize(text string) ([]token, error) {
	var toks []token
	rs := []rune(text)
	for i := 0; i < len(rs); {
		r := rs[i]
		start := i
		switch {
		case unicode.IsSpace(r):
			for i < len(rs) && unicode.IsSpace(rs[i]) {
				i++
			}
			toks = append(toks, token{tokSpace, string(rs[start:i]), start})

		case r == '\'':
			i++
			closed := false
			for i < len(rs) {
				if rs[i] == '\'' {
					if i+1 < len(rs) && rs[i+1] == '\'' {
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				i++
			}
			if !closed {
				return nil, newSyntaxError(text, start+1, "the string literal is not terminated")
			}
			toks = append(toks, token{tokString, string(rs[start:i]), start})

		case unicode.IsDigit(r):
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.') {
				i++
			}
			toks = append(toks, token{tokNumber, string(rs[start:i]), start})

		case r == ':' || r == '?':
			i++
			for i < len(rs) && isWordRune(rs[i]) {
				i++
			}
			toks = append(toks, token{tokParam, string(rs[start:i]), start})

		case isWordStart(r):
			for i < len(rs) && (isWordRune(rs[i]) || (rs[i] == '.' && i+1 < len(rs) && isWordStart(rs[i+1]))) {
				i++
			}
			toks = append(toks, token{tokWord, string(rs[start:i]), start})

		default:
			i++
			toks = append(toks, token{tokPunct, string(r), start})
		}
	}
	return toks, nil
}

func isWordStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isWordRune(r rune) bool {
	return isWordStart(r) || unicode.IsDigit(r)
}
