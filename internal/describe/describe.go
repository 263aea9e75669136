// Package describe prints the declared structure of managed types.
package describe

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/leapstack-labs/entconsole/pkg/session"
)

// NotFoundError is returned when no managed type has the requested name.
type NotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Entity %s not found", e.Name)
}

// Hint suggests similarly named types, or returns "".
func (e *NotFoundError) Hint() string {
	if len(e.Suggestions) == 0 {
		return ""
	}
	return "Did you mean: " + strings.Join(e.Suggestions, ", ") + "?"
}

// Describer writes type descriptions.
type Describer struct {
	w     io.Writer
	types []*session.EntityDescriptor
	index map[string]*session.EntityDescriptor
}

// New creates a describer over the managed types of a session.
func New(w io.Writer, types []*session.EntityDescriptor) *Describer {
	d := &Describer{w: w, types: types, index: make(map[string]*session.EntityDescriptor, len(types))}
	for _, t := range types {
		d.index[t.Name] = t
	}
	return d
}

// Describe prints the type with the given simple name: its declaration line
// and its fields, then each ancestor's fields. With all set it also prints
// the namespace, annotations, constructors and methods.
func (d *Describer) Describe(name string, all bool) error {
	typ, ok := d.index[name]
	if !ok {
		return &NotFoundError{Name: name, Suggestions: d.suggest(name)}
	}
	ancestors := d.ancestors(typ)

	if all {
		if typ.Namespace != "" {
			d.println("package " + typ.Namespace + ";")
			d.println("")
		}
		for _, ann := range typ.Annotations {
			s := NormalizeAnnotation(ann)
			if strings.HasPrefix(s, "@NamedQueries") {
				s = strings.ReplaceAll(s, "@NamedQuery", "\n  @NamedQuery")
			}
			d.println(s)
		}
	}

	d.println(declaration(typ))

	if len(typ.Attributes) > 0 {
		d.fields("Fields:", typ, typ.Attributes, all)
	}
	for _, anc := range ancestors {
		if len(anc.Attributes) > 0 {
			d.fields(anc.Name+" Fields:", anc, anc.Attributes, all)
		}
	}

	if !all {
		return nil
	}

	var ctors, methods []session.Operation
	for _, op := range typ.Operations {
		if op.Constructor {
			ctors = append(ctors, op)
		} else {
			methods = append(methods, op)
		}
	}
	if len(ctors) > 0 {
		d.operations("Constructors:", typ, ctors)
	}
	if len(methods) > 0 {
		d.operations("Methods:", typ, methods)
	}
	for _, anc := range ancestors {
		var inherited []session.Operation
		for _, op := range anc.Operations {
			if !op.Constructor {
				inherited = append(inherited, op)
			}
		}
		if len(inherited) > 0 {
			d.operations(anc.Name+" Methods:", anc, inherited)
		}
	}
	return nil
}

// ShowEntities lists entities, embeddables and every embedded attribute of
// an entity, sorted. Mapped superclasses are not listed.
func (d *Describer) ShowEntities(includePackage bool) {
	seen := make(map[string]bool)
	var names []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			names = append(names, s)
		}
	}

	for _, t := range d.types {
		display := t.Name
		if includePackage {
			display = t.QualifiedName()
		}
		switch t.Kind {
		case session.KindEntity:
			add(display)
			attrs := append([]session.Attribute(nil), t.Attributes...)
			for _, anc := range d.ancestors(t) {
				attrs = append(attrs, anc.Attributes...)
			}
			for _, a := range attrs {
				if a.Kind == session.AttrEmbedded {
					add(display + "." + a.Name + " (@Embedded)")
				}
			}
		case session.KindEmbeddable:
			add(display + " (@Embeddable)")
		}
	}

	sort.Strings(names)
	for _, n := range names {
		d.println(n)
	}
	d.println("")
}

// ancestors walks the supertype chain through declared types only.
func (d *Describer) ancestors(t *session.EntityDescriptor) []*session.EntityDescriptor {
	var out []*session.EntityDescriptor
	seen := map[string]bool{t.Name: true}
	for cur := t; ; {
		next, ok := d.index[simpleName(cur.Supertype)]
		if !ok || seen[next.Name] {
			return out
		}
		seen[next.Name] = true
		out = append(out, next)
		cur = next
	}
}

func declaration(t *session.EntityDescriptor) string {
	var b strings.Builder
	for _, m := range t.Modifiers {
		b.WriteString(m + " ")
	}
	b.WriteString("class " + t.Name)
	if super := simpleName(t.Supertype); super != "" && super != "Object" {
		b.WriteString(" extends " + super)
	}
	return b.String()
}

func (d *Describer) fields(heading string, owner *session.EntityDescriptor, attrs []session.Attribute, all bool) {
	d.println(heading)
	for _, a := range attrs {
		if all {
			for _, ann := range a.Annotations {
				d.println("  " + NormalizeAnnotation(ann))
			}
		}
		var b strings.Builder
		b.WriteString("  ")
		for _, m := range a.Modifiers {
			b.WriteString(m + " ")
		}
		b.WriteString(shortType(a.Type, owner) + " " + a.Name)
		d.println(b.String())
	}
	d.println("")
}

func (d *Describer) operations(heading string, owner *session.EntityDescriptor, ops []session.Operation) {
	d.println(heading)
	for _, op := range ops {
		for _, ann := range op.Annotations {
			d.println("  " + NormalizeAnnotation(ann))
		}
		var b strings.Builder
		b.WriteString("  ")
		for _, m := range op.Modifiers {
			b.WriteString(m + " ")
		}
		params := make([]string, len(op.Params))
		for i, p := range op.Params {
			params[i] = shortType(p, owner)
		}
		b.WriteString(op.Name + "(" + strings.Join(params, ", ") + ")")
		d.println(b.String())
	}
	d.println("")
}

func (d *Describer) suggest(name string) []string {
	names := make([]string, 0, len(d.types))
	for _, t := range d.types {
		names = append(names, t.Name)
	}

	seen := make(map[string]bool)
	var out []string
	for _, r := range fuzzy.RankFindFold(name, names) {
		if !seen[r.Target] {
			seen[r.Target] = true
			out = append(out, r.Target)
		}
	}
	lower := strings.ToLower(name)
	for _, n := range names {
		if !seen[n] && fuzzy.LevenshteinDistance(lower, strings.ToLower(n)) <= 2 {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func (d *Describer) println(s string) {
	_, _ = fmt.Fprintln(d.w, s)
}

var (
	annotationPrefixes = strings.NewReplacer(
		"javax.validation.constraints.", "",
		"jakarta.validation.constraints.", "",
		"javax.persistence.", "",
		"jakarta.persistence.", "",
	)
	emptyArg      = regexp.MustCompile(`\w+=,\s*`)
	emptyLastArg  = regexp.MustCompile(`\w+=\)`)
	trailingComma = regexp.MustCompile(`,\s*\)`)
)

// NormalizeAnnotation strips well-known persistence and validation
// namespaces and collapses empty arguments, so that
// "@javax.persistence.Column(name=, length=255)" becomes
// "@Column(length=255)".
func NormalizeAnnotation(s string) string {
	s = annotationPrefixes.Replace(s)
	s = emptyArg.ReplaceAllString(s, "")
	s = emptyLastArg.ReplaceAllString(s, ")")
	s = trailingComma.ReplaceAllString(s, ")")
	return s
}

// shortType drops package qualifiers from a declared type: the type's own
// package, then any reference to the owner's namespace.
func shortType(typ string, owner *session.EntityDescriptor) string {
	if owner.Namespace != "" {
		typ = strings.ReplaceAll(typ, owner.QualifiedName()+".", "")
		typ = strings.ReplaceAll(typ, owner.Namespace+".", "")
	}
	raw, args := typ, ""
	if i := strings.IndexByte(typ, '<'); i >= 0 {
		raw, args = typ[:i], typ[i:]
	}
	return simpleName(raw) + args
}

func simpleName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
