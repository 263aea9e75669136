package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// TypeKind distinguishes the structural role of a declared type.
type TypeKind string

// Type kinds.
const (
	KindEntity           TypeKind = "entity"
	KindEmbeddable       TypeKind = "embeddable"
	KindMappedSuperclass TypeKind = "mapped_superclass"
)

// AttributeKind is the structural kind of an attribute.
type AttributeKind string

// Attribute kinds.
const (
	AttrScalar     AttributeKind = "scalar"
	AttrEmbedded   AttributeKind = "embedded"
	AttrCollection AttributeKind = "collection"
)

// Attribute is a declared persistent attribute.
type Attribute struct {
	Name        string        `yaml:"name" toml:"name"`
	Type        string        `yaml:"type" toml:"type"`
	Kind        AttributeKind `yaml:"kind" toml:"kind"`
	Column      string        `yaml:"column" toml:"column"`
	Modifiers   []string      `yaml:"modifiers" toml:"modifiers"`
	Annotations []string      `yaml:"annotations" toml:"annotations"`
}

// ColumnName returns the backing column, defaulting to the attribute name.
func (a Attribute) ColumnName() string {
	if a.Column != "" {
		return a.Column
	}
	return a.Name
}

// IsID reports whether the attribute carries an @Id annotation.
func (a Attribute) IsID() bool {
	for _, ann := range a.Annotations {
		name := strings.TrimPrefix(ann, "@")
		if i := strings.IndexByte(name, '('); i >= 0 {
			name = name[:i]
		}
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		if name == "Id" || name == "EmbeddedId" {
			return true
		}
	}
	return false
}

// Operation is a declared constructor or method.
type Operation struct {
	Name        string   `yaml:"name" toml:"name"`
	Constructor bool     `yaml:"constructor" toml:"constructor"`
	Modifiers   []string `yaml:"modifiers" toml:"modifiers"`
	Params      []string `yaml:"params" toml:"params"`
	Annotations []string `yaml:"annotations" toml:"annotations"`
}

// EntityDescriptor is the static description of a managed type.
type EntityDescriptor struct {
	Name         string       `yaml:"name" toml:"name"`
	Namespace    string       `yaml:"namespace" toml:"namespace"`
	Kind         TypeKind     `yaml:"kind" toml:"kind"`
	Modifiers    []string     `yaml:"modifiers" toml:"modifiers"`
	Supertype    string       `yaml:"supertype" toml:"supertype"`
	Table        string       `yaml:"table" toml:"table"`
	Annotations  []string     `yaml:"annotations" toml:"annotations"`
	Attributes   []Attribute  `yaml:"attributes" toml:"attributes"`
	Operations   []Operation  `yaml:"operations" toml:"operations"`
	NamedQueries []NamedQuery `yaml:"named_queries" toml:"named_queries"`
}

// QualifiedName returns the namespace-qualified type name.
func (d *EntityDescriptor) QualifiedName() string {
	if d.Namespace == "" {
		return d.Name
	}
	return d.Namespace + "." + d.Name
}

// TableName returns the backing table, defaulting to the lower-cased name.
func (d *EntityDescriptor) TableName() string {
	if d.Table != "" {
		return d.Table
	}
	return strings.ToLower(d.Name)
}

// IsManaged reports whether the type is an entity or an embeddable, as
// opposed to a mapped superclass that is only inherited from.
func (d *EntityDescriptor) IsManaged() bool {
	return d.Kind == KindEntity || d.Kind == KindEmbeddable
}

// Manifest is the on-disk schema declaration for a profile.
type Manifest struct {
	// Namespace is applied to every type that does not declare its own.
	Namespace string              `yaml:"namespace" toml:"namespace"`
	Types     []*EntityDescriptor `yaml:"types" toml:"types"`
}

// Catalog indexes the declared types of a schema.
type Catalog struct {
	types  []*EntityDescriptor
	byName map[string]*EntityDescriptor
}

// NewCatalog builds a catalog and validates that type names are unique.
func NewCatalog(types []*EntityDescriptor) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*EntityDescriptor, len(types))}
	for _, d := range types {
		if d == nil {
			continue
		}
		if d.Name == "" {
			return nil, fmt.Errorf("type declared without a name")
		}
		if d.Kind == "" {
			d.Kind = KindEntity
		}
		for i := range d.Attributes {
			if d.Attributes[i].Kind == "" {
				d.Attributes[i].Kind = AttrScalar
			}
		}
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("type %s declared more than once", d.Name)
		}
		c.byName[d.Name] = d
		c.types = append(c.types, d)
	}
	return c, nil
}

// LoadManifest reads a schema manifest file and builds its catalog. Files
// ending in .toml are decoded as TOML, anything else as YAML.
func LoadManifest(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // manifest path comes from the user's profile
	if err != nil {
		return nil, fmt.Errorf("failed to read schema manifest: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOMLManifest(data)
	}
	return ParseManifest(data)
}

// ParseManifest decodes a YAML schema manifest.
func ParseManifest(data []byte) (*Catalog, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse schema manifest: %w", err)
	}
	return m.catalog()
}

// ParseTOMLManifest decodes a TOML schema manifest, where types are given
// as [[types]] tables.
func ParseTOMLManifest(data []byte) (*Catalog, error) {
	var m Manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, fmt.Errorf("failed to parse schema manifest: %w", err)
	}
	return m.catalog()
}

func (m *Manifest) catalog() (*Catalog, error) {
	for _, d := range m.Types {
		if d != nil && d.Namespace == "" {
			d.Namespace = m.Namespace
		}
	}
	return NewCatalog(m.Types)
}

// Types returns all declared types in declaration order.
func (c *Catalog) Types() []*EntityDescriptor {
	if c == nil {
		return nil
	}
	return c.types
}

// Lookup finds a type by simple or qualified name, of any kind.
func (c *Catalog) Lookup(name string) (*EntityDescriptor, bool) {
	if c == nil {
		return nil, false
	}
	if d, ok := c.byName[name]; ok {
		return d, true
	}
	for _, d := range c.types {
		if d.QualifiedName() == name {
			return d, true
		}
	}
	return nil, false
}

// Entity finds an entity type usable in a query range declaration.
func (c *Catalog) Entity(name string) (*EntityDescriptor, bool) {
	d, ok := c.Lookup(name)
	if !ok || d.Kind != KindEntity {
		return nil, false
	}
	return d, true
}

// Attributes returns the attributes of d followed by those inherited from
// each ancestor, nearest first. Unknown supertypes end the walk.
func (c *Catalog) Attributes(d *EntityDescriptor) []Attribute {
	var attrs []Attribute
	seen := make(map[string]bool)
	for cur := d; cur != nil && !seen[cur.Name]; {
		seen[cur.Name] = true
		attrs = append(attrs, cur.Attributes...)
		next, ok := c.Lookup(cur.Supertype)
		if !ok {
			break
		}
		cur = next
	}
	return attrs
}

// Attribute resolves an attribute by name on d or one of its ancestors.
func (c *Catalog) Attribute(d *EntityDescriptor, name string) (Attribute, bool) {
	for _, a := range c.Attributes(d) {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// NamedQueries returns every named query declared across all types, sorted
// by name.
func (c *Catalog) NamedQueries() []NamedQuery {
	if c == nil {
		return nil
	}
	var out []NamedQuery
	for _, d := range c.types {
		out = append(out, d.NamedQueries...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
