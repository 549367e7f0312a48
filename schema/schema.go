package schema

import (
	"fmt"
	"slices"
	"strings"
)

// Layout selects how generated packages are organized.
type Layout string

const (
	// Layered groups every entity's artifacts by layer: controllers/, services/, ...
	Layered Layout = "LAYERED"
	// PerEntity gives each entity its own directory holding the layer packages.
	PerEntity Layout = "PER_ENTITY"
)

var layoutAliases = map[string]Layout{
	"LAYERED":    Layered,
	"LAYER":      Layered,
	"PER_ENTITY": PerEntity,
	"PERENTITY":  PerEntity,
	"ENTITY":     PerEntity,
	"DOMAIN":     PerEntity,
}

// ParseLayout returns the layout named by s. The empty string yields Layered.
func ParseLayout(s string) (Layout, error) {
	if s == "" {
		return Layered, nil
	}
	if l, ok := layoutAliases[normalize(s)]; ok {
		return l, nil
	}
	return "", fmt.Errorf("schema: unknown layout %q", s)
}

// String implements fmt.Stringer.
func (l Layout) String() string { return string(l) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Layout) UnmarshalText(text []byte) error {
	v, err := ParseLayout(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Backend selects the persistence technology of the generated project.
type Backend string

const (
	// Relational stores entities in a SQL database through gorm.
	Relational Backend = "RELATIONAL"
	// Document stores entities in MongoDB collections.
	Document Backend = "DOCUMENT"
	// SearchIndex stores entities in OpenSearch/Elasticsearch indices.
	SearchIndex Backend = "SEARCH_INDEX"
)

var backendAliases = map[string]Backend{
	"RELATIONAL":    Relational,
	"SQL":           Relational,
	"MYSQL":         Relational,
	"POSTGRES":      Relational,
	"POSTGRESQL":    Relational,
	"SQLITE":        Relational,
	"DOCUMENT":      Document,
	"MONGO":         Document,
	"MONGODB":       Document,
	"SEARCH_INDEX":  SearchIndex,
	"SEARCH":        SearchIndex,
	"ELASTICSEARCH": SearchIndex,
	"OPENSEARCH":    SearchIndex,
}

// ParseBackend returns the backend named by s. The empty string yields Relational.
func ParseBackend(s string) (Backend, error) {
	if s == "" {
		return Relational, nil
	}
	if b, ok := backendAliases[normalize(s)]; ok {
		return b, nil
	}
	return "", fmt.Errorf("schema: unknown backend %q", s)
}

// String implements fmt.Stringer.
func (b Backend) String() string { return string(b) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Backend) UnmarshalText(text []byte) error {
	v, err := ParseBackend(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")
}

// Field is a single attribute of an entity.
type Field struct {
	Name string `json:"name" yaml:"name"`
	// Type is a type expression, e.g. "String" or "List<Address>".
	Type string `json:"type" yaml:"type"`
	// IsID marks the primary identifier.
	IsID bool `json:"isId,omitempty" yaml:"isId,omitempty"`
	// IsSubEntity marks a field whose type names another entity of the project.
	IsSubEntity bool `json:"isSubEntity,omitempty" yaml:"isSubEntity,omitempty"`
}

// Entity is a named record type with ordered fields.
type Entity struct {
	Name   string  `json:"name" yaml:"name"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// ID returns the identifier field, if any.
func (e *Entity) ID() (Field, bool) {
	for _, f := range e.Fields {
		if f.IsID {
			return f, true
		}
	}
	return Field{}, false
}

// IDFields returns every field marked as identifier.
func (e *Entity) IDFields() []Field {
	var ids []Field
	for _, f := range e.Fields {
		if f.IsID {
			ids = append(ids, f)
		}
	}
	return ids
}

// ProjectSpec is the input of a generation run.
type ProjectSpec struct {
	// Path is the directory the project is written to.
	Path string `json:"path" yaml:"path"`
	// Name is the project name. It is the module root of the generated code.
	Name     string   `json:"name" yaml:"name"`
	Layout   Layout   `json:"layout,omitempty" yaml:"layout,omitempty"`
	Backend  Backend  `json:"backend,omitempty" yaml:"backend,omitempty"`
	Entities []Entity `json:"entities" yaml:"entities"`
}

// Defaults returns a deep copy of s with the zero layout and backend replaced
// by Layered and Relational.
func (s *ProjectSpec) Defaults() *ProjectSpec {
	c := *s
	if c.Layout == "" {
		c.Layout = Layered
	}
	if c.Backend == "" {
		c.Backend = Relational
	}
	c.Entities = make([]Entity, len(s.Entities))
	for i, e := range s.Entities {
		c.Entities[i] = Entity{Name: e.Name, Fields: slices.Clone(e.Fields)}
	}
	return &c
}

// Entity returns the entity with the given name.
func (s *ProjectSpec) Entity(name string) (*Entity, bool) {
	for i := range s.Entities {
		if s.Entities[i].Name == name {
			return &s.Entities[i], true
		}
	}
	return nil, false
}
