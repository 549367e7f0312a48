package typeexpr

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"maps"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed typemap.yaml
var defaultTable []byte

// Kind is the shape of a mapped symbol.
type Kind string

// Symbol kinds. The empty kind is a plain named type.
const (
	Scalar  Kind = ""
	Slice   Kind = "slice"
	Set     Kind = "set"
	Map     Kind = "map"
	Pointer Kind = "pointer"
)

// Equality tells how two values of a type are compared.
type Equality string

// Equality strategies.
const (
	EqualOp     Equality = ""
	EqualMethod Equality = "equal"
	EqualDeep   Equality = "deep"
)

// Mapping is the Go rendition of a schema type symbol.
type Mapping struct {
	Go      string   `yaml:"go"`
	Import  string   `yaml:"import"`
	Kind    Kind     `yaml:"kind"`
	Compare Equality `yaml:"compare"`
	Module  string   `yaml:"module"`
	Version string   `yaml:"version"`
}

// Table maps schema type symbols to Go types. A Table is immutable once built
// and may be shared between concurrent generation runs.
type Table struct {
	m map[string]Mapping
}

// NewTable returns a table holding a copy of m.
func NewTable(m map[string]Mapping) (*Table, error) {
	for sym, mp := range m {
		switch mp.Kind {
		case Scalar:
			if mp.Go == "" {
				return nil, fmt.Errorf("typeexpr: symbol %q: missing go type", sym)
			}
		case Slice, Set, Map, Pointer:
		default:
			return nil, fmt.Errorf("typeexpr: symbol %q: unknown kind %q", sym, mp.Kind)
		}
		switch mp.Compare {
		case EqualOp, EqualMethod, EqualDeep:
		default:
			return nil, fmt.Errorf("typeexpr: symbol %q: unknown compare %q", sym, mp.Compare)
		}
	}
	return &Table{m: maps.Clone(m)}, nil
}

// LoadTable reads a YAML symbol table from r.
func LoadTable(r io.Reader) (*Table, error) {
	m := make(map[string]Mapping)
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("typeexpr: decode table: %w", err)
	}
	return NewTable(m)
}

var loadDefaultTable = sync.OnceValues(func() (*Table, error) {
	return LoadTable(bytes.NewReader(defaultTable))
})

// DefaultTable returns the bundled symbol table. It is parsed on first use
// and shared afterwards.
func DefaultTable() *Table {
	t, err := loadDefaultTable()
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the mapping of sym.
func (t *Table) Lookup(sym string) (Mapping, bool) {
	m, ok := t.m[sym]
	return m, ok
}

// Len returns the number of symbols.
func (t *Table) Len() int { return len(t.m) }
