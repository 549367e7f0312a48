package typeexpr

import (
	"slices"

	"github.com/dave/jennifer/jen"
)

// Module is a module requirement contributed by a mapped type.
type Module struct {
	Path    string
	Version string
}

// Qualifier renders symbols unknown to the table, typically sibling entities.
// It reports false to fall back to a bare identifier.
type Qualifier func(sym string) (jen.Code, bool)

// Resolver resolves type expressions against a table.
type Resolver struct {
	table *Table
}

// NewResolver returns a resolver over t.
func NewResolver(t *Table) *Resolver {
	return &Resolver{table: t}
}

// Table returns the underlying table.
func (r *Resolver) Table() *Table { return r.table }

// Imports parses expr and returns the import paths its symbols need, in
// first-seen order and without duplicates. Unknown symbols contribute nothing.
func (r *Resolver) Imports(expr string) ([]string, error) {
	e, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return r.ImportsOf(e), nil
}

// ImportsOf returns the import paths of an already parsed expression.
func (r *Resolver) ImportsOf(e *Expr) []string {
	var out []string
	for _, sym := range e.Symbols() {
		m, ok := r.table.Lookup(sym)
		if !ok || m.Import == "" || slices.Contains(out, m.Import) {
			continue
		}
		out = append(out, m.Import)
	}
	return out
}

// Modules returns the module requirements of e, without duplicates.
func (r *Resolver) Modules(e *Expr) []Module {
	var out []Module
	for _, sym := range e.Symbols() {
		m, ok := r.table.Lookup(sym)
		if !ok || m.Module == "" {
			continue
		}
		mod := Module{Path: m.Module, Version: m.Version}
		if !slices.Contains(out, mod) {
			out = append(out, mod)
		}
	}
	return out
}

// Known reports whether sym is in the table.
func (r *Resolver) Known(sym string) bool {
	_, ok := r.table.Lookup(sym)
	return ok
}

// GoType renders e as Go type code. Containers with missing arguments fall
// back to any.
func (r *Resolver) GoType(e *Expr, q Qualifier) jen.Code {
	arg := func(i int) jen.Code {
		if i < len(e.Args) {
			return r.GoType(e.Args[i], q)
		}
		return jen.Any()
	}
	m, ok := r.table.Lookup(e.Name)
	if !ok {
		var s *jen.Statement
		if q != nil {
			if c, ok := q(e.Name); ok {
				s = jen.Add(c)
			}
		}
		if s == nil {
			s = jen.Id(e.Name)
		}
		if len(e.Args) > 0 {
			args := make([]jen.Code, len(e.Args))
			for i := range e.Args {
				args[i] = arg(i)
			}
			s = s.Types(args...)
		}
		return s
	}
	switch m.Kind {
	case Slice:
		return jen.Index().Add(arg(0))
	case Set:
		return jen.Map(arg(0)).Struct()
	case Map:
		return jen.Map(arg(0)).Add(arg(1))
	case Pointer:
		return jen.Op("*").Add(arg(0))
	}
	if m.Import != "" {
		return jen.Qual(m.Import, m.Go)
	}
	return jen.Id(m.Go)
}

// Equality returns how values of e compare. Containers and symbols unknown to
// the table compare deeply.
func (r *Resolver) Equality(e *Expr) Equality {
	m, ok := r.table.Lookup(e.Name)
	if !ok || m.Kind != Scalar {
		return EqualDeep
	}
	return m.Compare
}

// Container returns the container kind of e, or Scalar.
func (r *Resolver) Container(e *Expr) Kind {
	m, ok := r.table.Lookup(e.Name)
	if !ok {
		return Scalar
	}
	return m.Kind
}
