package gen

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/crudgen/compiler/naming"
	"github.com/syssam/crudgen/compiler/typeexpr"
	"github.com/syssam/crudgen/schema"
)

// project is the outcome of validation: everything later stages need.
type project struct {
	spec    *schema.ProjectSpec
	module  string
	storage *Storage
	models  []*Model
}

// validate checks spec and parses every field type expression. Nothing is
// written before it succeeds. The returned project holds a normalized copy of
// spec with layout and backend defaults applied.
func validate(cfg *Config, spec *schema.ProjectSpec) (*project, error) {
	if spec == nil {
		return nil, NewValidationError("", "", CodeMissingName, "project spec is required")
	}
	if strings.TrimSpace(spec.Path) == "" {
		return nil, NewValidationError("", "", CodeMissingPath, "project path is required")
	}
	if strings.TrimSpace(spec.Name) == "" {
		return nil, NewValidationError("", "", CodeMissingName, "project name is required")
	}
	module, err := naming.ModulePath(cfg.ModulePrefix, spec.Name)
	if err != nil {
		return nil, NewValidationError("", "", CodeNamingConflict, fmt.Sprintf("project name %q: %v", spec.Name, err))
	}
	if err := naming.ValidIdentifier(naming.ApplicationName(spec.Name)); err != nil {
		return nil, NewValidationError("", "", CodeNamingConflict, fmt.Sprintf("project name %q: %v", spec.Name, err))
	}
	layout, err := schema.ParseLayout(string(spec.Layout))
	if err != nil {
		return nil, NewValidationError("", "", CodeUnknownOption, err.Error())
	}
	backend, err := schema.ParseBackend(string(spec.Backend))
	if err != nil {
		return nil, NewValidationError("", "", CodeUnknownOption, err.Error())
	}
	storage, err := NewStorage(backend)
	if err != nil {
		return nil, NewValidationError("", "", CodeUnknownOption, err.Error())
	}
	if len(spec.Entities) == 0 {
		return nil, NewValidationError("", "", CodeNoEntities, "at least one entity required")
	}

	spec = spec.Defaults()
	spec.Layout, spec.Backend = layout, backend
	names := make([]string, len(spec.Entities))
	for i, e := range spec.Entities {
		if strings.TrimSpace(e.Name) == "" {
			return nil, NewValidationError("", "", CodeMissingName, fmt.Sprintf("entity #%d has no name", i+1))
		}
		if err := naming.ValidIdentifier(naming.BaseName(e.Name)); err != nil {
			return nil, NewValidationError(e.Name, "", CodeNamingConflict, err.Error())
		}
		if slices.Contains(names[:i], e.Name) {
			return nil, NewValidationError(e.Name, "", CodeNamingConflict, "duplicate entity name")
		}
		names[i] = e.Name
	}
	resolver := naming.NewResolver(module, layout)
	if cs := resolver.Conflicts(names); len(cs) > 0 {
		c := cs[0]
		return nil, NewValidationError(c.Second, "", CodeNamingConflict, fmt.Sprintf("%s collides with entity %s", c.Name, c.First))
	}

	types := typeexpr.NewResolver(cfg.Types)
	models := make([]*Model, len(spec.Entities))
	for i := range spec.Entities {
		m, err := newModel(&spec.Entities[i], names, types)
		if err != nil {
			return nil, err
		}
		models[i] = m
	}
	if cycle := findCycle(models, valueEdges(models, types)); len(cycle) > 0 {
		return nil, NewValidationError(cycle[0], "", CodeRecursiveType,
			fmt.Sprintf("entities hold each other by value: %s", strings.Join(cycle, " -> ")))
	}
	if err := checkKeys(models, types); err != nil {
		return nil, err
	}
	if layout == schema.PerEntity {
		if cycle := findCycle(models, importEdges(models, types)); len(cycle) > 0 {
			return nil, NewValidationError(cycle[0], "", CodeImportCycle,
				fmt.Sprintf("entity packages import each other: %s", strings.Join(cycle, " -> ")))
		}
	}
	return &project{spec: spec, module: module, storage: storage, models: models}, nil
}

// reservedFields are the Go names of methods generated on domain types.
var reservedFields = []string{"Equal", "GetID", "SetID", "CollectionName", "IndexName"}

// newModel validates the fields of e and parses their type expressions.
func newModel(e *schema.Entity, entities []string, types *typeexpr.Resolver) (*Model, error) {
	if ids := e.IDFields(); len(ids) > 1 {
		return nil, NewValidationError(e.Name, ids[1].Name, CodeCompositeID, "composite primary keys unsupported")
	}
	m := &Model{Name: e.Name, Fields: make([]FieldModel, 0, len(e.Fields))}
	seen := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, NewValidationError(e.Name, "", CodeMissingName, "field has no name")
		}
		goName := naming.Pascal(f.Name)
		if err := naming.ValidIdentifier(goName); err != nil {
			return nil, NewValidationError(e.Name, f.Name, CodeNamingConflict, err.Error())
		}
		if prev, ok := seen[goName]; ok {
			return nil, NewValidationError(e.Name, f.Name, CodeNamingConflict,
				fmt.Sprintf("field %s renders as %s like field %s", f.Name, goName, prev))
		}
		if slices.Contains(reservedFields, goName) {
			return nil, NewValidationError(e.Name, f.Name, CodeNamingConflict,
				fmt.Sprintf("field %s renders as %s, a method of the generated types", f.Name, goName))
		}
		seen[goName] = f.Name
		expr, err := typeexpr.Parse(f.Type)
		if err != nil {
			var serr *typeexpr.SyntaxError
			if errors.As(err, &serr) {
				return nil, NewTypeError(e.Name, f.Name, serr)
			}
			return nil, err
		}
		if err := checkSymbols(e.Name, f, expr, entities, types); err != nil {
			return nil, err
		}
		m.Fields = append(m.Fields, FieldModel{Field: f, Expr: expr, GoName: goName})
	}
	return m, nil
}

// checkSymbols rejects symbols that are neither mapped types nor entities of
// the project. Entities may only be referenced by sub-entity fields and take
// no type arguments. A sub-entity field must reference at least one entity.
func checkSymbols(entity string, f schema.Field, expr *typeexpr.Expr, entities []string, types *typeexpr.Resolver) error {
	var (
		refs int
		walk func(e *typeexpr.Expr) error
	)
	walk = func(e *typeexpr.Expr) error {
		switch {
		case types.Known(e.Name):
		case slices.Contains(entities, e.Name):
			refs++
			if !f.IsSubEntity {
				return NewValidationError(entity, f.Name, CodeUnknownEntity,
					fmt.Sprintf("type %q references entity %s but the field is not a sub-entity", expr, e.Name))
			}
			if len(e.Args) > 0 {
				return NewValidationError(entity, f.Name, CodeUnknownEntity,
					fmt.Sprintf("entity %s takes no type arguments", e.Name))
			}
		default:
			return NewValidationError(entity, f.Name, CodeUnknownEntity, fmt.Sprintf("unknown type %q", e.Name))
		}
		for _, a := range e.Args {
			if err := walk(a); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(expr); err != nil {
		return err
	}
	if f.IsSubEntity && refs == 0 {
		return NewValidationError(entity, f.Name, CodeUnknownEntity,
			fmt.Sprintf("sub-entity type %q references no entity", expr))
	}
	return nil
}

// entityRef reports whether sym names an entity of the project.
func entityRef(index map[string]*Model, types *typeexpr.Resolver, sym string) bool {
	_, ok := index[sym]
	return ok && !types.Known(sym)
}

func indexModels(models []*Model) map[string]*Model {
	index := make(map[string]*Model, len(models))
	for _, m := range models {
		index[m.Name] = m
	}
	return index
}

// valueEdges links every entity to the entities its sub-entity fields hold
// by value. Containers and Optional break the edge.
func valueEdges(models []*Model, types *typeexpr.Resolver) map[string][]string {
	index := indexModels(models)
	edges := make(map[string][]string, len(models))
	for _, m := range models {
		for _, f := range m.Fields {
			if !f.IsSubEntity || !entityRef(index, types, f.Expr.Name) {
				continue
			}
			if !slices.Contains(edges[m.Name], f.Expr.Name) {
				edges[m.Name] = append(edges[m.Name], f.Expr.Name)
			}
		}
	}
	return edges
}

// importEdges links every entity to the other entities its sub-entity fields
// mention. References of an entity to itself stay inside one package and are
// ignored.
func importEdges(models []*Model, types *typeexpr.Resolver) map[string][]string {
	index := indexModels(models)
	edges := make(map[string][]string, len(models))
	for _, m := range models {
		for _, f := range m.Fields {
			if !f.IsSubEntity {
				continue
			}
			for _, sym := range f.Expr.Symbols() {
				if sym == m.Name || !entityRef(index, types, sym) {
					continue
				}
				if !slices.Contains(edges[m.Name], sym) {
					edges[m.Name] = append(edges[m.Name], sym)
				}
			}
		}
	}
	return edges
}

// findCycle returns the first cycle of edges, closed by its starting entity,
// or nil.
func findCycle(models []*Model, edges map[string][]string) []string {
	const (
		unvisited = iota
		visiting
		done
	)
	var (
		state = make(map[string]int, len(models))
		stack []string
		visit func(string) []string
	)
	visit = func(n string) []string {
		state[n] = visiting
		stack = append(stack, n)
		for _, next := range edges[n] {
			switch state[next] {
			case visiting:
				i := slices.Index(stack, next)
				return append(slices.Clone(stack[i:]), next)
			case unvisited:
				if c := visit(next); c != nil {
					return c
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[n] = done
		return nil
	}
	for _, m := range models {
		if state[m.Name] == unvisited {
			if c := visit(m.Name); c != nil {
				return c
			}
		}
	}
	return nil
}

// checkKeys rejects set elements and map keys whose Go type does not support
// ==. Value cycles must have been ruled out first.
func checkKeys(models []*Model, types *typeexpr.Resolver) error {
	index := indexModels(models)
	memo := make(map[string]bool, len(models))
	var keyable func(e *typeexpr.Expr) bool
	keyable = func(e *typeexpr.Expr) bool {
		if entityRef(index, types, e.Name) {
			ok, seen := memo[e.Name]
			if seen {
				return ok
			}
			ok = true
			for _, f := range index[e.Name].Fields {
				ok = ok && keyable(f.Expr)
			}
			memo[e.Name] = ok
			return ok
		}
		m, known := types.Table().Lookup(e.Name)
		if !known {
			return true
		}
		switch m.Kind {
		case typeexpr.Slice, typeexpr.Set, typeexpr.Map:
			return false
		case typeexpr.Pointer:
			return true
		}
		return m.Compare != typeexpr.EqualDeep
	}
	var walk func(e *typeexpr.Expr) *typeexpr.Expr
	walk = func(e *typeexpr.Expr) *typeexpr.Expr {
		switch types.Container(e) {
		case typeexpr.Set, typeexpr.Map:
			if len(e.Args) > 0 && !keyable(e.Args[0]) {
				return e.Args[0]
			}
		}
		for _, a := range e.Args {
			if bad := walk(a); bad != nil {
				return bad
			}
		}
		return nil
	}
	for _, m := range models {
		for _, f := range m.Fields {
			if bad := walk(f.Expr); bad != nil {
				return NewValidationError(m.Name, f.Name, CodeIncomparableKey,
					fmt.Sprintf("%s cannot be a set element or map key", bad))
			}
		}
	}
	return nil
}
