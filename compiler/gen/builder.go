package gen

import (
	"path"
	"slices"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/crudgen/compiler/artifact"
	"github.com/syssam/crudgen/compiler/naming"
	"github.com/syssam/crudgen/compiler/typeexpr"
	"github.com/syssam/crudgen/schema"
)

// packageNames lists imports whose package name is not the last element of
// their path.
var packageNames = map[string]string{
	echoPkg:       "echo",
	opensearchPkg: "opensearch",
}

// builder implements every artifact builder for one validated project.
type builder struct {
	cfg     *Config
	spec    *schema.ProjectSpec
	module  string
	names   *naming.Resolver
	types   *typeexpr.Resolver
	storage *Storage
	models  []*Model
	index   map[string]*Model
}

// Compile-time assertions.
var (
	_ EntityBuilder  = (*builder)(nil)
	_ ProjectBuilder = (*builder)(nil)
	_ Emitter        = (*builder)(nil)
)

func newBuilder(cfg *Config, spec *schema.ProjectSpec, module string, storage *Storage, models []*Model) *builder {
	b := &builder{
		cfg:     cfg,
		spec:    spec,
		module:  module,
		names:   naming.NewResolver(module, spec.Layout),
		types:   typeexpr.NewResolver(cfg.Types),
		storage: storage,
		models:  models,
		index:   make(map[string]*Model, len(models)),
	}
	for _, m := range models {
		b.index[m.Name] = m
	}
	return b
}

// newFile returns an empty file of package pkg carrying the configured
// header.
func (b *builder) newFile(path, pkg string) *artifact.File {
	f := artifact.NewFile(path, pkg)
	f.Header = b.cfg.Output().Header
	f.Names = packageNames
	return f
}

// dialectPkg returns the import path of the runtime dialect package.
func (b *builder) dialectPkg() string {
	return path.Join(b.cfg.RuntimePath, "dialect")
}

// storagePkg returns the import path of the backend runtime package.
func (b *builder) storagePkg() string {
	return b.storage.RuntimePackage(b.cfg.RuntimePath)
}

// symbol returns the qualified jennifer reference of kind k of entity.
func (b *builder) symbol(k naming.Kind, entity string) *jen.Statement {
	s := b.names.Symbol(k, entity)
	return jen.Qual(s.Path, s.Name)
}

// sibling reports whether sym names an entity of the project.
func (b *builder) sibling(sym string) bool {
	_, ok := b.index[sym]
	return ok && !b.types.Known(sym)
}

// siblings returns the entities referenced by a sub-entity field.
func (b *builder) siblings(f FieldModel) []string {
	if !f.IsSubEntity {
		return nil
	}
	var out []string
	for _, sym := range f.Expr.Symbols() {
		if b.sibling(sym) && !slices.Contains(out, sym) {
			out = append(out, sym)
		}
	}
	return out
}

// qualifier renders sibling entity symbols as the domain type dt.
func (b *builder) qualifier(dt DomainType) typeexpr.Qualifier {
	return func(sym string) (jen.Code, bool) {
		if !b.sibling(sym) {
			return nil, false
		}
		return b.symbol(dt.Kind(), sym), true
	}
}

// goType renders the type expression e as seen from domain type dt.
func (b *builder) goType(e *typeexpr.Expr, dt DomainType) jen.Code {
	return b.types.GoType(e, b.qualifier(dt))
}

// fieldType renders the Go type of f in domain type dt. Only sub-entity
// fields reference sibling types.
func (b *builder) fieldType(f FieldModel, dt DomainType) jen.Code {
	if !f.IsSubEntity {
		return b.types.GoType(f.Expr, nil)
	}
	return b.goType(f.Expr, dt)
}

// fieldImports returns the import paths f needs in domain type dt.
func (b *builder) fieldImports(f FieldModel, dt DomainType) []string {
	imports := b.types.ImportsOf(f.Expr)
	for _, s := range b.siblings(f) {
		if p := b.names.Symbol(dt.Kind(), s).Path; !slices.Contains(imports, p) {
			imports = append(imports, p)
		}
	}
	return imports
}

// structured reports whether f is stored as a serialized value by
// relational backends.
func (b *builder) structured(f FieldModel) bool {
	if f.IsSubEntity {
		return true
	}
	switch b.types.Container(f.Expr) {
	case typeexpr.Slice, typeexpr.Set, typeexpr.Map:
		return true
	}
	return false
}

// stringID reports whether the identifier of m renders as a Go string.
func (b *builder) stringID(m *Model) bool {
	id, ok := m.ID()
	if !ok || len(id.Expr.Args) > 0 {
		return false
	}
	mp, ok := b.types.Table().Lookup(id.Expr.Name)
	return ok && mp.Kind == typeexpr.Scalar && mp.Import == "" && mp.Go == "string"
}

// entityNames returns the entity names in declaration order.
func (b *builder) entityNames() []string {
	out := make([]string, len(b.models))
	for i, m := range b.models {
		out[i] = m.Name
	}
	return out
}
