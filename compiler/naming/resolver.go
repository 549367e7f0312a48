package naming

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/syssam/crudgen/schema"
)

// Layer is one of the four package kinds of a generated project.
type Layer string

// Layers, in the order their directories are created.
const (
	Controllers  Layer = "controllers"
	Services     Layer = "services"
	Domains      Layer = "domains"
	Repositories Layer = "repositories"
)

// Layers lists every layer.
var Layers = []Layer{Controllers, Services, Domains, Repositories}

// Kind identifies a generated type of an entity.
type Kind uint8

// Generated type kinds.
const (
	Entity Kind = iota
	Response
	Resource
	Repository
	Mapper
	Service
	Controller
)

var kindNames = [...]string{
	Entity:     "entity",
	Response:   "response",
	Resource:   "resource",
	Repository: "repository",
	Mapper:     "mapper",
	Service:    "service",
	Controller: "controller",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Kinds lists every kind.
var Kinds = []Kind{Entity, Response, Resource, Repository, Mapper, Service, Controller}

// Layer returns the layer the kind is generated into.
func (k Kind) Layer() Layer {
	switch k {
	case Repository:
		return Repositories
	case Mapper, Service:
		return Services
	case Controller:
		return Controllers
	default:
		return Domains
	}
}

// TypeName returns the generated type name of kind k for entity.
func TypeName(k Kind, entity string) string {
	switch k {
	case Response:
		return ResponseName(entity)
	case Resource:
		return ResourceName(entity)
	case Repository:
		return RepositoryName(entity)
	case Mapper:
		return MapperName(entity)
	case Service:
		return ServiceName(entity)
	case Controller:
		return ControllerName(entity)
	default:
		return BaseName(entity)
	}
}

// File identifies a generated per-entity file.
type File uint8

// Per-entity files, in generation order.
const (
	DomainFile File = iota
	RepositoryFile
	MapperFile
	ServiceFile
	ControllerFile
)

// Files lists every per-entity file in generation order.
var Files = []File{DomainFile, RepositoryFile, MapperFile, ServiceFile, ControllerFile}

// Layer returns the layer the file belongs to.
func (f File) Layer() Layer {
	switch f {
	case RepositoryFile:
		return Repositories
	case MapperFile, ServiceFile:
		return Services
	case ControllerFile:
		return Controllers
	default:
		return Domains
	}
}

func (f File) suffix() string {
	switch f {
	case RepositoryFile:
		return "_repository"
	case MapperFile:
		return "_mapper"
	case ServiceFile:
		return "_service"
	case ControllerFile:
		return "_controller"
	default:
		return ""
	}
}

// Symbol is a fully-qualified Go symbol.
type Symbol struct {
	Path string // import path
	Name string
}

// String returns the symbol in "path.Name" form.
func (s Symbol) String() string { return s.Path + "." + s.Name }

// Resolver computes package and file locations for one project.
type Resolver struct {
	module string
	layout schema.Layout
}

// NewResolver returns a resolver for the given module path and layout.
func NewResolver(module string, layout schema.Layout) *Resolver {
	if layout == "" {
		layout = schema.Layered
	}
	return &Resolver{module: module, layout: layout}
}

// Module returns the module path.
func (r *Resolver) Module() string { return r.module }

// Layout returns the layout.
func (r *Resolver) Layout() schema.Layout { return r.layout }

// Dir returns the directory of a layer relative to the project root, using
// forward slashes.
func (r *Resolver) Dir(l Layer, entity string) string {
	if r.layout == schema.PerEntity {
		return path.Join(PackageSegment(entity), string(l))
	}
	return string(l)
}

// PackagePath returns the import path of a layer package.
func (r *Resolver) PackagePath(l Layer, entity string) string {
	return path.Join(r.module, r.Dir(l, entity))
}

// Symbol returns the fully-qualified symbol of kind k for entity.
func (r *Resolver) Symbol(k Kind, entity string) Symbol {
	return Symbol{Path: r.PackagePath(k.Layer(), entity), Name: TypeName(k, entity)}
}

// FilePath returns the path of a per-entity file relative to the project root.
func (r *Resolver) FilePath(f File, entity string) string {
	return path.Join(r.Dir(f.Layer(), entity), FileStem(entity)+f.suffix()+".go")
}

// Dirs returns every package directory of the project, deduplicated, in
// entity then layer order.
func (r *Resolver) Dirs(entities []string) []string {
	var dirs []string
	for _, e := range entities {
		for _, l := range Layers {
			if d := r.Dir(l, e); !slices.Contains(dirs, d) {
				dirs = append(dirs, d)
			}
		}
	}
	return dirs
}

// Conflict describes two entities whose generated names collide.
type Conflict struct {
	First, Second string
	// Name is the colliding file path or qualified type name.
	Name string
}

// Conflicts reports every collision between generated file paths or type
// names of the given entities. File paths are compared case-insensitively.
func (r *Resolver) Conflicts(entities []string) []Conflict {
	var (
		out   []Conflict
		owner = make(map[string]int)
	)
	claim := func(key, display string, i int) {
		if prev, ok := owner[key]; ok && prev != i {
			out = append(out, Conflict{First: entities[prev], Second: entities[i], Name: display})
			return
		}
		owner[key] = i
	}
	for i, e := range entities {
		for _, f := range Files {
			p := r.FilePath(f, e)
			claim("file:"+strings.ToLower(p), p, i)
		}
		for _, k := range Kinds {
			s := r.Symbol(k, e)
			claim("type:"+s.String(), s.String(), i)
		}
	}
	return out
}
