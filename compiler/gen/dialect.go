package gen

import (
	"github.com/syssam/crudgen/compiler/artifact"
	"github.com/syssam/crudgen/compiler/naming"
	"github.com/syssam/crudgen/compiler/typeexpr"
	"github.com/syssam/crudgen/schema"
)

// =============================================================================
// Interface Segregation: builders are split by the files they produce
// =============================================================================

// DomainBuilder builds the data types of an entity (domains/{entity}.go).
type DomainBuilder interface {
	// BuildDomain builds the Entity, Response or Resource class.
	BuildDomain(m *Model, dt DomainType) (*artifact.Class, error)
}

// PersistenceBuilder builds the repository contract
// (repositories/{entity}_repository.go).
type PersistenceBuilder interface {
	BuildRepository(m *Model) (*artifact.Interface, error)
}

// ServiceBuilder builds the mapper contract and the service class
// (services/{entity}_mapper.go, services/{entity}_service.go).
type ServiceBuilder interface {
	BuildMapper(m *Model) (*artifact.Interface, error)
	BuildService(m *Model) (*artifact.Class, error)
}

// ControllerBuilder builds the HTTP controller
// (controllers/{entity}_controller.go).
type ControllerBuilder interface {
	BuildController(m *Model) (*artifact.Class, error)
}

// EntityBuilder builds every per-entity artifact.
type EntityBuilder interface {
	DomainBuilder
	PersistenceBuilder
	ServiceBuilder
	ControllerBuilder
}

// ProjectBuilder builds the project-level files (main.go, go.mod).
type ProjectBuilder interface {
	BuildBootstrap() (*artifact.Class, error)
	BuildManifest() (*Manifest, error)
}

// Emitter expands the metadata tags of a built artifact into code. It may
// return companion artifacts rendered into the same file.
type Emitter interface {
	Emit(m *Model, a artifact.Artifact) ([]artifact.Artifact, error)
}

// DomainType selects which of the three data types of an entity is built.
type DomainType uint8

// Domain types.
const (
	DomainEntity DomainType = iota
	DomainResponse
	DomainResource
)

// DomainTypes lists the domain types in rendering order.
var DomainTypes = []DomainType{DomainEntity, DomainResponse, DomainResource}

// Kind returns the naming kind of the domain type.
func (d DomainType) Kind() naming.Kind {
	switch d {
	case DomainResponse:
		return naming.Response
	case DomainResource:
		return naming.Resource
	default:
		return naming.Entity
	}
}

// String implements fmt.Stringer.
func (d DomainType) String() string { return d.Kind().String() }

// Metadata tags attached to artifacts. Emission expands the ones that imply
// code; the others are informational.
const (
	TagValueObject    = "ValueObject"
	TagEntity         = "Entity"
	TagDocument       = "Document"
	TagID             = "Id"
	TagRepository     = "Repository"
	TagMapper         = "Mapper"
	TagService        = "Service"
	TagInject         = "Inject"
	TagRequestMapping = "RequestMapping"
	TagRoute          = "Route"
	TagApplication    = "Application"
)

// Model is a validated entity: its schema fields with parsed type
// expressions.
type Model struct {
	Name   string
	Fields []FieldModel
}

// FieldModel is a schema field with its parsed type expression.
type FieldModel struct {
	schema.Field
	Expr *typeexpr.Expr
	// GoName is the exported Go field name.
	GoName string
}

// ID returns the identifier field, if any.
func (m *Model) ID() (FieldModel, bool) {
	for _, f := range m.Fields {
		if f.IsID {
			return f, true
		}
	}
	return FieldModel{}, false
}
