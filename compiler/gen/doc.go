// Package gen generates layered CRUD web projects from a project spec.
//
// Given a [schema.ProjectSpec] the generator writes a Go module exposing every
// entity through an echo HTTP controller, a service, a mapper and a
// repository backed by the selected persistence runtime (gorm, MongoDB or
// OpenSearch).
//
// # Architecture
//
// A run moves through fixed stages:
//
//	Validate               spec checks, type expressions parsed
//	    ↓
//	LayoutDerive           directories and file paths, computed once
//	    ↓
//	DirectoryMaterialize   package dirs plus configs/ and test/
//	    ↓
//	PerEntityGeneration    domain, repository, mapper, service, controller
//	    ↓
//	ManifestEmit           go.mod and main.go
//	    ↓
//	Done                   (Failed is entered from any stage)
//
// Every file is assembled from artifacts (see package artifact). Builders
// produce classes and interfaces carrying metadata tags; emission expands
// the tags into constructors, equality, registration and accessors before
// rendering with jennifer and formatting with goimports.
//
// # Interface Hierarchy
//
// Builders follow the Interface Segregation Principle:
//
//	EntityBuilder
//	├── DomainBuilder       Entity, Response, Resource
//	├── PersistenceBuilder  repository contract
//	├── ServiceBuilder      mapper contract, service
//	└── ControllerBuilder   HTTP controller
//	ProjectBuilder          bootstrap, manifest
//	Emitter                 tag expansion
//
// # Error Handling
//
// Failures are reported with structured error types:
//
//   - ValidationError: spec rejected before anything is written; Code holds
//     the machine-readable reason
//   - TypeError: malformed field type expression
//   - WriteError: a directory or file could not be written
//   - GenerationError: rendering or formatting failed
//   - ConfigError: invalid option
//
// [Category] maps any of them to the category reported to callers:
//
//	res, err := gen.Generate(ctx, spec, gen.WithModulePrefix("github.com/acme"))
//	if err != nil {
//	    switch gen.Category(err) {
//	    case gen.CategoryValidation, gen.CategoryMalformedType:
//	        // caller error
//	    }
//	    return err
//	}
//
// Files written before a failure are not removed. Callers needing atomic
// output generate into a temporary directory and move it into place.
package gen
