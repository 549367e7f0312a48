// Package dialect is the persistence runtime imported by generated projects.
//
// Every generated repository embeds one backend contract. All contracts
// extend [CrudRepository]:
//
//	type CrudRepository[T any, ID comparable] interface {
//	    FindByID(ctx context.Context, id ID) (*T, error)
//	    FindAll(ctx context.Context) ([]T, error)
//	    Save(ctx context.Context, entity *T) (*T, error)
//	    DeleteByID(ctx context.Context, id ID) error
//	}
//
// # Backends
//
//   - gormrepo: relational databases through gorm (SQLite, PostgreSQL)
//   - mongorepo: MongoDB collections
//   - searchrepo: OpenSearch / Elasticsearch indices
//
// # Entity Hooks
//
// Backends discover optional behavior on the entity type through small
// interfaces: [Identifiable] exposes the identifier and [IDSetter] lets the
// store assign one on first save. [Collection] names the MongoDB collection
// and [Index] names the search index. Generated entities implement the ones
// their backend needs.
//
// # Errors
//
// FindByID returns [ErrNotFound] when no entity has the given identifier.
// DeleteByID of a missing identifier is not an error.
package dialect
