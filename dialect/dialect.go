package dialect

import (
	"context"
	"errors"
	"reflect"
	"strings"
)

// Backend names.
const (
	Gorm       = "gorm"
	Mongo      = "mongo"
	OpenSearch = "opensearch"
)

// ErrNotFound is returned by FindByID when the identifier is unknown.
var ErrNotFound = errors.New("dialect: entity not found")

// CrudRepository is the generic persistence contract of an entity type T
// keyed by ID.
type CrudRepository[T any, ID comparable] interface {
	// FindByID returns the entity with the given identifier or ErrNotFound.
	FindByID(ctx context.Context, id ID) (*T, error)
	// FindAll returns every entity in store order.
	FindAll(ctx context.Context) ([]T, error)
	// Save inserts or replaces the entity and returns the stored value.
	Save(ctx context.Context, entity *T) (*T, error)
	// DeleteByID removes the entity with the given identifier.
	DeleteByID(ctx context.Context, id ID) error
}

// Identifiable is implemented by entities that expose their identifier.
type Identifiable[ID comparable] interface {
	GetID() ID
}

// IDSetter is implemented by entities whose identifier is assigned by the
// store when they are first saved.
type IDSetter[ID comparable] interface {
	SetID(ID)
}

// Collection is implemented by entities stored in a named MongoDB collection.
type Collection interface {
	CollectionName() string
}

// Index is implemented by entities stored in a named search index.
type Index interface {
	IndexName() string
}

// IDOf returns the identifier of entity when it implements Identifiable.
func IDOf[T any, ID comparable](entity *T) (ID, bool) {
	if v, ok := any(entity).(Identifiable[ID]); ok {
		return v.GetID(), true
	}
	var zero ID
	return zero, false
}

// AssignID sets the identifier of entity when it implements IDSetter. It
// reports whether the identifier was set.
func AssignID[T any, ID comparable](entity *T, id ID) bool {
	if v, ok := any(entity).(IDSetter[ID]); ok {
		v.SetID(id)
		return true
	}
	return false
}

// HasID reports whether entity is Identifiable with a non-zero identifier.
func HasID[T any, ID comparable](entity *T) (ID, bool) {
	id, ok := IDOf[T, ID](entity)
	var zero ID
	return id, ok && id != zero
}

// CollectionOf returns the collection name of T, or its lower-cased type name.
func CollectionOf[T any]() string {
	if v, ok := any(new(T)).(Collection); ok {
		return v.CollectionName()
	}
	return strings.ToLower(reflect.TypeFor[T]().Name())
}

// IndexOf returns the index name of T, or its lower-cased type name.
func IndexOf[T any]() string {
	if v, ok := any(new(T)).(Index); ok {
		return v.IndexName()
	}
	return strings.ToLower(reflect.TypeFor[T]().Name())
}
