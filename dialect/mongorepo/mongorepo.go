// Package mongorepo implements the dialect repository contract on MongoDB.
package mongorepo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/syssam/crudgen/dialect"
)

// Repository is the document repository contract.
type Repository[T any, ID comparable] interface {
	dialect.CrudRepository[T, ID]
	// Collection returns the underlying collection.
	Collection() *mongo.Collection
}

// Repo is a MongoDB-backed Repository. Documents are keyed by "_id".
type Repo[T any, ID comparable] struct {
	coll *mongo.Collection
}

var _ Repository[struct{}, string] = (*Repo[struct{}, string])(nil)

// New returns a repository of T stored in the collection named by
// T's CollectionName method, or its lower-cased type name.
func New[T any, ID comparable](db *mongo.Database) *Repo[T, ID] {
	return &Repo[T, ID]{coll: db.Collection(dialect.CollectionOf[T]())}
}

// Connect opens a client for uri.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongorepo: connect: %w", err)
	}
	return client, nil
}

// Collection implements Repository.
func (r *Repo[T, ID]) Collection() *mongo.Collection { return r.coll }

func byID[ID comparable](id ID) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

// FindByID implements dialect.CrudRepository.
func (r *Repo[T, ID]) FindByID(ctx context.Context, id ID) (*T, error) {
	var e T
	err := r.coll.FindOne(ctx, byID(id)).Decode(&e)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, dialect.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("mongorepo: find: %w", err)
	}
	return &e, nil
}

// FindAll implements dialect.CrudRepository.
func (r *Repo[T, ID]) FindAll(ctx context.Context) ([]T, error) {
	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongorepo: find all: %w", err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongorepo: find all: %w", err)
	}
	return out, nil
}

// Save implements dialect.CrudRepository. Entities with an identifier are
// upserted by it. Others are inserted, after receiving a fresh ObjectID in
// hex form when they implement dialect.IDSetter with string identifiers.
func (r *Repo[T, ID]) Save(ctx context.Context, entity *T) (*T, error) {
	if id, ok := dialect.HasID[T, ID](entity); ok {
		_, err := r.coll.ReplaceOne(ctx, byID(id), entity, options.Replace().SetUpsert(true))
		if err != nil {
			return nil, fmt.Errorf("mongorepo: save: %w", err)
		}
		return entity, nil
	}
	if id, ok := any(primitive.NewObjectID().Hex()).(ID); ok {
		dialect.AssignID(entity, id)
	}
	if _, err := r.coll.InsertOne(ctx, entity); err != nil {
		return nil, fmt.Errorf("mongorepo: save: %w", err)
	}
	return entity, nil
}

// DeleteByID implements dialect.CrudRepository.
func (r *Repo[T, ID]) DeleteByID(ctx context.Context, id ID) error {
	if _, err := r.coll.DeleteOne(ctx, byID(id)); err != nil {
		return fmt.Errorf("mongorepo: delete: %w", err)
	}
	return nil
}
