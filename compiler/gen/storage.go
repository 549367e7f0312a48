package gen

import (
	"fmt"
	"path"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/crudgen/compiler/artifact"
	"github.com/syssam/crudgen/dialect"
	"github.com/syssam/crudgen/schema"
)

// Storage describes how a persistence backend is rendered in generated code.
type Storage struct {
	Backend schema.Backend
	Name    string // runtime dialect name, e.g. "gorm".
	Package string // runtime package, relative to the runtime module.
	Module  string // persistence module required by the generated project.
	Version string
	// ConnPath and ConnName name the connection type handed to repository
	// constructors; ConnVar is its parameter name.
	ConnPath string
	ConnName string
	ConnVar  string
	// EntityTag returns the persistence-mapping tag of an entity class.
	EntityTag func(entity string) artifact.Tag
	// FieldTags returns the backend struct tags of an entity field.
	FieldTags func(name string, id, structured bool) map[string]string
	// Connect returns the statements declaring ConnVar in main.go. models
	// lists a pointer to every entity type.
	Connect func(pkg, project string, models []jen.Code) []jen.Code
}

// RuntimePackage returns the import path of the backend runtime package.
func (s *Storage) RuntimePackage(runtime string) string {
	return path.Join(runtime, s.Package)
}

// ConnType returns the connection parameter type.
func (s *Storage) ConnType() jen.Code {
	return jen.Op("*").Qual(s.ConnPath, s.ConnName)
}

// String implements the fmt.Stringer interface.
func (s *Storage) String() string { return s.Name }

// drivers holds the storage options, one per backend.
var drivers = []*Storage{
	{
		Backend:  schema.Relational,
		Name:     dialect.Gorm,
		Package:  "dialect/gormrepo",
		Module:   "gorm.io/gorm",
		Version:  "v1.30.2",
		ConnPath: "gorm.io/gorm",
		ConnName: "DB",
		ConnVar:  "db",
		EntityTag: func(string) artifact.Tag {
			return artifact.NewTag(TagEntity)
		},
		FieldTags: func(name string, id, structured bool) map[string]string {
			tags := map[string]string{"json": name}
			switch {
			case id:
				tags["gorm"] = "primaryKey"
			case structured:
				tags["gorm"] = "serializer:json"
			}
			return tags
		},
		Connect: func(pkg, project string, models []jen.Code) []jen.Code {
			return []jen.Code{
				jen.List(jen.Id("db"), jen.Err()).Op(":=").Qual(pkg, "Open").Call(
					envLookup("DATABASE_URL", "sqlite://"+strings.ToLower(project)+".db"),
					jen.Id("logger"),
				),
				returnOnErr(),
				jen.If(
					jen.Err().Op(":=").Id("db").Dot("AutoMigrate").Call(models...),
					jen.Err().Op("!=").Nil(),
				).Block(jen.Return(jen.Nil(), jen.Err())),
			}
		},
	},
	{
		Backend:  schema.Document,
		Name:     dialect.Mongo,
		Package:  "dialect/mongorepo",
		Module:   "go.mongodb.org/mongo-driver",
		Version:  "v1.17.4",
		ConnPath: "go.mongodb.org/mongo-driver/mongo",
		ConnName: "Database",
		ConnVar:  "db",
		EntityTag: func(entity string) artifact.Tag {
			return artifact.NewTag(TagDocument, "collection", strings.ToLower(entity))
		},
		FieldTags: func(name string, id, _ bool) map[string]string {
			tags := map[string]string{"json": name, "bson": name}
			if id {
				tags["bson"] = "_id"
			}
			return tags
		},
		Connect: func(pkg, project string, _ []jen.Code) []jen.Code {
			return []jen.Code{
				jen.List(jen.Id("client"), jen.Err()).Op(":=").Qual(pkg, "Connect").Call(
					jen.Id("ctx"),
					envLookup("MONGODB_URI", "mongodb://localhost:27017"),
				),
				returnOnErr(),
				jen.Id("db").Op(":=").Id("client").Dot("Database").Call(jen.Lit(strings.ToLower(project))),
			}
		},
	},
	{
		Backend:  schema.SearchIndex,
		Name:     dialect.OpenSearch,
		Package:  "dialect/searchrepo",
		Module:   opensearchPkg,
		Version:  "v2.3.0",
		ConnPath: opensearchPkg,
		ConnName: "Client",
		ConnVar:  "client",
		EntityTag: func(entity string) artifact.Tag {
			return artifact.NewTag(TagDocument, "indexName", strings.ToLower(entity))
		},
		FieldTags: func(name string, id, _ bool) map[string]string {
			if id {
				return map[string]string{"json": "id"}
			}
			return map[string]string{"json": name}
		},
		Connect: func(pkg, _ string, _ []jen.Code) []jen.Code {
			return []jen.Code{
				jen.List(jen.Id("client"), jen.Err()).Op(":=").Qual(pkg, "Connect").Call(
					envLookup("OPENSEARCH_URL", "http://localhost:9200"),
				),
				returnOnErr(),
			}
		},
	},
}

// NewStorage returns the storage of the given backend. The empty backend
// selects the relational storage.
func NewStorage(b schema.Backend) (*Storage, error) {
	if b == "" {
		b = schema.Relational
	}
	for _, d := range drivers {
		if b == d.Backend {
			return d, nil
		}
	}
	return nil, fmt.Errorf("crudgen: invalid storage backend %q", b)
}

// envLookup renders getenv(key, fallback).
func envLookup(key, fallback string) jen.Code {
	return jen.Id("getenv").Call(jen.Lit(key), jen.Lit(fallback))
}

func returnOnErr() jen.Code {
	return jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err()))
}
