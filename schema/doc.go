// Package schema holds the declarative description of a project that crudgen
// scaffolds.
//
// A [ProjectSpec] names the project, the directory it is written to, the
// persistence [Backend] and the package [Layout], and lists the entities to
// generate:
//
//	spec := &schema.ProjectSpec{
//	    Path:    "/tmp/shop",
//	    Name:    "shop",
//	    Layout:  schema.Layered,
//	    Backend: schema.Relational,
//	    Entities: []schema.Entity{
//	        {
//	            Name: "Order",
//	            Fields: []schema.Field{
//	                {Name: "id", Type: "String", IsID: true},
//	                {Name: "total", Type: "Double"},
//	                {Name: "address", Type: "Address", IsSubEntity: true},
//	            },
//	        },
//	        {Name: "Address", Fields: []schema.Field{{Name: "street", Type: "String"}}},
//	    },
//	}
//
// # Field Types
//
// Field types are type expressions such as "String", "List<Address>" or
// "Map<String, Integer>". The compiler/typeexpr package parses and resolves
// them.
//
// # Encoding
//
// Specs are read from YAML or JSON. Layout and backend values are matched
// case-insensitively and accept the legacy names LAYER, ENTITY, MYSQL,
// MONGODB and ELASTICSEARCH.
package schema
