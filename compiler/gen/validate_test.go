package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/crudgen/schema"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*schema.ProjectSpec)
		code   string
		entity string
	}{
		{
			name:   "missing path",
			modify: func(s *schema.ProjectSpec) { s.Path = " " },
			code:   CodeMissingPath,
		},
		{
			name:   "missing name",
			modify: func(s *schema.ProjectSpec) { s.Name = "" },
			code:   CodeMissingName,
		},
		{
			name:   "project name is not a module path",
			modify: func(s *schema.ProjectSpec) { s.Name = "my shop" },
			code:   CodeNamingConflict,
		},
		{
			name:   "project name is not an identifier",
			modify: func(s *schema.ProjectSpec) { s.Name = "1shop" },
			code:   CodeNamingConflict,
		},
		{
			name:   "unknown layout",
			modify: func(s *schema.ProjectSpec) { s.Layout = "FLAT" },
			code:   CodeUnknownOption,
		},
		{
			name:   "unknown backend",
			modify: func(s *schema.ProjectSpec) { s.Backend = "COLUMNAR" },
			code:   CodeUnknownOption,
		},
		{
			name:   "no entities",
			modify: func(s *schema.ProjectSpec) { s.Entities = nil },
			code:   CodeNoEntities,
		},
		{
			name: "entity without name",
			modify: func(s *schema.ProjectSpec) {
				s.Entities = append(s.Entities, schema.Entity{})
			},
			code: CodeMissingName,
		},
		{
			name: "composite id",
			modify: func(s *schema.ProjectSpec) {
				s.Entities[0].Fields[1].IsID = true
			},
			code:   CodeCompositeID,
			entity: "Order",
		},
		{
			name: "duplicate entity",
			modify: func(s *schema.ProjectSpec) {
				s.Entities = append(s.Entities, s.Entities[0])
			},
			code:   CodeNamingConflict,
			entity: "Order",
		},
		{
			name: "entities differing in case",
			modify: func(s *schema.ProjectSpec) {
				s.Entities = append(s.Entities, schema.Entity{Name: "order", Fields: s.Entities[0].Fields})
			},
			code:   CodeNamingConflict,
			entity: "order",
		},
		{
			name: "entity name is not an identifier",
			modify: func(s *schema.ProjectSpec) {
				s.Entities[0].Name = "Order-Line"
			},
			code:   CodeNamingConflict,
			entity: "Order-Line",
		},
		{
			name: "fields rendering to the same Go name",
			modify: func(s *schema.ProjectSpec) {
				s.Entities[0].Fields = append(s.Entities[0].Fields,
					schema.Field{Name: "first_name", Type: "String"},
					schema.Field{Name: "firstName", Type: "String"},
				)
			},
			code:   CodeNamingConflict,
			entity: "Order",
		},
		{
			name: "field without name",
			modify: func(s *schema.ProjectSpec) {
				s.Entities[0].Fields = append(s.Entities[0].Fields, schema.Field{Type: "String"})
			},
			code:   CodeMissingName,
			entity: "Order",
		},
		{
			name: "unknown type symbol",
			modify: func(s *schema.ProjectSpec) {
				s.Entities[0].Fields[1].Type = "Money"
			},
			code:   CodeUnknownEntity,
			entity: "Order",
		},
		{
			name: "entity referenced by a plain field",
			modify: func(s *schema.ProjectSpec) {
				s.Entities = append(s.Entities, schema.Entity{Name: "Item", Fields: s.Entities[0].Fields})
				s.Entities[0].Fields = append(s.Entities[0].Fields,
					schema.Field{Name: "items", Type: "List<Item>"})
			},
			code:   CodeUnknownEntity,
			entity: "Order",
		},
		{
			name: "entity with type arguments",
			modify: func(s *schema.ProjectSpec) {
				s.Entities = append(s.Entities, schema.Entity{Name: "Item", Fields: s.Entities[0].Fields})
				s.Entities[0].Fields = append(s.Entities[0].Fields,
					schema.Field{Name: "item", Type: "Item<String>", IsSubEntity: true})
			},
			code:   CodeUnknownEntity,
			entity: "Order",
		},
		{
			name: "entity holding itself by value",
			modify: func(s *schema.ProjectSpec) {
				s.Entities[0].Fields = append(s.Entities[0].Fields,
					schema.Field{Name: "parent", Type: "Order", IsSubEntity: true})
			},
			code:   CodeRecursiveType,
			entity: "Order",
		},
		{
			name: "slice as set element",
			modify: func(s *schema.ProjectSpec) {
				s.Entities[0].Fields = append(s.Entities[0].Fields,
					schema.Field{Name: "groups", Type: "Set<List<String>>"})
			},
			code:   CodeIncomparableKey,
			entity: "Order",
		},
		{
			name: "big integer as map key",
			modify: func(s *schema.ProjectSpec) {
				s.Entities[0].Fields = append(s.Entities[0].Fields,
					schema.Field{Name: "rates", Type: "Map<BigInteger,Double>"})
			},
			code:   CodeIncomparableKey,
			entity: "Order",
		},
		{
			name: "sub-entity without entity",
			modify: func(s *schema.ProjectSpec) {
				s.Entities[0].Fields = append(s.Entities[0].Fields,
					schema.Field{Name: "tags", Type: "List<String>", IsSubEntity: true})
			},
			code:   CodeUnknownEntity,
			entity: "Order",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := shopSpec("/tmp/shop")
			tt.modify(spec)

			_, err := validate(MustNewConfig(), spec)
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.code, verr.Code)
			assert.Equal(t, tt.entity, verr.Entity)
			assert.Equal(t, CategoryValidation, Category(err))
		})
	}
}

func TestValidateMessages(t *testing.T) {
	spec := shopSpec("/tmp/shop")
	spec.Entities = nil
	_, err := validate(MustNewConfig(), spec)
	assert.Contains(t, err.Error(), "at least one entity required")

	spec = shopSpec("/tmp/shop")
	spec.Entities[0].Fields[1].IsID = true
	_, err = validate(MustNewConfig(), spec)
	assert.Contains(t, err.Error(), "composite primary keys unsupported")
}

func TestValidateReservedFieldNames(t *testing.T) {
	for _, name := range []string{"equal", "get_id", "GetID", "set_id", "collection_name", "indexName"} {
		t.Run(name, func(t *testing.T) {
			for _, backend := range []schema.Backend{schema.Relational, schema.Document, schema.SearchIndex} {
				spec := shopSpec("/tmp/shop")
				spec.Backend = backend
				spec.Entities[0].Fields = append(spec.Entities[0].Fields, schema.Field{Name: name, Type: "Boolean"})

				_, err := validate(MustNewConfig(), spec)
				var verr *ValidationError
				require.ErrorAs(t, err, &verr, "backend %s", backend)
				assert.Equal(t, CodeNamingConflict, verr.Code)
				assert.Equal(t, name, verr.Field)
			}
		})
	}
}

func TestValidateKeys(t *testing.T) {
	t.Run("comparable entity as set element", func(t *testing.T) {
		spec := crmSpec("/tmp/crm", schema.Layered)
		spec.Entities[0].Fields = append(spec.Entities[0].Fields,
			schema.Field{Name: "billing", Type: "Set<Address>", IsSubEntity: true},
			schema.Field{Name: "by_street", Type: "Map<Address,String>", IsSubEntity: true})
		_, err := validate(MustNewConfig(), spec)
		assert.NoError(t, err)
	})

	t.Run("entity holding a slice as map key", func(t *testing.T) {
		spec := crmSpec("/tmp/crm", schema.Layered)
		spec.Entities[1].Fields = append(spec.Entities[1].Fields,
			schema.Field{Name: "residents", Type: "Map<Customer,Integer>", IsSubEntity: true})
		_, err := validate(MustNewConfig(), spec)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, CodeIncomparableKey, verr.Code)
		assert.Equal(t, "Address", verr.Entity)
		assert.Contains(t, verr.Message, "Customer")
	})
}

func TestValidateNilSpec(t *testing.T) {
	_, err := validate(MustNewConfig(), nil)
	assert.True(t, IsValidationError(err))
}

func TestValidateMalformedType(t *testing.T) {
	for _, expr := range []string{"List<String", "Map<String,>", "List<>", "", "List<String>>"} {
		t.Run(expr, func(t *testing.T) {
			spec := shopSpec("/tmp/shop")
			spec.Entities[0].Fields[1].Type = expr

			_, err := validate(MustNewConfig(), spec)
			require.Error(t, err)
			assert.True(t, IsTypeError(err))
			assert.True(t, errors.Is(err, ErrMalformedType))
			assert.Equal(t, CategoryMalformedType, Category(err))
		})
	}
}

func TestValidateNormalizes(t *testing.T) {
	spec := shopSpec("/tmp/shop")
	spec.Layout = "per-entity"
	spec.Backend = "mongodb"

	p, err := validate(MustNewConfig(WithModulePrefix("example.com/acme")), spec)
	require.NoError(t, err)
	assert.Equal(t, schema.PerEntity, p.spec.Layout)
	assert.Equal(t, schema.Document, p.spec.Backend)
	assert.Equal(t, "example.com/acme/shop", p.module)
	assert.Equal(t, "mongo", p.storage.Name)
	// The caller's spec is left untouched.
	assert.Equal(t, schema.Layout("per-entity"), spec.Layout)

	require.Len(t, p.models, 1)
	fields := p.models[0].Fields
	require.Len(t, fields, 2)
	assert.Equal(t, "ID", fields[0].GoName)
	assert.Equal(t, "String", fields[0].Expr.Name)
}

func TestValidateImportCycle(t *testing.T) {
	cyclic := func(layout schema.Layout) *schema.ProjectSpec {
		spec := crmSpec("/tmp/crm", layout)
		spec.Entities[1].Fields = append(spec.Entities[1].Fields,
			schema.Field{Name: "owner", Type: "Customer", IsSubEntity: true})
		return spec
	}

	t.Run("per entity layout rejects cycles", func(t *testing.T) {
		_, err := validate(MustNewConfig(), cyclic(schema.PerEntity))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, CodeImportCycle, verr.Code)
		assert.Contains(t, verr.Message, "Customer -> Address -> Customer")
	})

	t.Run("layered layout shares packages", func(t *testing.T) {
		// Customer holds its addresses in a slice, so the types stay finite.
		_, err := validate(MustNewConfig(), cyclic(schema.Layered))
		assert.NoError(t, err)
	})

	t.Run("mutual value references", func(t *testing.T) {
		for _, layout := range []schema.Layout{schema.Layered, schema.PerEntity} {
			spec := cyclic(layout)
			spec.Entities[0].Fields[2] = schema.Field{Name: "address", Type: "Address", IsSubEntity: true}
			_, err := validate(MustNewConfig(), spec)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr, "layout %s", layout)
			assert.Equal(t, CodeRecursiveType, verr.Code)
			assert.Contains(t, verr.Message, "Customer -> Address -> Customer")
		}
	})

	t.Run("self reference through a container", func(t *testing.T) {
		spec := crmSpec("/tmp/crm", schema.PerEntity)
		spec.Entities[1].Fields = append(spec.Entities[1].Fields,
			schema.Field{Name: "previous", Type: "List<Address>", IsSubEntity: true})
		_, err := validate(MustNewConfig(), spec)
		assert.NoError(t, err)
	})

	t.Run("self reference stays in one package", func(t *testing.T) {
		spec := crmSpec("/tmp/crm", schema.PerEntity)
		spec.Entities[0].Fields = append(spec.Entities[0].Fields,
			schema.Field{Name: "referrer", Type: "Optional<Customer>", IsSubEntity: true})
		_, err := validate(MustNewConfig(), spec)
		assert.NoError(t, err)
	})
}
