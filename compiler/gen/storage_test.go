package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/crudgen/schema"
)

func TestNewStorage(t *testing.T) {
	tests := []struct {
		backend schema.Backend
		name    string
		pkg     string
	}{
		{"", "gorm", "github.com/syssam/crudgen/dialect/gormrepo"},
		{schema.Relational, "gorm", "github.com/syssam/crudgen/dialect/gormrepo"},
		{schema.Document, "mongo", "github.com/syssam/crudgen/dialect/mongorepo"},
		{schema.SearchIndex, "opensearch", "github.com/syssam/crudgen/dialect/searchrepo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStorage(tt.backend)
			require.NoError(t, err)
			assert.Equal(t, tt.name, s.String())
			assert.Equal(t, tt.pkg, s.RuntimePackage(DefaultRuntimePath))
			assert.NotEmpty(t, s.Module)
			assert.NotEmpty(t, s.Version)
		})
	}

	_, err := NewStorage("COLUMNAR")
	assert.Error(t, err)
}

func TestStorageFieldTags(t *testing.T) {
	tests := []struct {
		backend    schema.Backend
		id         bool
		structured bool
		want       map[string]string
	}{
		{schema.Relational, true, false, map[string]string{"json": "id", "gorm": "primaryKey"}},
		{schema.Relational, false, true, map[string]string{"json": "id", "gorm": "serializer:json"}},
		{schema.Relational, false, false, map[string]string{"json": "id"}},
		{schema.Document, true, false, map[string]string{"json": "id", "bson": "_id"}},
		{schema.Document, false, true, map[string]string{"json": "id", "bson": "id"}},
		{schema.SearchIndex, true, false, map[string]string{"json": "id"}},
	}
	for _, tt := range tests {
		s, err := NewStorage(tt.backend)
		require.NoError(t, err)
		assert.Equal(t, tt.want, s.FieldTags("id", tt.id, tt.structured), "%s id=%v structured=%v", tt.backend, tt.id, tt.structured)
	}
}

func TestStorageEntityTag(t *testing.T) {
	rel, err := NewStorage(schema.Relational)
	require.NoError(t, err)
	assert.Equal(t, TagEntity, rel.EntityTag("Order").Name)

	doc, err := NewStorage(schema.Document)
	require.NoError(t, err)
	coll, ok := doc.EntityTag("Order").Get("collection")
	require.True(t, ok)
	assert.Equal(t, "order", coll)

	search, err := NewStorage(schema.SearchIndex)
	require.NoError(t, err)
	index, ok := search.EntityTag("Order").Get("indexName")
	require.True(t, ok)
	assert.Equal(t, "order", index)
}
