package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/crudgen/schema"
)

func TestBuildRepository(t *testing.T) {
	tests := []struct {
		backend schema.Backend
		want    []string
	}{
		{
			backend: schema.Relational,
			want: []string{
				"gormrepo.Repository[domains.Order, string]",
				"func NewOrderRepository(db *gorm.DB) OrderRepository",
				"return gormrepo.New[domains.Order, string](db)",
			},
		},
		{
			backend: schema.Document,
			want: []string{
				"mongorepo.Repository[domains.Order, string]",
				"func NewOrderRepository(db *mongo.Database) OrderRepository",
			},
		},
		{
			backend: schema.SearchIndex,
			want: []string{
				"searchrepo.Repository[domains.Order, string]",
				"func NewOrderRepository(client *opensearch.Client) OrderRepository",
				"return searchrepo.New[domains.Order, string](client)",
			},
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			spec := shopSpec("/tmp/shop")
			spec.Backend = tt.backend
			b := newTestBuilder(t, spec)
			m := b.index["Order"]

			repo, err := b.BuildRepository(m)
			require.NoError(t, err)
			assert.Equal(t, "OrderRepository", repo.Name())
			assert.Equal(t, "shop/repositories", repo.Path())
			_, ok := repo.Tag(TagRepository)
			assert.True(t, ok)

			src := render(t, b, m, repo)
			assert.Contains(t, src, "package repositories")
			assert.Contains(t, src, "type OrderRepository interface")
			for _, s := range tt.want {
				assert.Contains(t, src, s)
			}
		})
	}
}

func TestBuildMapper(t *testing.T) {
	b := newTestBuilder(t, shopSpec("/tmp/shop"))
	m := b.index["Order"]

	mapper, err := b.BuildMapper(m)
	require.NoError(t, err)
	require.Len(t, mapper.Methods(), 3)
	assert.Equal(t, mapResourceToEntity, mapper.Methods()[0].Name)
	tag, ok := mapper.Tag(TagMapper)
	require.True(t, ok)
	model, _ := tag.Get("componentModel")
	assert.Equal(t, "constructor", model)

	src := render(t, b, m, mapper)
	assert.Contains(t, src, "type OrderMapper interface")
	assert.Contains(t, src, "ResourceToEntity(resource domains.OrderResource) domains.Order")
	assert.Contains(t, src, "EntityListToResponseList(entities []domains.Order) []domains.OrderResponse")
	assert.Contains(t, src, "func NewOrderMapper() OrderMapper")
	assert.Contains(t, src, "type orderMapper struct{}")
	assert.Contains(t, src, "var _ OrderMapper = orderMapper{}")
	assert.Contains(t, src, "func (m orderMapper) EntityToResponse(entity domains.Order) domains.OrderResponse")
	assert.Contains(t, src, "out = append(out, m.EntityToResponse(entity))")
}

func TestBuildMapperSubEntity(t *testing.T) {
	b := newTestBuilder(t, crmSpec("/tmp/crm", schema.Layered))
	m := b.index["Customer"]

	mapper, err := b.BuildMapper(m)
	require.NoError(t, err)
	src := render(t, b, m, mapper)

	assert.Contains(t, src, "NewAddressMapper().ResourceToEntity(v0)")
	assert.Contains(t, src, "NewAddressMapper().EntityToResponse(v0)")
	assert.Contains(t, src, "if resource.Addresses == nil")
	assert.Contains(t, src, "make([]domains.AddressResponse, len(entity.Addresses))")
	assert.Regexp(t, `Name:\s+resource\.Name`, src)
}

func TestBuildService(t *testing.T) {
	b := newTestBuilder(t, shopSpec("/tmp/shop"))
	m := b.index["Order"]

	svc, err := b.BuildService(m)
	require.NoError(t, err)
	assert.Equal(t, "OrderService", svc.Name())
	fields := svc.Fields()
	require.Len(t, fields, 2)
	for _, f := range fields {
		_, ok := f.Tag(TagInject)
		assert.True(t, ok, f.Name)
	}
	for _, name := range []string{"Find", "FindAll", "Save", "Delete"} {
		_, ok := svc.Method(name)
		assert.True(t, ok, name)
	}

	src := render(t, b, m, svc)
	assert.Contains(t, src, "func NewOrderService(orderRepository repositories.OrderRepository, orderMapper OrderMapper) *OrderService")
	assert.Contains(t, src, "func (s *OrderService) Find(ctx context.Context, id string) (*domains.OrderResponse, bool, error)")
	assert.Contains(t, src, "errors.Is(err, dialect.ErrNotFound)")
	assert.Contains(t, src, "return nil, false, nil")
	assert.Contains(t, src, "s.orderRepository.Save(ctx, &entity)")
	assert.Contains(t, src, "return s.orderRepository.DeleteByID(ctx, id)")
}

func TestServiceKeyType(t *testing.T) {
	// Keys stay strings whatever the identifier type.
	b := newTestBuilder(t, crmSpec("/tmp/crm", schema.Layered))
	m := b.index["Address"]

	svc, err := b.BuildService(m)
	require.NoError(t, err)
	src := render(t, b, m, svc)
	assert.Contains(t, src, "Find(ctx context.Context, id string)")
	assert.Contains(t, src, "Delete(ctx context.Context, id string) error")
}
