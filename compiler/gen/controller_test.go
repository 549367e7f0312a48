package gen

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/crudgen/schema"
)

func TestBuildController(t *testing.T) {
	b := newTestBuilder(t, shopSpec("/tmp/shop"))
	m := b.index["Order"]

	c, err := b.BuildController(m)
	require.NoError(t, err)
	assert.Equal(t, "OrderController", c.Name())
	assert.Equal(t, "shop/controllers", c.Path())

	mapping, ok := c.Tag(TagRequestMapping)
	require.True(t, ok)
	base, _ := mapping.Get("path")
	assert.Equal(t, "/order", base)

	routes := map[string]string{}
	for _, method := range c.Methods() {
		rt, ok := method.Tag(TagRoute)
		require.True(t, ok, method.Name)
		verb, _ := rt.Get("method")
		path, _ := rt.Get("path")
		routes[method.Name] = verb + " " + path
	}
	assert.Equal(t, map[string]string{
		"Find":    http.MethodGet + " /:id",
		"FindAll": http.MethodGet + " ",
		"Create":  http.MethodPost + " ",
		"Update":  http.MethodPut + " /:id",
		"Delete":  http.MethodDelete + " /:id",
	}, routes)

	src := render(t, b, m, c)
	t.Run("constructor and registration", func(t *testing.T) {
		assert.Contains(t, src, "func NewOrderController(orderService *services.OrderService) *OrderController")
		assert.Contains(t, src, "func (c *OrderController) Register(e *echo.Echo)")
		assert.Contains(t, src, `g := e.Group("/order")`)
		assert.Contains(t, src, `g.GET("/:id", c.Find)`)
		assert.Contains(t, src, `g.GET("", c.FindAll)`)
		assert.Contains(t, src, `g.POST("", c.Create)`)
		assert.Contains(t, src, `g.PUT("/:id", c.Update)`)
		assert.Contains(t, src, `g.DELETE("/:id", c.Delete)`)
	})

	t.Run("status mapping", func(t *testing.T) {
		assert.Contains(t, src, "ctx.NoContent(http.StatusNotFound)")
		assert.Contains(t, src, "ctx.NoContent(http.StatusNoContent)")
		assert.Contains(t, src, "ctx.JSON(http.StatusCreated, response)")
		assert.Contains(t, src, "echo.NewHTTPError(http.StatusBadRequest, err.Error())")
	})
}

// The update handler checks that the path id exists and then saves the body
// as is. The body id is not compared with the path id.
func TestControllerUpdateKeepsBodyID(t *testing.T) {
	b := newTestBuilder(t, shopSpec("/tmp/shop"))
	m := b.index["Order"]
	c, err := b.BuildController(m)
	require.NoError(t, err)
	src := render(t, b, m, c)

	start := strings.Index(src, "func (c *OrderController) Update(")
	require.NotEqual(t, -1, start)
	end := strings.Index(src[start:], "\n}\n")
	require.NotEqual(t, -1, end)
	update := src[start : start+end]

	assert.Contains(t, update, `c.orderService.Find(ctx.Request().Context(), ctx.Param("id"))`)
	assert.Contains(t, update, "c.orderService.Save(ctx.Request().Context(), resource)")
	assert.Contains(t, update, "ctx.JSON(http.StatusOK, response)")
	assert.NotContains(t, update, "resource.ID")
}

func TestBuildBootstrap(t *testing.T) {
	tests := []struct {
		backend schema.Backend
		want    []string
	}{
		{
			backend: schema.Relational,
			want: []string{
				`gormrepo.Open(getenv("DATABASE_URL", "sqlite://shop.db"), logger)`,
				"db.AutoMigrate(&domains.Order{})",
				"repositories.NewOrderRepository(db)",
			},
		},
		{
			backend: schema.Document,
			want: []string{
				`mongorepo.Connect(ctx, getenv("MONGODB_URI", "mongodb://localhost:27017"))`,
				`db := client.Database("shop")`,
				"repositories.NewOrderRepository(db)",
			},
		},
		{
			backend: schema.SearchIndex,
			want: []string{
				`searchrepo.Connect(getenv("OPENSEARCH_URL", "http://localhost:9200"))`,
				"repositories.NewOrderRepository(client)",
			},
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			spec := shopSpec("/tmp/shop")
			spec.Backend = tt.backend
			b := newTestBuilder(t, spec)

			app, err := b.BuildBootstrap()
			require.NoError(t, err)
			assert.Equal(t, "ShopApplication", app.Name())
			tag, ok := app.Tag(TagApplication)
			require.True(t, ok)
			name, _ := tag.Get("name")
			assert.Equal(t, "shop", name)

			src := render(t, b, nil, app)
			assert.Contains(t, src, "package main")
			assert.Contains(t, src, "func NewShopApplication(ctx context.Context, logger *slog.Logger) (*ShopApplication, error)")
			assert.Contains(t, src, "controllers.NewOrderController(services.NewOrderService(")
			assert.Contains(t, src, "services.NewOrderMapper()")
			assert.Contains(t, src, ".Register(e)")
			assert.Contains(t, src, "func main()")
			assert.Contains(t, src, `getenv("BIND", ":8080")`)
			assert.Contains(t, src, "http.ErrServerClosed")
			for _, s := range tt.want {
				assert.Contains(t, src, s)
			}
		})
	}
}
