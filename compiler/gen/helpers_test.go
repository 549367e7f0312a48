package gen

import (
	"errors"
	"path"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/crudgen/compiler/artifact"
	"github.com/syssam/crudgen/schema"
)

// shopSpec is a single-entity project with a string identifier.
func shopSpec(dir string) *schema.ProjectSpec {
	return &schema.ProjectSpec{
		Path: dir,
		Name: "shop",
		Entities: []schema.Entity{
			{
				Name: "Order",
				Fields: []schema.Field{
					{Name: "id", Type: "String", IsID: true},
					{Name: "total", Type: "Double"},
				},
			},
		},
	}
}

// crmSpec has a customer embedding a list of addresses.
func crmSpec(dir string, layout schema.Layout) *schema.ProjectSpec {
	return &schema.ProjectSpec{
		Path:   dir,
		Name:   "crm",
		Layout: layout,
		Entities: []schema.Entity{
			{
				Name: "Customer",
				Fields: []schema.Field{
					{Name: "id", Type: "String", IsID: true},
					{Name: "name", Type: "String"},
					{Name: "addresses", Type: "List<Address>", IsSubEntity: true},
					{Name: "created_at", Type: "LocalDateTime"},
				},
			},
			{
				Name: "Address",
				Fields: []schema.Field{
					{Name: "id", Type: "UUID", IsID: true},
					{Name: "street", Type: "String"},
				},
			},
		},
	}
}

func newTestBuilder(t *testing.T, spec *schema.ProjectSpec, opts ...Option) *builder {
	t.Helper()
	cfg, err := NewConfig(opts...)
	require.NoError(t, err)
	p, err := validate(cfg, spec)
	require.NoError(t, err)
	return newBuilder(cfg, p.spec, p.module, p.storage, p.models)
}

// render emits and renders arts into one file of their package.
func render(t *testing.T, b *builder, m *Model, arts ...artifact.Artifact) string {
	t.Helper()
	pkg := path.Base(arts[0].Path())
	if arts[0].Path() == b.module {
		pkg = "main"
	}
	f := b.newFile(arts[0].Path(), pkg)
	for _, a := range arts {
		extra, err := b.Emit(m, a)
		require.NoError(t, err)
		require.NoError(t, f.Add(append([]artifact.Artifact{a}, extra...)...))
	}
	src, err := f.Render()
	require.NoError(t, err)
	return string(src)
}

// memWriter keeps the output tree in memory.
type memWriter struct {
	mu    sync.Mutex
	dirs  []string
	files map[string][]byte
}

func newMemWriter() *memWriter {
	return &memWriter{files: make(map[string][]byte)}
}

func (w *memWriter) MkdirAll(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirs = append(w.dirs, dir)
	return nil
}

func (w *memWriter) WriteFile(name string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[name] = data
	return nil
}

func (w *memWriter) names() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for name := range w.files {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (w *memWriter) factory() WriterFactory {
	return func(string) (Writer, error) { return w, nil }
}

// failingWriter accepts directories and fails every file write after the
// first n.
type failingWriter struct {
	n int
}

var errDiskFull = errors.New("disk full")

func (w *failingWriter) MkdirAll(string) error { return nil }

func (w *failingWriter) WriteFile(string, []byte) error {
	if w.n == 0 {
		return errDiskFull
	}
	w.n--
	return nil
}
