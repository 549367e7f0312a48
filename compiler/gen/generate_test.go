package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/mod/modfile"

	"github.com/syssam/crudgen/schema"
)

func TestGenerateLayered(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shop")
	res, err := Generate(t.Context(), shopSpec(dir))
	require.NoError(t, err)

	assert.Equal(t, StageDone, res.Stage)
	assert.Empty(t, res.FailedAt)
	assert.Equal(t, dir, res.Path)
	assert.Equal(t, "shop", res.Module)
	assert.Equal(t, []string{
		"domains/order.go",
		"repositories/order_repository.go",
		"services/order_mapper.go",
		"services/order_service.go",
		"controllers/order_controller.go",
		FileManifest,
		FileBootstrap,
	}, res.Files)
	assert.Equal(t, 7, res.Metrics.FilesGenerated)
	assert.Positive(t, res.Metrics.TotalBytes)

	for _, d := range []string{"controllers", "services", "domains", "repositories", DirConfigs, DirTest} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, d)
		assert.True(t, info.IsDir(), d)
	}
	for _, f := range res.Files {
		buf, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(f)))
		require.NoError(t, err, f)
		if filepath.Ext(f) == ".go" {
			assert.Contains(t, string(buf), "// "+DefaultHeader, f)
		}
	}

	gomod, err := os.ReadFile(filepath.Join(dir, FileManifest))
	require.NoError(t, err)
	mf, err := modfile.Parse(FileManifest, gomod, nil)
	require.NoError(t, err)
	assert.Equal(t, "shop", mf.Module.Mod.Path)

	main, err := os.ReadFile(filepath.Join(dir, FileBootstrap))
	require.NoError(t, err)
	assert.Contains(t, string(main), "package main")
	assert.Contains(t, string(main), "type ShopApplication struct")
}

func TestGenerateFileCount(t *testing.T) {
	for _, layout := range []schema.Layout{schema.Layered, schema.PerEntity} {
		t.Run(string(layout), func(t *testing.T) {
			w := newMemWriter()
			spec := crmSpec("/virtual/crm", layout)
			res, err := Generate(t.Context(), spec, WithWriterFactory(w.factory()))
			require.NoError(t, err)
			assert.Len(t, res.Files, 5*len(spec.Entities)+2)
			assert.Len(t, w.names(), 5*len(spec.Entities)+2)
		})
	}
}

func TestGeneratePerEntity(t *testing.T) {
	w := newMemWriter()
	res, err := Generate(t.Context(), crmSpec("/virtual/crm", schema.PerEntity), WithWriterFactory(w.factory()))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"customer/domains/customer.go",
		"customer/repositories/customer_repository.go",
		"customer/services/customer_mapper.go",
		"customer/services/customer_service.go",
		"customer/controllers/customer_controller.go",
		"address/domains/address.go",
		"address/repositories/address_repository.go",
		"address/services/address_mapper.go",
		"address/services/address_service.go",
		"address/controllers/address_controller.go",
		FileManifest,
		FileBootstrap,
	}, res.Files)
	assert.Contains(t, w.dirs, "customer/controllers")
	assert.Contains(t, w.dirs, "address/repositories")
	assert.Contains(t, w.dirs, DirConfigs)
	assert.Contains(t, w.dirs, DirTest)

	customer := string(w.files["customer/domains/customer.go"])
	assert.Contains(t, customer, `"crm/address/domains"`)
	assert.Regexp(t, `\[\]\w+\.AddressResponse`, customer)

	mapper := string(w.files["customer/services/customer_mapper.go"])
	assert.Contains(t, mapper, `"crm/address/services"`)
	assert.Regexp(t, `\w+\.NewAddressMapper\(\)\.ResourceToEntity\(v0\)`, mapper)
}

func TestGenerateDeterministic(t *testing.T) {
	a, b := newMemWriter(), newMemWriter()
	_, err := Generate(t.Context(), crmSpec("/virtual/crm", schema.Layered), WithWriterFactory(a.factory()))
	require.NoError(t, err)
	_, err = Generate(t.Context(), crmSpec("/virtual/crm", schema.Layered), WithWriterFactory(b.factory()))
	require.NoError(t, err)
	assert.Equal(t, a.files, b.files)
}

func TestGenerateBackendSwitchKeepsFiles(t *testing.T) {
	for _, layout := range []schema.Layout{schema.Layered, schema.PerEntity} {
		t.Run(string(layout), func(t *testing.T) {
			var (
				want  []string
				wantW []string
			)
			for _, backend := range []schema.Backend{schema.Relational, schema.Document, schema.SearchIndex} {
				w := newMemWriter()
				spec := crmSpec("/virtual/crm", layout)
				spec.Backend = backend
				res, err := Generate(t.Context(), spec, WithWriterFactory(w.factory()))
				require.NoError(t, err, backend)
				if want == nil {
					want, wantW = res.Files, w.names()
					continue
				}
				assert.Equal(t, want, res.Files, backend)
				assert.Equal(t, wantW, w.names(), backend)
			}
		})
	}
}

func TestGenerateValidationWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shop")

	t.Run("validation failure", func(t *testing.T) {
		spec := shopSpec(dir)
		spec.Entities = nil
		res, err := Generate(t.Context(), spec)
		require.Error(t, err)
		assert.Equal(t, CategoryValidation, Category(err))
		assert.Equal(t, StageFailed, res.Stage)
		assert.Equal(t, StageValidate, res.FailedAt)
		assert.NoDirExists(t, dir)
	})

	t.Run("malformed type", func(t *testing.T) {
		spec := shopSpec(dir)
		spec.Entities[0].Fields[1].Type = "List<Double"
		res, err := Generate(t.Context(), spec)
		require.Error(t, err)
		assert.Equal(t, CategoryMalformedType, Category(err))
		assert.Equal(t, StageValidate, res.FailedAt)
		assert.Empty(t, res.Files)
		assert.NoDirExists(t, dir)
	})
}

func TestGenerateWriteFailure(t *testing.T) {
	w := &failingWriter{n: 2}
	res, err := Generate(t.Context(), shopSpec("/virtual/shop"),
		WithWriterFactory(func(string) (Writer, error) { return w, nil }))
	require.Error(t, err)

	assert.True(t, IsWriteError(err))
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, CategoryIO, Category(err))
	assert.Equal(t, StageFailed, res.Stage)
	assert.Equal(t, StagePerEntityGeneration, res.FailedAt)
	// Files written before the failure are reported and kept.
	assert.Equal(t, []string{"domains/order.go", "repositories/order_repository.go"}, res.Files)
}

func TestGenerateWriterFactoryFailure(t *testing.T) {
	res, err := Generate(t.Context(), shopSpec("/virtual/shop"),
		WithWriterFactory(func(string) (Writer, error) { return nil, errDiskFull }))
	require.Error(t, err)
	assert.Equal(t, CategoryIO, Category(err))
	assert.Equal(t, StageDirectoryMaterialize, res.FailedAt)
}

func TestGenerateIdempotentDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shop")
	_, err := Generate(t.Context(), shopSpec(dir))
	require.NoError(t, err)
	res, err := Generate(t.Context(), shopSpec(dir))
	require.NoError(t, err)
	assert.Len(t, res.Files, 7)
}

func TestGenerateInvalidOption(t *testing.T) {
	res, err := Generate(t.Context(), shopSpec(t.TempDir()), WithGoVersion("latest"))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, IsConfigError(err))
}

func TestPlan(t *testing.T) {
	g := NewGenerator(nil)
	layout, err := g.Plan(crmSpec("/virtual/crm", schema.PerEntity))
	require.NoError(t, err)

	assert.Len(t, layout.Files, 12)
	assert.Equal(t, []string{
		"customer/controllers", "customer/services", "customer/domains", "customer/repositories",
		"address/controllers", "address/services", "address/domains", "address/repositories",
		DirConfigs, DirTest,
	}, layout.Dirs)

	_, err = g.Plan(&schema.ProjectSpec{Path: "/virtual/empty", Name: "empty"})
	assert.True(t, IsValidationError(err))
}

func TestGenerateConcurrentRuns(t *testing.T) {
	g := NewGenerator(MustNewConfig())
	root := t.TempDir()
	errs := make(chan error, 3)
	for _, name := range []string{"a", "b", "c"} {
		go func() {
			spec := shopSpec(filepath.Join(root, name))
			_, err := g.Generate(t.Context(), spec)
			errs <- err
		}()
	}
	for range 3 {
		require.NoError(t, <-errs)
	}
	for _, name := range []string{"a", "b", "c"} {
		assert.FileExists(t, filepath.Join(root, name, FileBootstrap))
	}
}
