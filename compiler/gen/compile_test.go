package gen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/packages"

	"github.com/syssam/crudgen/schema"
)

// catalogSpec exercises sub-entity references in every container shape,
// self references, keyword field names and non-string identifiers.
func catalogSpec(dir string, layout schema.Layout, backend schema.Backend) *schema.ProjectSpec {
	return &schema.ProjectSpec{
		Path:    dir,
		Name:    "catalog",
		Layout:  layout,
		Backend: backend,
		Entities: []schema.Entity{
			{
				Name: "Customer",
				Fields: []schema.Field{
					{Name: "id", Type: "String", IsID: true},
					{Name: "type", Type: "String"},
					{Name: "billing", Type: "Address", IsSubEntity: true},
					{Name: "addresses", Type: "List<Address>", IsSubEntity: true},
					{Name: "shipping", Type: "Optional<Address>", IsSubEntity: true},
					{Name: "by_label", Type: "Map<String,Address>", IsSubEntity: true},
					{Name: "visited", Type: "Set<Address>", IsSubEntity: true},
					{Name: "referrer", Type: "Optional<Customer>", IsSubEntity: true},
					{Name: "tags", Type: "Set<String>"},
					{Name: "balance", Type: "BigInteger"},
					{Name: "created_at", Type: "LocalDateTime"},
				},
			},
			{
				Name: "Address",
				Fields: []schema.Field{
					{Name: "id", Type: "UUID", IsID: true},
					{Name: "street", Type: "String"},
					{Name: "zip", Type: "Integer"},
				},
			},
		},
	}
}

// TestGeneratedProjectsCompile type-checks the generated tree of every layout
// and backend with the go command, against this module as the runtime. It
// is skipped when the module cache lacks a dependency.
func TestGeneratedProjectsCompile(t *testing.T) {
	if testing.Short() {
		t.Skip("type-checks generated projects with the go command")
	}
	root, err := filepath.Abs(filepath.Join("..", ".."))
	require.NoError(t, err)

	for _, layout := range []schema.Layout{schema.Layered, schema.PerEntity} {
		for _, backend := range []schema.Backend{schema.Relational, schema.Document, schema.SearchIndex} {
			t.Run(string(layout)+"/"+string(backend), func(t *testing.T) {
				dir := t.TempDir()
				res, err := Generate(t.Context(), catalogSpec(dir, layout, backend))
				require.NoError(t, err)
				replaceRuntime(t, filepath.Join(dir, FileManifest), root)

				pkgs, err := packages.Load(&packages.Config{
					Context: t.Context(),
					Dir:     dir,
					Mode:    packages.NeedName | packages.NeedFiles | packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo,
					Env: append(os.Environ(),
						"GOFLAGS=-mod=mod", "GOPROXY=off", "GOSUMDB=off", "GOTOOLCHAIN=local", "GOWORK=off"),
				}, "./...")
				if err != nil {
					t.Skipf("go command unavailable: %v", err)
				}
				var listErrs, typeErrs []string
				for _, p := range pkgs {
					if !strings.HasPrefix(p.PkgPath, res.Module) {
						continue
					}
					for _, e := range p.Errors {
						if e.Kind == packages.ListError {
							listErrs = append(listErrs, e.Error())
							continue
						}
						typeErrs = append(typeErrs, e.Error())
					}
				}
				if len(listErrs) > 0 {
					t.Skipf("module cache incomplete: %s", listErrs[0])
				}
				assert.Empty(t, typeErrs)
				assert.Len(t, pkgs, len(packageDirs(res.Files)))
			})
		}
	}
}

// replaceRuntime points the runtime requirement of the generated go.mod at
// the local module.
func replaceRuntime(t *testing.T, gomod, root string) {
	t.Helper()
	buf, err := os.ReadFile(gomod)
	require.NoError(t, err)
	mf, err := modfile.Parse(gomod, buf, nil)
	require.NoError(t, err)
	require.NoError(t, mf.AddReplace(DefaultRuntimePath, "", root, ""))
	out, err := mf.Format()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(gomod, out, 0o644))
}

// packageDirs returns the distinct directories of the Go files in files.
func packageDirs(files []string) map[string]bool {
	dirs := make(map[string]bool)
	for _, f := range files {
		if filepath.Ext(f) == ".go" {
			dirs[filepath.Dir(f)] = true
		}
	}
	return dirs
}
