package gen

import (
	"slices"

	"golang.org/x/mod/modfile"

	"github.com/syssam/crudgen/compiler/typeexpr"
)

// Requirement scopes.
const (
	ScopeDefault = ""
	ScopeTest    = "test"
)

// Modules required by every generated project.
var (
	echoModule    = typeexpr.Module{Path: "github.com/labstack/echo/v4", Version: "v4.11.3"}
	toolsModule   = typeexpr.Module{Path: "golang.org/x/tools", Version: "v0.41.0"}
	testifyModule = typeexpr.Module{Path: "github.com/stretchr/testify", Version: "v1.11.1"}
)

// Code generation tools declared by generated projects.
const (
	toolGoimports = "golang.org/x/tools/cmd/goimports"
	toolCrudgen   = "github.com/syssam/crudgen/cmd/crudgen"
)

// Requirement is a module requirement of the generated go.mod.
type Requirement struct {
	Path    string
	Version string
	Scope   string
}

// Manifest is the build manifest of a generated project.
type Manifest struct {
	Module    string
	Go        string
	Toolchain string
	Requires  []Requirement
	Tools     []string
}

// Require appends a requirement unless its module is already required.
func (m *Manifest) Require(path, version, scope string) {
	if slices.ContainsFunc(m.Requires, func(r Requirement) bool { return r.Path == path }) {
		return
	}
	m.Requires = append(m.Requires, Requirement{Path: path, Version: version, Scope: scope})
}

// Tool appends a tool path unless already declared.
func (m *Manifest) Tool(path string) {
	if !slices.Contains(m.Tools, path) {
		m.Tools = append(m.Tools, path)
	}
}

// Format renders the manifest as go.mod source. Test-scoped requirements are
// marked with a trailing "// test" comment.
func (m *Manifest) Format() ([]byte, error) {
	f := new(modfile.File)
	if err := f.AddModuleStmt(m.Module); err != nil {
		return nil, err
	}
	if err := f.AddGoStmt(m.Go); err != nil {
		return nil, err
	}
	if m.Toolchain != "" {
		if err := f.AddToolchainStmt(m.Toolchain); err != nil {
			return nil, err
		}
	}
	for _, r := range m.Requires {
		f.AddNewRequire(r.Path, r.Version, false)
		if r.Scope == ScopeDefault {
			continue
		}
		line := f.Require[len(f.Require)-1].Syntax
		line.Suffix = append(line.Suffix, modfile.Comment{Token: "// " + r.Scope, Suffix: true})
	}
	for _, t := range m.Tools {
		if err := f.AddTool(t); err != nil {
			return nil, err
		}
	}
	return modfile.Format(f.Syntax), nil
}

// BuildManifest builds the go.mod of the project: web framework, runtime,
// backend module, modules of field types, code generation tools and test
// tooling.
func (b *builder) BuildManifest() (*Manifest, error) {
	opts := b.cfg.ManifestOpts()
	m := &Manifest{
		Module:    b.module,
		Go:        opts.GoVersion,
		Toolchain: opts.Toolchain,
	}
	m.Require(echoModule.Path, echoModule.Version, ScopeDefault)
	m.Require(opts.RuntimePath, opts.RuntimeVersion, ScopeDefault)
	m.Require(b.storage.Module, b.storage.Version, ScopeDefault)
	for _, model := range b.models {
		for _, f := range model.Fields {
			for _, mod := range b.types.Modules(f.Expr) {
				m.Require(mod.Path, mod.Version, ScopeDefault)
			}
		}
	}
	m.Require(toolsModule.Path, toolsModule.Version, ScopeDefault)
	m.Require(testifyModule.Path, testifyModule.Version, ScopeTest)
	m.Tool(toolGoimports)
	m.Tool(toolCrudgen)
	return m, nil
}
