package gen

import (
	"io"
	"log/slog"

	"github.com/syssam/crudgen/compiler/typeexpr"
)

// Defaults used by NewConfig.
const (
	DefaultHeader         = "Code generated by crudgen."
	DefaultGoVersion      = "1.24"
	DefaultToolchain      = "go1.24.11"
	DefaultRuntimePath    = "github.com/syssam/crudgen"
	DefaultRuntimeVersion = "v0.1.0"
)

// Config holds the generator configuration. Build it with NewConfig.
type Config struct {
	// Header is the leading comment of every generated Go file.
	Header string
	// ModulePrefix is joined in front of the project name to form the module
	// path of the generated project, e.g. "github.com/acme".
	ModulePrefix string
	// Types maps field type symbols to Go types.
	Types *typeexpr.Table
	// Logger receives progress records. Defaults to a discarding logger.
	Logger *slog.Logger
	// GoVersion is the language version written to go.mod.
	GoVersion string
	// Toolchain is the toolchain line written to go.mod.
	Toolchain string
	// RuntimePath and RuntimeVersion locate the persistence runtime module
	// imported by generated repositories.
	RuntimePath    string
	RuntimeVersion string
	// Writer opens the output tree of a run.
	Writer WriterFactory
	// Format runs goimports over rendered sources before writing.
	Format bool
}

// OutputConfig groups the settings that shape written files.
type OutputConfig struct {
	Header string
	Format bool
	Writer WriterFactory
}

// Output returns the output settings.
func (c *Config) Output() OutputConfig {
	return OutputConfig{Header: c.Header, Format: c.Format, Writer: c.Writer}
}

// ManifestConfig groups the settings that shape go.mod.
type ManifestConfig struct {
	ModulePrefix   string
	GoVersion      string
	Toolchain      string
	RuntimePath    string
	RuntimeVersion string
}

// ManifestOpts returns the manifest settings.
func (c *Config) ManifestOpts() ManifestConfig {
	return ManifestConfig{
		ModulePrefix:   c.ModulePrefix,
		GoVersion:      c.GoVersion,
		Toolchain:      c.Toolchain,
		RuntimePath:    c.RuntimePath,
		RuntimeVersion: c.RuntimeVersion,
	}
}

func defaultConfig() *Config {
	return &Config{
		Header:         DefaultHeader,
		Types:          typeexpr.DefaultTable(),
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		GoVersion:      DefaultGoVersion,
		Toolchain:      DefaultToolchain,
		RuntimePath:    DefaultRuntimePath,
		RuntimeVersion: DefaultRuntimeVersion,
		Writer:         DirWriter,
		Format:         true,
	}
}
