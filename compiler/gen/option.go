package gen

import (
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"

	"github.com/syssam/crudgen/compiler/typeexpr"
)

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated Go file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithModulePrefix sets the path the project name is joined under to form
// the generated module path. For example: "github.com/acme".
func WithModulePrefix(prefix string) Option {
	return func(c *Config) error {
		prefix = strings.TrimSuffix(prefix, "/")
		if prefix != "" {
			if err := module.CheckImportPath(prefix); err != nil {
				return NewConfigError("ModulePrefix", prefix, err.Error())
			}
		}
		c.ModulePrefix = prefix
		return nil
	}
}

// WithTypeTable replaces the bundled type table.
func WithTypeTable(t *typeexpr.Table) Option {
	return func(c *Config) error {
		if t == nil {
			return NewConfigError("Types", nil, "type table cannot be nil")
		}
		c.Types = t
		return nil
	}
}

// WithLogger sets the logger receiving progress records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = logger
		return nil
	}
}

// WithGoVersion sets the go directive of the generated go.mod, e.g. "1.24".
func WithGoVersion(version string) Option {
	return func(c *Config) error {
		if !semver.IsValid("v" + version) {
			return NewConfigError("GoVersion", version, "invalid go version")
		}
		c.GoVersion = version
		return nil
	}
}

// WithToolchain sets the toolchain directive of the generated go.mod, e.g.
// "go1.24.11".
func WithToolchain(toolchain string) Option {
	return func(c *Config) error {
		if !strings.HasPrefix(toolchain, "go") || !semver.IsValid("v"+strings.TrimPrefix(toolchain, "go")) {
			return NewConfigError("Toolchain", toolchain, "toolchain must look like go1.N.P")
		}
		c.Toolchain = toolchain
		return nil
	}
}

// WithRuntime sets the module path and version of the persistence runtime
// required by generated projects.
func WithRuntime(path, version string) Option {
	return func(c *Config) error {
		if err := module.Check(path, version); err != nil {
			return NewConfigError("Runtime", path+"@"+version, err.Error())
		}
		c.RuntimePath = path
		c.RuntimeVersion = version
		return nil
	}
}

// WithWriterFactory sets how the output tree of a run is opened.
// The default writes to the local file system.
func WithWriterFactory(f WriterFactory) Option {
	return func(c *Config) error {
		if f == nil {
			return NewConfigError("Writer", nil, "writer factory cannot be nil")
		}
		c.Writer = f
		return nil
	}
}

// WithFormat enables or disables goimports formatting of generated sources.
func WithFormat(enabled bool) Option {
	return func(c *Config) error {
		c.Format = enabled
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with defaults and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := defaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
