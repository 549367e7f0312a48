// Command crudgen scaffolds CRUD Go projects from a declarative schema.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"

	"github.com/syssam/crudgen/compiler/gen"
	"github.com/syssam/crudgen/compiler/typeexpr"
	"github.com/syssam/crudgen/internal/history"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return newApp(os.Stdout).Run(args)
}

func newApp(out io.Writer) *cli.App {
	app := &cli.App{
		Name:      "crudgen",
		Usage:     "scaffold CRUD Go projects from entity schemas",
		Version:   versioninfo.Short(),
		Writer:    out,
		ErrWriter: out,
	}
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			EnvVars: []string{"CRUDGEN_LOG_LEVEL", "GO_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "module-prefix",
			Usage:   "prefix joined in front of the project name to form the generated module path",
			EnvVars: []string{"CRUDGEN_MODULE_PREFIX"},
		},
		&cli.StringFlag{
			Name:    "go-version",
			Usage:   "go language version written to generated go.mod files",
			Value:   gen.DefaultGoVersion,
			EnvVars: []string{"CRUDGEN_GO_VERSION"},
		},
		&cli.StringFlag{
			Name:    "toolchain",
			Usage:   "toolchain written to generated go.mod files (empty to omit)",
			Value:   gen.DefaultToolchain,
			EnvVars: []string{"CRUDGEN_TOOLCHAIN"},
		},
		&cli.PathFlag{
			Name:    "type-table",
			Usage:   "YAML file mapping field type symbols to Go types",
			EnvVars: []string{"CRUDGEN_TYPE_TABLE"},
		},
		&cli.BoolFlag{
			Name:    "no-format",
			Usage:   "write generated sources without running goimports",
			EnvVars: []string{"CRUDGEN_NO_FORMAT"},
		},
	}
	app.Commands = []*cli.Command{
		generateCmd,
		watchCmd,
		serveCmd,
		historyCmd,
		versionCmd,
	}
	return app
}

func historyDBFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "history-db",
		Usage:   "run history database URL: sqlite://<file>, postgres://..., mysql://...",
		EnvVars: []string{"CRUDGEN_HISTORY_DB"},
	}
}

func configLogger(cctx *cli.Context, writer io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "error":
		level = slog.LevelError
	case "warn":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// newGenerator builds a generator from the global flags.
func newGenerator(cctx *cli.Context, logger *slog.Logger) (*gen.Generator, error) {
	opts := []gen.Option{
		gen.WithLogger(logger),
		gen.WithGoVersion(cctx.String("go-version")),
		gen.WithFormat(!cctx.Bool("no-format")),
	}
	toolchain := cctx.String("toolchain")
	if toolchain != "" {
		opts = append(opts, gen.WithToolchain(toolchain))
	}
	if prefix := cctx.String("module-prefix"); prefix != "" {
		opts = append(opts, gen.WithModulePrefix(prefix))
	}
	if path := cctx.Path("type-table"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening type table: %w", err)
		}
		defer f.Close()
		table, err := typeexpr.LoadTable(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		opts = append(opts, gen.WithTypeTable(table))
	}
	cfg, err := gen.NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	if toolchain == "" {
		cfg.Toolchain = ""
	}
	return gen.NewGenerator(cfg), nil
}

// openHistory opens and migrates the run history named by --history-db. It
// returns nil when the flag is unset.
func openHistory(cctx *cli.Context) (*history.Store, error) {
	dburl := cctx.String("history-db")
	if dburl == "" {
		return nil, nil
	}
	store, err := history.Open(dburl, configLogger(cctx, cctx.App.ErrWriter))
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(cctx.Context); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

var versionCmd = &cli.Command{
	Name:  "version",
	Usage: "print build information",
	Action: func(cctx *cli.Context) error {
		out := cctx.App.Writer
		fmt.Fprintf(out, "version:  %s\n", versioninfo.Version)
		fmt.Fprintf(out, "revision: %s\n", versioninfo.Revision)
		if !versioninfo.LastCommit.IsZero() {
			fmt.Fprintf(out, "commit:   %s\n", versioninfo.LastCommit.UTC().Format("2006-01-02T15:04:05Z"))
		}
		if versioninfo.DirtyBuild {
			fmt.Fprintln(out, "dirty:    true")
		}
		return nil
	},
}
