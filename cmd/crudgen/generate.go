package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	cli "github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/crudgen/compiler/gen"
	"github.com/syssam/crudgen/compiler/load"
	"github.com/syssam/crudgen/internal/history"
	"github.com/syssam/crudgen/schema"
)

var generateCmd = &cli.Command{
	Name:      "generate",
	Usage:     "generate projects from one or more schema files",
	ArgsUsage: "<schema.yaml>...",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "workers",
			Usage:   "maximum number of projects generated concurrently",
			Value:   runtime.GOMAXPROCS(0),
			EnvVars: []string{"CRUDGEN_WORKERS"},
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "print the files each project would contain without writing them",
		},
		historyDBFlag(),
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() == 0 {
			return errors.New("at least one schema file required")
		}
		logger := configLogger(cctx, cctx.App.ErrWriter)
		g, err := newGenerator(cctx, logger)
		if err != nil {
			return err
		}
		jobs, err := loadJobs(g, cctx.Args().Slice())
		if err != nil {
			return err
		}
		out := cctx.App.Writer
		if cctx.Bool("dry-run") {
			for _, j := range jobs {
				for _, f := range j.layout.Files {
					fmt.Fprintln(out, filepath.Join(j.spec.Path, filepath.FromSlash(f)))
				}
			}
			return nil
		}
		store, err := openHistory(cctx)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}
		if err := generateAll(cctx.Context, g, store, logger, jobs, cctx.Int("workers")); err != nil {
			return err
		}
		for _, j := range jobs {
			fmt.Fprintf(out, "%s: %d files\n", j.res.Path, len(j.res.Files))
		}
		return nil
	},
}

// job is one schema file to generate.
type job struct {
	file   string
	spec   *schema.ProjectSpec
	layout *gen.Layout
	res    *gen.Result
}

// loadJobs reads and plans every schema file. It fails when a schema is
// invalid or two projects would write into overlapping directories.
func loadJobs(g *gen.Generator, files []string) ([]*job, error) {
	jobs := make([]*job, 0, len(files))
	for _, file := range files {
		spec, err := load.LoadFile(file)
		if err != nil {
			return nil, err
		}
		layout, err := g.Plan(spec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if spec.Path, err = filepath.Abs(spec.Path); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		jobs = append(jobs, &job{file: file, spec: spec, layout: layout})
	}
	for i, a := range jobs {
		for _, b := range jobs[i+1:] {
			if overlaps(a.spec.Path, b.spec.Path) {
				return nil, fmt.Errorf("%s and %s: target paths %s and %s overlap", a.file, b.file, a.spec.Path, b.spec.Path)
			}
		}
	}
	return jobs, nil
}

// overlaps reports whether one directory is inside, or equal to, the other.
func overlaps(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if a == b {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(a, strings.TrimSuffix(b, sep)+sep) ||
		strings.HasPrefix(b, strings.TrimSuffix(a, sep)+sep)
}

// generateAll runs the jobs with at most workers concurrent generations. The
// first failure cancels the jobs that have not started yet.
func generateAll(ctx context.Context, g *gen.Generator, store *history.Store, logger *slog.Logger, jobs []*job, workers int) error {
	errg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		errg.SetLimit(workers)
	}
	for _, j := range jobs {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := g.Generate(ctx, j.spec)
			j.res = res
			record(ctx, store, logger, j.spec, res, err)
			if err != nil {
				return fmt.Errorf("%s: %w", j.file, err)
			}
			return nil
		})
	}
	return errg.Wait()
}

// record stores the outcome of a run when a history is configured. Failures
// to record are logged and do not fail the run.
func record(ctx context.Context, store *history.Store, logger *slog.Logger, spec *schema.ProjectSpec, res *gen.Result, genErr error) *history.Run {
	if store == nil {
		return nil
	}
	run, err := history.NewRun(spec, res, genErr)
	if err == nil {
		err = store.Record(ctx, run)
	}
	if err != nil {
		logger.WarnContext(ctx, "recording run failed", "path", spec.Path, "error", err)
		return nil
	}
	return run
}
