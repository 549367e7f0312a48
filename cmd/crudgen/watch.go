package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	cli "github.com/urfave/cli/v2"

	"github.com/syssam/crudgen/compiler/gen"
	"github.com/syssam/crudgen/compiler/load"
)

var watchCmd = &cli.Command{
	Name:      "watch",
	Usage:     "regenerate a project every time its schema file changes",
	ArgsUsage: "<schema.yaml>",
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() != 1 {
			return errors.New("exactly one schema file required")
		}
		logger := configLogger(cctx, cctx.App.ErrWriter)
		g, err := newGenerator(cctx, logger)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return watch(ctx, g, logger, cctx.Args().First())
	},
}

// watch generates file once and then again on every write until ctx is
// done. Generation errors are logged and do not stop the watcher.
func watch(ctx context.Context, g *gen.Generator, logger *slog.Logger, file string) error {
	file, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// Editors often replace files by renaming, so the directory is watched.
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		return fmt.Errorf("watching %s: %w", file, err)
	}

	log := logger.With("source", "watcher", "file", file)
	regenerate := func() {
		spec, err := load.LoadFile(file)
		if err != nil {
			log.Warn("loading schema failed", "err", err)
			return
		}
		res, err := g.Generate(ctx, spec)
		if err != nil {
			log.Warn("generation failed", "category", gen.Category(err), "err", err)
			return
		}
		log.Info("regenerated", "path", res.Path, "files", len(res.Files))
	}
	regenerate()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != file {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				log.Debug("file modified", "op", event.Op.String())
				regenerate()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("watcher error", "err", err)
		}
	}
}
