package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v2"

	"github.com/syssam/crudgen/internal/server"
)

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "run the generation HTTP API",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "Specify the local IP/port to bind to",
			Value:   ":8080",
			EnvVars: []string{"CRUDGEN_BIND"},
		},
		historyDBFlag(),
	},
	Action: func(cctx *cli.Context) error {
		logger := configLogger(cctx, cctx.App.ErrWriter)
		g, err := newGenerator(cctx, logger)
		if err != nil {
			return err
		}
		store, err := openHistory(cctx)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		srv := server.New(server.Config{
			Bind:      cctx.String("bind"),
			Generator: g,
			History:   store,
			Logger:    logger,
		})
		errc := make(chan error, 1)
		go func() {
			errc <- srv.Start()
		}()

		exitSignals := make(chan os.Signal, 1)
		signal.Notify(exitSignals, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-exitSignals:
			logger.Info("received OS exit signal", "signal", sig)
		case err := <-errc:
			if err != nil {
				return err
			}
			return errors.New("HTTP server exited unexpectedly")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("graceful shutdown complete")
		return nil
	},
}
