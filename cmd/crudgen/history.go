package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v2"

	"github.com/syssam/crudgen/internal/history"
)

var historyCmd = &cli.Command{
	Name:  "history",
	Usage: "inspect and replay recorded generation runs",
	Flags: []cli.Flag{
		historyDBFlag(),
	},
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "list the most recent runs",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "limit",
					Usage: "maximum number of runs to print (0 for all)",
					Value: 20,
				},
			},
			Action: func(cctx *cli.Context) error {
				store, err := requireHistory(cctx)
				if err != nil {
					return err
				}
				defer store.Close()
				runs, err := store.List(cctx.Context, cctx.Int("limit"))
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cctx.App.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCREATED\tSTATUS\tPROJECT\tFILES\tPATH")
				for _, r := range runs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
						r.ID, r.CreatedAt.Format(time.RFC3339), r.Status, r.Project, len(r.Files), r.Path)
				}
				return w.Flush()
			},
		},
		{
			Name:      "show",
			Usage:     "print a run and its schema as JSON",
			ArgsUsage: "<run-id>",
			Action: func(cctx *cli.Context) error {
				store, run, err := lookupRun(cctx)
				if err != nil {
					return err
				}
				defer store.Close()
				spec, err := run.ProjectSpec()
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cctx.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					*history.Run
					Schema any `json:"schema"`
				}{run, spec})
			},
		},
		{
			Name:      "replay",
			Usage:     "generate the schema of a recorded run again",
			ArgsUsage: "<run-id>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "path",
					Usage: "write the project to this directory instead of the recorded one",
				},
			},
			Action: func(cctx *cli.Context) error {
				logger := configLogger(cctx, cctx.App.ErrWriter)
				store, run, err := lookupRun(cctx)
				if err != nil {
					return err
				}
				defer store.Close()
				spec, err := run.ProjectSpec()
				if err != nil {
					return err
				}
				if p := cctx.String("path"); p != "" {
					spec.Path = p
				}
				g, err := newGenerator(cctx, logger)
				if err != nil {
					return err
				}
				res, err := g.Generate(cctx.Context, spec)
				replay := record(cctx.Context, store, logger, spec, res, err)
				if err != nil {
					return err
				}
				fmt.Fprintf(cctx.App.Writer, "%s: %d files\n", res.Path, len(res.Files))
				if replay != nil {
					fmt.Fprintf(cctx.App.Writer, "run %s\n", replay.ID)
				}
				return nil
			},
		},
	},
}

func lookupRun(cctx *cli.Context) (*history.Store, *history.Run, error) {
	if cctx.NArg() != 1 {
		return nil, nil, errors.New("exactly one run id required")
	}
	id, err := uuid.Parse(cctx.Args().First())
	if err != nil {
		return nil, nil, fmt.Errorf("invalid run id: %w", err)
	}
	store, err := requireHistory(cctx)
	if err != nil {
		return nil, nil, err
	}
	run, err := store.Get(cctx.Context, id)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, run, nil
}

func requireHistory(cctx *cli.Context) (*history.Store, error) {
	store, err := openHistory(cctx)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("--history-db is required")
	}
	return store, nil
}
