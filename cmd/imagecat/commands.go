// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/poiesic/imagecat"
	"github.com/poiesic/imagecat/catalog"
	"github.com/poiesic/imagecat/config"
	"github.com/poiesic/imagecat/core"
	"github.com/poiesic/imagecat/logging"
	"github.com/poiesic/imagecat/run"
	"github.com/poiesic/imagecat/taxonomy"
	"github.com/urfave/cli/v2"
)

func processCommand() *cli.Command {
	return &cli.Command{
		Name:   "process",
		Usage:  "Categorize every image in a catalog CSV",
		Action: processAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Input catalog CSV",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output CSV (defaults to <input>_categorized.csv)",
			},
			&cli.IntFlag{
				Name:  "start-row",
				Usage: "0-based data row to start from",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Images per batch (1-20); defaults to the configured size",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "AI source: live, mock or off",
				Value: string(run.ModeLive),
			},
			&cli.StringSliceFlag{
				Name:    "category",
				Aliases: []string{"C"},
				Usage:   "Category path applied to every image (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "append",
				Usage: "Keep rows already written to the output file",
			},
			&cli.BoolFlag{
				Name:  "keep-existing",
				Usage: "Merge each row's existing categories into the result",
			},
			&cli.BoolFlag{
				Name:  "resume",
				Usage: "Continue from the saved checkpoint for this input",
			},
		},
	}
}

func processAction(c *cli.Context) error {
	cfg, cfgPath := loadedConfig(c)
	if cfg == nil {
		return errors.New("configuration not loaded")
	}

	mode, err := run.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}

	var progress io.Writer
	if logging.IsTerminal(os.Stderr) {
		progress = os.Stderr
	}
	app, err := imagecat.NewApp(cfg, cfgPath, imagecat.WithProgress(progress))
	if err != nil {
		return fmt.Errorf("failed to open application: %w", err)
	}
	defer app.Close()

	manual, err := app.Taxonomy().Resolve(c.StringSlice("category"))
	if err != nil {
		return err
	}

	input := c.String("input")
	output := c.String("output")
	if output == "" {
		output = catalog.DefaultOutputPath(input)
	}
	job := run.Job{
		InputPath:    input,
		OutputPath:   output,
		StartRow:     c.Int("start-row"),
		BatchSize:    c.Int("batch-size"),
		Manual:       manual,
		Mode:         mode,
		Append:       c.Bool("append"),
		KeepExisting: c.Bool("keep-existing"),
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Bool("resume") {
		resumed, found, err := app.Resume(ctx, job)
		if err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		if found {
			fmt.Fprintf(c.App.ErrWriter, "Resuming %s at row %d\n", input, resumed.StartRow)
			job = resumed
		} else {
			fmt.Fprintf(c.App.ErrWriter, "No checkpoint for %s; starting at row %d\n", input, job.StartRow)
		}
	}

	if err := app.Remember(job); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: could not save settings: %v\n", err)
	}

	snap, err := app.Runner().Run(ctx, job)
	fmt.Fprintln(c.App.Writer, summaryTable(snap))
	fmt.Fprintln(c.App.Writer, snap.Message)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func summaryTable(snap run.Snapshot) string {
	rows := [][]string{
		{"Input", snap.InputFile},
		{"Output", snap.OutputFile},
		{"Start row", strconv.Itoa(snap.StartRow)},
		{"Processed", fmt.Sprintf("%d/%d", snap.Current, snap.Total)},
		{"Succeeded", strconv.Itoa(snap.Succeeded)},
		{"Failed", strconv.Itoa(snap.Failed)},
	}
	if !snap.StartedAt.IsZero() && !snap.FinishedAt.IsZero() {
		rows = append(rows, []string{"Elapsed", snap.FinishedAt.Sub(snap.StartedAt).Round(time.Millisecond).String()})
	}
	return renderTable([]string{"Run", snap.RunID}, rows, []columnAlignment{alignLeft, alignRight})
}

func applyCommand() *cli.Command {
	return &cli.Command{
		Name:   "apply",
		Usage:  "Add categories to every row of a catalog CSV in place",
		Action: applyAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Catalog CSV to update",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:     "category",
				Aliases:  []string{"C"},
				Usage:    "Category path to apply (repeatable)",
				Required: true,
			},
		},
	}
}

func applyAction(c *cli.Context) error {
	cfg, _ := loadedConfig(c)
	tax, err := loadTaxonomy(cfg)
	if err != nil {
		return err
	}
	manual, err := tax.Resolve(c.StringSlice("category"))
	if err != nil {
		return err
	}
	if len(manual) == 0 {
		return errors.New("no categories selected")
	}

	rows, err := catalog.ApplyCategories(c.String("input"), manual)
	if err != nil {
		return fmt.Errorf("apply categories: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Applied %d categories to all images (%d rows)\n", len(manual), rows)
	return nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the JSON API for progress polling and run control",
		Action: serveAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "bind",
				Usage: "Listen address; defaults to the configured address",
			},
		},
	}
}

func serveAction(c *cli.Context) error {
	cfg, cfgPath := loadedConfig(c)
	if cfg == nil {
		return errors.New("configuration not loaded")
	}
	if c.IsSet("bind") {
		cfg.Server.Bind = c.String("bind")
	}

	app, err := imagecat.NewApp(cfg, cfgPath)
	if err != nil {
		return fmt.Errorf("failed to open application: %w", err)
	}
	defer app.Close()

	srv, err := app.NewServer()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(c.App.ErrWriter, "Listening on http://%s\n", srv.Addr())

	<-ctx.Done()
	srv.Stop()
	return nil
}

func categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:   "categories",
		Usage:  "List the category taxonomy",
		Action: categoriesAction,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the grouped taxonomy as JSON",
			},
		},
	}
}

func categoriesAction(c *cli.Context) error {
	cfg, _ := loadedConfig(c)
	tax, err := loadTaxonomy(cfg)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(tax.Groups())
	}

	rows := make([][]string, 0, tax.Len())
	for _, p := range tax.Paths() {
		group := p.Family().String()
		if sub := p.Subfamily(); sub != core.SubfamilyNone {
			group = group + "/" + sub.String()
		}
		rows = append(rows, []string{group, string(p)})
	}
	fmt.Fprintln(c.App.Writer, renderTable([]string{"Group", "Category"}, rows, nil))
	return nil
}

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage cached AI suggestions",
		Subcommands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "Drop every cached suggestion",
				Action: cacheClearAction,
			},
		},
	}
}

func cacheClearAction(c *cli.Context) error {
	cfg, cfgPath := loadedConfig(c)
	if cfg == nil {
		return errors.New("configuration not loaded")
	}
	app, err := imagecat.NewApp(cfg, cfgPath)
	if err != nil {
		return fmt.Errorf("failed to open application: %w", err)
	}
	defer app.Close()

	if err := app.ClearCache(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "Suggestion cache cleared")
	return nil
}

func loadTaxonomy(cfg *config.Config) (*taxonomy.Taxonomy, error) {
	if cfg == nil || cfg.Paths.TaxonomyFile == "" {
		return taxonomy.Default(), nil
	}
	tax, err := taxonomy.Load(cfg.Paths.TaxonomyFile)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	return tax, nil
}
