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


// Package imagecat wires the categorizer together: configuration, the
// checkpoint store and suggestion cache, the vision provider and the run
// lifecycle.
package imagecat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/imagecat/ai"
	"github.com/poiesic/imagecat/ai/openai"
	"github.com/poiesic/imagecat/config"
	"github.com/poiesic/imagecat/run"
	"github.com/poiesic/imagecat/server"
	"github.com/poiesic/imagecat/storage"
	"github.com/poiesic/imagecat/storage/badger"
	"github.com/poiesic/imagecat/taxonomy"
)

// App owns the long-lived components of one process.
type App struct {
	config      *config.Config
	configPath  string
	taxonomy    *taxonomy.Taxonomy
	backend     *badger.Backend
	checkpoints *badger.CheckpointRepository
	cache       *badger.SuggestionCache
	runner      *run.Runner
	logger      *slog.Logger
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	inMemory        bool
	progress        io.Writer
	providerFactory run.ProviderFactory
	runOptions      []run.Option
}

// WithInMemoryStore keeps checkpoints and the cache in memory.
func WithInMemoryStore() AppOption {
	return func(o *appOptions) {
		o.inMemory = true
	}
}

// WithProgress reports run progress to w.
func WithProgress(w io.Writer) AppOption {
	return func(o *appOptions) {
		o.progress = w
	}
}

// WithProviderFactory replaces the OpenAI provider factory.
func WithProviderFactory(f run.ProviderFactory) AppOption {
	return func(o *appOptions) {
		o.providerFactory = f
	}
}

// WithRunOptions passes extra options to the runner.
func WithRunOptions(opts ...run.Option) AppOption {
	return func(o *appOptions) {
		o.runOptions = append(o.runOptions, opts...)
	}
}

// NewApp builds an App from cfg. configPath is where session choices are
// saved; an empty path disables saving.
func NewApp(cfg *config.Config, configPath string, opts ...AppOption) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	options := &appOptions{}
	for _, opt := range opts {
		opt(options)
	}

	tax := taxonomy.Default()
	if cfg.Paths.TaxonomyFile != "" {
		loaded, err := taxonomy.Load(cfg.Paths.TaxonomyFile)
		if err != nil {
			return nil, fmt.Errorf("load taxonomy: %w", err)
		}
		tax = loaded
	}

	backend, err := badger.OpenBackend(cfg.StorePath(), options.inMemory)
	if err != nil {
		return nil, err
	}

	app := &App{
		config:      cfg,
		configPath:  configPath,
		taxonomy:    tax,
		backend:     backend,
		checkpoints: badger.NewCheckpointRepository(backend),
		logger:      slog.Default().With("component", "app"),
	}

	factory := options.providerFactory
	if factory == nil {
		factory = app.openAIProvider
	}
	runOpts := []run.Option{
		run.WithConfig(cfg.RunConfig()),
		run.WithCheckpoints(app.checkpoints),
		run.WithProviderFactory(factory),
	}
	if cfg.Processing.CacheSuggestions {
		app.cache = badger.NewSuggestionCache(backend)
		runOpts = append(runOpts, run.WithSuggestionCache(app.cache))
	}
	if options.progress != nil {
		runOpts = append(runOpts, run.WithProgressWriter(options.progress))
	}
	runOpts = append(runOpts, options.runOptions...)

	runner, err := run.NewRunner(tax, runOpts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	app.runner = runner
	return app, nil
}

func (a *App) openAIProvider(ctx context.Context) (ai.Provider, error) {
	return openai.NewProvider(ctx, a.config.AIConfig(), a.config.Credentials())
}

// Config returns the application configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Taxonomy returns the loaded category taxonomy.
func (a *App) Taxonomy() *taxonomy.Taxonomy {
	return a.taxonomy
}

// Runner returns the run controller.
func (a *App) Runner() *run.Runner {
	return a.runner
}

// Checkpoints returns the checkpoint repository.
func (a *App) Checkpoints() storage.CheckpointRepository {
	return a.checkpoints
}

// ClearCache drops every cached suggestion.
func (a *App) ClearCache() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Clear()
}

// Resume returns job adjusted to continue from the saved checkpoint for its
// input, and whether one was found.
func (a *App) Resume(ctx context.Context, job run.Job) (run.Job, bool, error) {
	cp, err := a.checkpoints.LoadCheckpoint(ctx, job.InputPath)
	if err != nil {
		return job, false, err
	}
	if cp == nil {
		return job, false, nil
	}
	job.StartRow = cp.NextRow
	job.OutputPath = cp.OutputPath
	job.Append = true
	return job, true, nil
}

// Remember records job as the last run and saves the configuration.
func (a *App) Remember(job run.Job) error {
	a.config.Remember(job)
	return a.save()
}

// Reset clears the remembered run and saves the configuration.
func (a *App) Reset() error {
	a.config.ResetSession()
	return a.save()
}

func (a *App) save() error {
	if a.configPath == "" {
		return nil
	}
	return a.config.Save(a.configPath)
}

// NewServer creates the HTTP API bound to the configured address.
func (a *App) NewServer() (*server.Server, error) {
	return server.New(a.config.Server.Bind, a.runner, a.taxonomy, server.WithSession(a))
}

// Close stops the runner and closes storage.
func (a *App) Close() error {
	if a.runner.Running() {
		a.runner.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), a.config.RunConfig().ResetWait)
		if err := a.runner.Wait(ctx); err != nil {
			a.logger.Warn("run still active at shutdown", "err", err)
		}
		cancel()
	}
	a.runner.Release()

	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
