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


package run

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/imagecat/ai"
	"github.com/poiesic/imagecat/ai/mock"
	"github.com/poiesic/imagecat/catalog"
	"github.com/poiesic/imagecat/core"
	"github.com/poiesic/imagecat/fetch"
	"github.com/poiesic/imagecat/reconcile"
	"github.com/poiesic/imagecat/storage"
	"github.com/poiesic/imagecat/taxonomy"
)

// ProviderFactory builds the live AI provider at the start of a run.
type ProviderFactory func(ctx context.Context) (ai.Provider, error)

// Runner executes categorization runs one at a time.
type Runner struct {
	taxonomy    *taxonomy.Taxonomy
	engine      *reconcile.Engine
	config      *Config
	fetcher     fetch.Fetcher
	provider    ai.Provider
	newProvider ProviderFactory
	checkpoints storage.CheckpointRepository
	cache       storage.SuggestionCache
	progress    io.Writer
	pool        *ants.Pool
	logger      *slog.Logger

	mu      sync.Mutex
	state   Snapshot
	running bool
	done    chan struct{}
	stop    atomic.Bool
}

// Option configures a Runner.
type Option func(*Runner) error

// WithConfig sets run tuning. Default is DefaultConfig().
func WithConfig(config *Config) Option {
	return func(r *Runner) error {
		if config == nil {
			config = DefaultConfig()
		}
		if err := config.Validate(); err != nil {
			return err
		}
		r.config = config
		return nil
	}
}

// WithFetcher sets the image fetcher. Default is fetch.New().
func WithFetcher(f fetch.Fetcher) Option {
	return func(r *Runner) error {
		r.fetcher = f
		return nil
	}
}

// WithProvider sets the provider used by live runs. The Runner does not
// close it.
func WithProvider(p ai.Provider) Option {
	return func(r *Runner) error {
		r.provider = p
		return nil
	}
}

// WithProviderFactory builds a fresh provider for each live run. Providers
// built this way are closed when the run ends. WithProvider takes precedence.
func WithProviderFactory(f ProviderFactory) Option {
	return func(r *Runner) error {
		r.newProvider = f
		return nil
	}
}

// WithCheckpoints enables resume bookmarks.
func WithCheckpoints(repo storage.CheckpointRepository) Option {
	return func(r *Runner) error {
		r.checkpoints = repo
		return nil
	}
}

// WithSuggestionCache enables caching of live AI suggestions.
func WithSuggestionCache(cache storage.SuggestionCache) Option {
	return func(r *Runner) error {
		r.cache = cache
		return nil
	}
}

// WithProgressWriter sets where the progress line is written.
// Default discards it.
func WithProgressWriter(w io.Writer) Option {
	return func(r *Runner) error {
		r.progress = w
		return nil
	}
}

// WithEngine replaces the reconciliation engine.
func WithEngine(e *reconcile.Engine) Option {
	return func(r *Runner) error {
		if e != nil {
			r.engine = e
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "runner")
		return nil
	}
}

// NewRunner creates a Runner for the given taxonomy.
func NewRunner(tax *taxonomy.Taxonomy, opts ...Option) (*Runner, error) {
	if tax == nil {
		return nil, ErrTaxonomyRequired
	}

	r := &Runner{
		taxonomy: tax,
		engine:   reconcile.New(reconcile.DefaultRules()...),
		config:   DefaultConfig(),
		progress: io.Discard,
		logger:   slog.Default().With("component", "runner"),
		state:    readyState(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.fetcher == nil {
		r.fetcher = fetch.New(fetch.WithTimeout(r.config.APITimeout))
	}

	logger := r.logger
	pool, err := ants.NewPool(1, ants.WithPanicHandler(func(p any) {
		logger.Error("run panicked", "panic", p)
	}))
	if err != nil {
		return nil, err
	}
	r.pool = pool

	return r, nil
}

// Start dispatches job onto the background worker and returns immediately.
// It returns ErrRunInProgress if a run is active. The run is detached from
// ctx's cancellation; use Stop to end it.
func (r *Runner) Start(ctx context.Context, job Job) error {
	if err := r.begin(job); err != nil {
		return err
	}
	runCtx := context.WithoutCancel(ctx)
	if err := r.pool.Submit(func() {
		_ = r.execute(runCtx, job)
	}); err != nil {
		r.fail(fmt.Errorf("dispatch run: %w", err))
		r.end()
		return err
	}
	return nil
}

// Run executes job synchronously and returns its final state. The returned
// error is the fatal error that ended the run, if any.
func (r *Runner) Run(ctx context.Context, job Job) (Snapshot, error) {
	if err := r.begin(job); err != nil {
		return r.Snapshot(), err
	}
	err := r.execute(ctx, job)
	return r.Snapshot(), err
}

// Stop asks the active run to stop before its next image. It reports
// whether a run was active.
func (r *Runner) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return false
	}
	r.stop.Store(true)
	r.logger.Info("stop requested", "runID", r.state.RunID)
	return true
}

// Reset stops any active run, waits briefly for it and returns the state to
// Ready. It returns ErrRunInProgress if the run did not stop in time.
func (r *Runner) Reset() error {
	r.Stop()

	r.mu.Lock()
	done, running := r.done, r.running
	r.mu.Unlock()
	if running && done != nil {
		timer := time.NewTimer(r.config.ResetWait)
		select {
		case <-done:
		case <-timer.C:
		}
		timer.Stop()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrRunInProgress
	}
	r.state = readyState()
	r.stop.Store(false)
	return nil
}

// Wait blocks until the active run ends or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the current run state.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.state
	s.Running = r.running
	return s
}

// Running reports whether a run is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Release stops the background worker. The Runner must not be used afterwards.
func (r *Runner) Release() {
	r.pool.Release()
}

// begin claims the runner for a new run.
func (r *Runner) begin(job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrRunInProgress
	}
	r.running = true
	r.stop.Store(false)
	r.done = make(chan struct{})
	r.state = Snapshot{
		RunID:     uuid.NewString(),
		Message:   startingMessage,
		StartRow:  job.StartRow,
		InputFile: job.InputPath,
		StartedAt: time.Now().UTC(),
	}
	return nil
}

// end releases the runner after a run.
func (r *Runner) end() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.Complete {
		r.state.Complete = true
		r.state.Success = false
		r.state.Message = "Error: processing aborted unexpectedly"
	}
	r.state.FinishedAt = time.Now().UTC()
	r.running = false
	if r.done != nil {
		close(r.done)
	}
}

func (r *Runner) update(fn func(s *Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.state)
}

// fail ends the run with a fatal error.
func (r *Runner) fail(err error) error {
	r.logger.Error("run failed", "err", err)
	r.update(func(s *Snapshot) {
		s.Complete = true
		s.Success = false
		s.Message = fmt.Sprintf("Error: %v", err)
	})
	return err
}

// stopped ends the run after a stop request or context cancellation.
func (r *Runner) stopped(ctx context.Context) error {
	r.logger.Info("processing stopped")
	r.update(func(s *Snapshot) {
		s.Complete = true
		s.Success = false
		s.Message = stoppedMessage
	})
	return ctx.Err()
}

func (r *Runner) stopRequested(ctx context.Context) bool {
	return r.stop.Load() || ctx.Err() != nil
}

// categorizer resolves the AI source for mode. The returned release func
// must always be called.
func (r *Runner) categorizer(ctx context.Context, mode Mode) (ai.Categorizer, string, func(), error) {
	nop := func() {}
	switch mode {
	case ModeOff:
		return nil, "", nop, nil
	case ModeMock:
		p := mock.NewMockProvider()
		return p.Categorizer(), p.Model(), nop, nil
	}

	if r.provider != nil {
		return r.provider.Categorizer(), r.provider.Model(), nop, nil
	}
	if r.newProvider == nil {
		return nil, "", nop, ErrNoProvider
	}
	p, err := r.newProvider(ctx)
	if err != nil {
		return nil, "", nop, err
	}
	return p.Categorizer(), p.Model(), func() {
		if err := p.Close(); err != nil {
			r.logger.Warn("failed to close provider", "err", err)
		}
	}, nil
}

// execute performs a claimed run.
func (r *Runner) execute(ctx context.Context, job Job) error {
	defer r.end()

	snap := r.Snapshot()
	logger := r.logger.With("runID", snap.RunID)

	cfg := *r.config
	if job.BatchSize != 0 {
		cfg.BatchSize = job.BatchSize
	}
	if err := cfg.Validate(); err != nil {
		return r.fail(err)
	}
	if job.InputPath == "" {
		return r.fail(ErrInputRequired)
	}
	mode, err := ParseMode(string(job.Mode))
	if err != nil {
		return r.fail(err)
	}
	if err := core.ValidateSelection(job.Manual, r.taxonomy.Contains); err != nil {
		return r.fail(err)
	}

	table, err := catalog.ReadFile(job.InputPath)
	if err != nil {
		return r.fail(err)
	}
	records, err := table.Records(job.StartRow)
	if err != nil {
		return r.fail(err)
	}

	output := job.OutputPath
	if output == "" {
		output = catalog.DefaultOutputPath(job.InputPath)
	}

	categorizer, model, releaseProvider, err := r.categorizer(ctx, mode)
	defer releaseProvider()
	if err != nil {
		return r.fail(fmt.Errorf("initialize AI client: %w", err))
	}

	w, err := catalog.Create(output, table.OutputHeader(), job.Append)
	if err != nil {
		return r.fail(err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Warn("failed to close output", "path", output, "err", err)
		}
	}()

	total := len(records)
	r.update(func(s *Snapshot) {
		s.Total = total
		s.OutputFile = output
	})
	logger.Info("starting run", "input", job.InputPath, "output", output, "startRow", job.StartRow,
		"total", total, "batchSize", cfg.BatchSize, "mode", mode, "manual", len(job.Manual))

	proc := &imageProcessor{
		fetcher:      r.fetcher,
		categorizer:  categorizer,
		model:        model,
		taxonomy:     r.taxonomy,
		engine:       r.engine,
		config:       &cfg,
		manual:       job.Manual,
		keepExisting: job.KeepExisting,
		logger:       logger,
	}
	if mode == ModeLive {
		proc.cache = r.cache
	}

	tracker := NewProgressTracker(r.progress, total, cfg.ReportInterval)
	tracker.Start()
	defer tracker.Finish()

	current := 0
	for batchStart := 0; batchStart < total; batchStart += cfg.BatchSize {
		batchEnd := min(batchStart+cfg.BatchSize, total)
		if r.stopRequested(ctx) {
			return r.stopped(ctx)
		}
		r.update(func(s *Snapshot) {
			s.Message = fmt.Sprintf("Processing rows %d to %d of %d...", batchStart+1, batchEnd, total)
		})

		for i := batchStart; i < batchEnd; i++ {
			if r.stopRequested(ctx) {
				return r.stopped(ctx)
			}
			rec := records[i]

			out := proc.process(ctx, rec)
			if ctx.Err() != nil {
				// Interrupted mid-image; leave the row for a resume.
				return r.stopped(ctx)
			}
			if out.err != nil && ai.IsConfigError(out.err) {
				return r.fail(out.err)
			}

			cats := out.categories
			if err := w.Write(table.OutputRow(rec, cats)); err != nil {
				return r.fail(err)
			}

			current++
			r.update(func(s *Snapshot) {
				s.Current = current
				if out.err != nil {
					s.Failed++
					s.Message = fmt.Sprintf("Error processing row %d: %v", rec.Index+1, out.err)
				} else {
					s.Succeeded++
				}
			})
			tracker.Record(out.err != nil)
			if out.err != nil {
				logger.Warn("image failed, applied manual selection", "row", rec.Index+1, "url", rec.URL, "err", out.err)
			} else {
				logger.Debug("image categorized", "row", rec.Index+1, "categories", reconcile.Join(cats))
			}
			r.saveCheckpoint(ctx, job, output, rec.Index+1, table.Len(), snap.RunID)

			if mode == ModeLive && out.aiCalled && cfg.RateLimitDelay > 0 && current < total {
				if !sleep(ctx, cfg.RateLimitDelay) {
					return r.stopped(ctx)
				}
			}
		}
	}

	if r.checkpoints != nil {
		if err := r.checkpoints.DeleteCheckpoint(ctx, job.InputPath); err != nil {
			logger.Warn("failed to delete checkpoint", "err", err)
		}
	}

	message := fmt.Sprintf("Successfully processed %d images with AI categorization!", total)
	if len(job.Manual) > 0 {
		message = fmt.Sprintf("Successfully processed %d images with %d manual categories!", total, len(job.Manual))
	}
	r.update(func(s *Snapshot) {
		s.Complete = true
		s.Success = true
		s.Message = message
	})
	logger.Info("run complete", "processed", total, "output", output)
	return nil
}

func (r *Runner) saveCheckpoint(ctx context.Context, job Job, output string, next, rows int, runID string) {
	if r.checkpoints == nil {
		return
	}
	cp := &core.Checkpoint{
		InputPath:  job.InputPath,
		OutputPath: output,
		NextRow:    next,
		TotalRows:  rows,
		RunID:      runID,
	}
	if err := r.checkpoints.SaveCheckpoint(ctx, cp); err != nil {
		r.logger.Warn("failed to save checkpoint", "input", job.InputPath, "err", err)
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
