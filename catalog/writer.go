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


package catalog

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/gofrs/flock"
	"github.com/poiesic/imagecat/core"
	"github.com/poiesic/imagecat/reconcile"
)

// Writer appends categorized rows to an output CSV, flushing after every row.
// It holds an advisory lock on "<path>.lock" until closed.
type Writer struct {
	path   string
	file   *os.File
	csv    *csv.Writer
	lock   *flock.Flock
	rows   int
	logger *slog.Logger
}

// Create opens path for writing. With appendRows the existing rows are kept
// and the header is only written when the file is new or empty; otherwise the
// file is truncated.
func Create(path string, header []string, appendRows bool) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	lock, err := acquire(path)
	if err != nil {
		return nil, err
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendRows {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		release(lock)
		return nil, fmt.Errorf("open output: %w", err)
	}

	w := &Writer{
		path:   path,
		file:   f,
		csv:    csv.NewWriter(f),
		lock:   lock,
		logger: slog.Default().With("component", "catalog-writer"),
	}

	info, err := f.Stat()
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("stat output: %w", err)
	}
	if info.Size() == 0 {
		if err := w.writeFlush(header); err != nil {
			w.Close()
			return nil, err
		}
	}
	return w, nil
}

// Write appends one row and flushes it to the file.
func (w *Writer) Write(row []string) error {
	if err := w.writeFlush(row); err != nil {
		return err
	}
	w.rows++
	return nil
}

func (w *Writer) writeFlush(row []string) error {
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush row: %w", err)
	}
	return nil
}

// Rows returns the number of data rows written by this writer.
func (w *Writer) Rows() int {
	return w.rows
}

// Path returns the output file path.
func (w *Writer) Path() string {
	return w.path
}

// Close flushes, closes the file and releases the lock.
func (w *Writer) Close() error {
	w.csv.Flush()
	err := w.csv.Error()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	release(w.lock)
	w.logger.Debug("closed output", "path", w.path, "rows", w.rows)
	return err
}

func acquire(path string) (*flock.Flock, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, path)
	}
	return lock, nil
}

func release(lock *flock.Flock) {
	if err := lock.Unlock(); err != nil {
		slog.Warn("failed to release output lock", "path", lock.Path(), "err", err)
		return
	}
	_ = os.Remove(lock.Path())
}

var mergeEngine = reconcile.New(reconcile.MergeRules()...)

// ApplyCategories adds manual categories to every row of the CSV at path and
// rewrites it in place. Each row's stored categories are merged with the
// selection through the people and manual-priority rules, the selection
// winning conflicts. Orientation cannot be derived without the images, so
// manual orientation picks are ignored and the row's own is kept.
// Returns the number of rows updated.
func ApplyCategories(path string, manual []core.CategoryPath) (int, error) {
	table, err := ReadFile(path)
	if err != nil {
		return 0, err
	}

	lock, err := acquire(path)
	if err != nil {
		return 0, err
	}
	defer release(lock)

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(table.OutputHeader()); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write header: %w", err)
	}
	noPeople := slices.Contains(manual, core.PathNoPeople)
	for i := 0; i < table.Len(); i++ {
		rec := table.Record(i)
		final := mergeEngine.Reconcile(reconcile.Input{
			Manual:   manual,
			Existing: rec.Existing,
			NoPeople: noPeople,
		})
		if err := cw.Write(table.OutputRow(rec, final)); err != nil {
			tmp.Close()
			return 0, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("replace %s: %w", path, err)
	}

	slog.Default().With("component", "catalog").Info("applied categories",
		"path", path, "rows", table.Len(), "categories", len(manual))
	return table.Len(), nil
}
