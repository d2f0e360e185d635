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


package badger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/imagecat/storage"
)

// Backend is a small key/value view over a BadgerDB instance. Values are
// copied out of the transaction so callers may keep them.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// slogSink routes badger's printf-style logging into slog. Badger is chatty
// at info level, so info messages are demoted to debug.
type slogSink struct {
	logger *slog.Logger
}

var _ badger.Logger = slogSink{}

func (s slogSink) Errorf(format string, args ...any)   { s.logger.Error(fmt.Sprintf(format, args...)) }
func (s slogSink) Warningf(format string, args ...any) { s.logger.Warn(fmt.Sprintf(format, args...)) }
func (s slogSink) Infof(format string, args ...any)    { s.logger.Debug(fmt.Sprintf(format, args...)) }
func (s slogSink) Debugf(format string, args ...any)   { s.logger.Debug(fmt.Sprintf(format, args...)) }

// OpenBackend opens the state store at dir, creating the directory when
// needed. With inMemory set dir is ignored and nothing touches disk.
func OpenBackend(dir string, inMemory bool) (*Backend, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	if !inMemory {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
		opts = badger.DefaultOptions(dir)
	}

	logger := slog.Default().With("component", "state-store")
	opts.Logger = slogSink{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}
	return &Backend{db: db, logger: logger}, nil
}

func ensureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: empty store path", storage.ErrInvalidKey)
	}
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed reports whether Close has been called.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// Get returns the value stored under key, or storage.ErrNotFound.
func (b *Backend) Get(key []byte) ([]byte, error) {
	if b.db.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var value []byte
	err := b.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

// Put stores value under key.
func (b *Backend) Put(key, value []byte) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	return b.db.Update(func(tx *badger.Txn) error {
		return tx.Set(key, value)
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (b *Backend) Delete(key []byte) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	return b.db.Update(func(tx *badger.Txn) error {
		return tx.Delete(key)
	})
}

// DropPrefix deletes every key starting with prefix.
func (b *Backend) DropPrefix(prefix string) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	if err := b.db.DropPrefix([]byte(prefix)); err != nil {
		return err
	}
	b.logger.Debug("dropped keys", "prefix", prefix)
	return nil
}
