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
	"context"
	"errors"
	"time"

	"github.com/poiesic/imagecat/core"
	"github.com/poiesic/imagecat/storage"
)

// CheckpointRepository implements storage.CheckpointRepository for BadgerDB.
type CheckpointRepository struct {
	backend *Backend
}

var _ storage.CheckpointRepository = (*CheckpointRepository)(nil)

// NewCheckpointRepository creates a new CheckpointRepository.
func NewCheckpointRepository(backend *Backend) *CheckpointRepository {
	return &CheckpointRepository{
		backend: backend,
	}
}

// SaveCheckpoint persists a checkpoint for an input file.
func (r *CheckpointRepository) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateCheckpoint(checkpoint); err != nil {
		return err
	}
	checkpoint.UpdatedAt = time.Now().UTC()
	value, err := storage.MarshalCheckpoint(checkpoint)
	if err != nil {
		return err
	}
	return r.backend.Put(makeCheckpointKey(checkpoint.InputPath), value)
}

// LoadCheckpoint retrieves the checkpoint for an input file.
// Returns nil, nil if no checkpoint exists.
func (r *CheckpointRepository) LoadCheckpoint(ctx context.Context, inputPath string) (*core.Checkpoint, error) {
	if inputPath == "" {
		return nil, storage.ErrInvalidKey
	}
	value, err := r.backend.Get(makeCheckpointKey(inputPath))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalCheckpoint(value)
}

// DeleteCheckpoint removes the checkpoint for an input file.
func (r *CheckpointRepository) DeleteCheckpoint(ctx context.Context, inputPath string) error {
	if inputPath == "" {
		return storage.ErrInvalidKey
	}
	return r.backend.Delete(makeCheckpointKey(inputPath))
}

// Close is a no-op; the backend is owned by the caller.
func (r *CheckpointRepository) Close() error {
	return nil
}
