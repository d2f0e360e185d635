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


package storage

import (
	"context"

	"github.com/poiesic/imagecat/core"
)

// CheckpointRepository persists resume bookmarks, one per input file.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint keyed by its InputPath.
	// UpdatedAt is set automatically.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for an input file.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, inputPath string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the checkpoint for an input file.
	// Deleting a missing checkpoint is not an error.
	DeleteCheckpoint(ctx context.Context, inputPath string) error

	// Close releases resources held by the repository.
	Close() error
}

// SuggestionCache stores AI suggestions keyed by model and image URL.
type SuggestionCache interface {
	// GetSuggestion returns the cached suggestion for (model, url).
	// Returns ErrNotFound if nothing is cached.
	GetSuggestion(ctx context.Context, model, url string) (*core.Suggestion, error)

	// PutSuggestion caches a suggestion for (model, url).
	PutSuggestion(ctx context.Context, model, url string, suggestion *core.Suggestion) error

	// Close releases resources held by the cache.
	Close() error
}

// SuggestionKey returns the content-derived ID under which a suggestion for
// (model, url) is stored.
func SuggestionKey(model, url string) core.ID {
	return core.IDFromContent(model + "\x00" + url)
}
