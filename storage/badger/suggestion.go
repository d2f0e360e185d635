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

	"github.com/poiesic/imagecat/core"
	"github.com/poiesic/imagecat/storage"
)

// SuggestionCache implements storage.SuggestionCache for BadgerDB.
type SuggestionCache struct {
	backend *Backend
}

var _ storage.SuggestionCache = (*SuggestionCache)(nil)

// NewSuggestionCache creates a new SuggestionCache.
func NewSuggestionCache(backend *Backend) *SuggestionCache {
	return &SuggestionCache{
		backend: backend,
	}
}

// GetSuggestion returns the cached suggestion for (model, url).
func (c *SuggestionCache) GetSuggestion(ctx context.Context, model, url string) (*core.Suggestion, error) {
	if url == "" {
		return nil, storage.ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, err := c.backend.Get(makeSuggestionKey(storage.SuggestionKey(model, url)))
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalSuggestion(value)
}

// PutSuggestion caches a suggestion for (model, url).
func (c *SuggestionCache) PutSuggestion(ctx context.Context, model, url string, suggestion *core.Suggestion) error {
	if url == "" || suggestion == nil {
		return storage.ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := storage.MarshalSuggestion(suggestion)
	if err != nil {
		return err
	}
	return c.backend.Put(makeSuggestionKey(storage.SuggestionKey(model, url)), value)
}

// Clear removes every cached suggestion.
func (c *SuggestionCache) Clear() error {
	return c.backend.DropPrefix(suggestionPrefix + ":")
}

// Close is a no-op; the backend is owned by the caller.
func (c *SuggestionCache) Close() error {
	return nil
}
