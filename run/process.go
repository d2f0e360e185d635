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
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/imagecat/ai"
	"github.com/poiesic/imagecat/core"
	"github.com/poiesic/imagecat/fetch"
	"github.com/poiesic/imagecat/reconcile"
	"github.com/poiesic/imagecat/storage"
	"github.com/poiesic/imagecat/taxonomy"
)

// outcome is the result of categorizing one image.
type outcome struct {
	categories []core.CategoryPath
	err        error // per-image failure; categories hold the fallback
	aiCalled   bool
}

// seenImage remembers the suggestion given for an earlier image of the run.
type seenImage struct {
	image      *fetch.Image
	suggestion *core.Suggestion
}

// imageProcessor categorizes images one at a time for a single run.
type imageProcessor struct {
	fetcher      fetch.Fetcher
	categorizer  ai.Categorizer // nil in ModeOff
	model        string
	cache        storage.SuggestionCache
	taxonomy     *taxonomy.Taxonomy
	engine       *reconcile.Engine
	config       *Config
	manual       []core.CategoryPath
	keepExisting bool
	seen         []seenImage
	logger       *slog.Logger
}

// process categorizes rec. Failures fall back to the manual selection
// without an orientation.
func (p *imageProcessor) process(ctx context.Context, rec core.ImageRecord) outcome {
	in := reconcile.Input{Manual: p.manual}
	if p.keepExisting {
		in.Existing = rec.Existing
	}
	fallback := p.engine.Reconcile(in)

	img, err := p.fetcher.Fetch(ctx, rec.URL)
	if err != nil {
		return outcome{categories: fallback, err: err}
	}
	dims := img.Dimensions
	in.Dimensions = &dims

	if p.categorizer == nil {
		return outcome{categories: p.engine.Reconcile(in)}
	}

	suggestion, called, err := p.suggest(ctx, rec, img)
	if err != nil {
		return outcome{categories: fallback, err: err, aiCalled: called}
	}

	ai.InferPeople(suggestion, rec.Description, p.taxonomy.Contains)

	in.AI = suggestion.Categories
	in.NoPeople = suggestion.NoPeople
	return outcome{categories: p.engine.Reconcile(in), aiCalled: called}
}

// suggest returns a private copy of the AI suggestion for img, consulting
// the cache and byte-identical earlier images of this run before calling
// the service.
func (p *imageProcessor) suggest(ctx context.Context, rec core.ImageRecord, img *fetch.Image) (*core.Suggestion, bool, error) {
	if p.cache != nil {
		cached, err := p.cache.GetSuggestion(ctx, p.model, rec.URL)
		switch {
		case err == nil:
			p.logger.Debug("suggestion cache hit", "url", rec.URL)
			p.remember(img, cached)
			return clone(cached), false, nil
		case !errors.Is(err, storage.ErrNotFound):
			p.logger.Warn("suggestion cache lookup failed", "url", rec.URL, "err", err)
		}
	}

	for _, s := range p.seen {
		if img.Digest == s.image.Digest {
			p.logger.Debug("reusing suggestion for identical image", "url", rec.URL, "original", s.image.URL)
			return clone(s.suggestion), false, nil
		}
	}
	// Look-alikes are still categorized on their own.
	for _, s := range p.seen {
		if img.Similar(s.image) {
			p.logger.Debug("near-duplicate image", "url", rec.URL, "resembles", s.image.URL)
			break
		}
	}

	req := ai.Request{
		URL:         rec.URL,
		Description: rec.Description,
		Taxonomy:    p.taxonomy,
	}
	if data, mimeType, err := img.Preview(p.config.PreviewMaxDim); err == nil {
		req.Image = data
		req.MIMEType = mimeType
	} else {
		p.logger.Warn("preview failed, sending source URL", "url", rec.URL, "err", err)
	}

	var suggestion *core.Suggestion
	err := Retry(ctx, p.config.policy(), func(callCtx context.Context) error {
		s, err := p.categorizer.Categorize(callCtx, req)
		if err != nil {
			if ai.IsConfigError(err) {
				return Permanent(err)
			}
			return err
		}
		suggestion = s
		return nil
	})
	if err != nil {
		return nil, true, fmt.Errorf("categorize %s: %w", rec.URL, err)
	}

	if p.cache != nil {
		if err := p.cache.PutSuggestion(ctx, p.model, rec.URL, suggestion); err != nil {
			p.logger.Warn("suggestion cache store failed", "url", rec.URL, "err", err)
		}
	}
	p.remember(img, suggestion)
	p.logger.Debug("AI suggestion", "url", rec.URL, "categories", len(suggestion.Categories),
		"noPeople", suggestion.NoPeople, "rationale", suggestion.Rationale)
	return clone(suggestion), true, nil
}

func (p *imageProcessor) remember(img *fetch.Image, s *core.Suggestion) {
	// Keep the fingerprints, not the pixels.
	p.seen = append(p.seen, seenImage{
		image:      &fetch.Image{URL: img.URL, Digest: img.Digest, Hash: img.Hash},
		suggestion: s,
	})
}

func clone(s *core.Suggestion) *core.Suggestion {
	c := *s
	c.Categories = slices.Clone(s.Categories)
	return &c
}
