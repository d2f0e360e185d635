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


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/poiesic/imagecat/ai"
	"github.com/poiesic/imagecat/core"
	"github.com/poiesic/imagecat/fetch"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const maxParseAttempts = 3

// Categorizer implements ai.Categorizer using an OpenAI-compatible chat API
// with image input.
type Categorizer struct {
	client llms.Model
	config *ai.Config
	logger *slog.Logger
}

// answer is the JSON object the model is asked to produce.
type answer struct {
	Categories []string `json:"categories"`
	NoPeople   bool     `json:"no_people"`
	Rationale  string   `json:"rationale"`
}

// newCategorizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newCategorizer(config *ai.Config, token string, httpClient *http.Client) (*Categorizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := []openai.Option{
		openai.WithBaseURL(config.Host),
		openai.WithToken(token),
		openai.WithModel(config.Model),
	}
	if httpClient != nil {
		opts = append(opts, openai.WithHTTPClient(httpClient))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}

	return &Categorizer{
		client: client,
		config: config,
		logger: slog.Default().With("component", "openai-categorizer"),
	}, nil
}

// NewCategorizer creates a categorizer authenticated with the given token.
//
// Returns ai.Categorizer interface to enforce abstraction.
func NewCategorizer(config *ai.Config, token string) (ai.Categorizer, error) {
	return newCategorizer(config, token, nil)
}

// Categorize sends the image and the taxonomy to the model and returns the
// categories it picked, restricted to the taxonomy.
func (c *Categorizer) Categorize(ctx context.Context, req ai.Request) (*core.Suggestion, error) {
	if req.Taxonomy == nil {
		return nil, ai.ErrNoTaxonomy
	}

	imageURL := req.URL
	if len(req.Image) > 0 {
		mime := req.MIMEType
		if mime == "" {
			mime = http.DetectContentType(req.Image)
		}
		imageURL = fetch.EncodeDataURL(req.Image, mime)
	}
	if imageURL == "" {
		return nil, fmt.Errorf("%w: request has no image", ai.ErrMalformedResponse)
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSystemPrompt(req.Taxonomy)),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildUserPrompt(req.Description)),
				llms.ImageURLContent{URL: imageURL, Detail: c.config.Detail},
			},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	// Try up to 3 times in case of malformed JSON
	var result answer
	var lastErr error
	for attempt := 0; attempt < maxParseAttempts; attempt++ {
		response, err := c.client.GenerateContent(ctx, content,
			llms.WithTemperature(c.config.Temperature),
			llms.WithMaxTokens(c.config.MaxTokens),
			llms.WithJSONMode(),
		)
		if err != nil {
			err = classifyError(err)
			c.logger.Error("failed to generate content", "attempt", attempt+1, "url", req.URL, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			lastErr = fmt.Errorf("%w: no choices returned", ai.ErrMalformedResponse)
			c.logger.Warn("no choices returned from model", "attempt", attempt+1)
			continue
		}

		result, err = parseAnswer(response.Choices[0].Content)
		if err != nil {
			lastErr = err
			c.logger.Warn("error parsing categorizer response",
				"attempt", attempt+1,
				"response", response.Choices[0].Content,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		c.logger.Error("failed to parse categorizer response after retries", "url", req.URL, "err", lastErr)
		return nil, lastErr
	}

	suggestion := toSuggestion(result, req)
	suggestion.Model = c.config.Model
	c.logger.Debug("categorized image",
		"url", req.URL,
		"returned", len(result.Categories),
		"kept", len(suggestion.Categories),
		"no_people", suggestion.NoPeople,
		"rationale", suggestion.Rationale)
	return suggestion, nil
}

// parseAnswer decodes a model answer. Objects are repaired before decoding;
// anything that is not an object is read as a comma-separated category list.
func parseAnswer(raw string) (answer, error) {
	text := stripFences(raw)
	if text == "" {
		return answer{}, fmt.Errorf("%w: empty answer", ai.ErrMalformedResponse)
	}

	if !strings.HasPrefix(text, "{") {
		var a answer
		for _, part := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\n' }) {
			if part = strings.TrimSpace(part); part != "" {
				a.Categories = append(a.Categories, part)
			}
		}
		return a, nil
	}

	var a answer
	if err := json.Unmarshal([]byte(repairJSON(text)), &a); err != nil {
		return answer{}, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}
	return a, nil
}

func toSuggestion(a answer, req ai.Request) *core.Suggestion {
	var paths []core.CategoryPath
	var dropped []string
	for _, raw := range a.Categories {
		p, ok := req.Taxonomy.Lookup(scrubCategory(raw))
		if !ok {
			dropped = append(dropped, raw)
			continue
		}
		if !slices.Contains(paths, p) {
			paths = append(paths, p)
		}
	}
	if len(dropped) > 0 {
		slog.Debug("dropped categories outside taxonomy", "url", req.URL, "dropped", dropped)
	}

	paths = core.CollapseParents(paths)
	noPeople := a.NoPeople || slices.Contains(paths, core.PathNoPeople)
	if noPeople && !slices.Contains(paths, core.PathNoPeople) && req.Taxonomy.Contains(core.PathNoPeople) {
		paths = append(paths, core.PathNoPeople)
	}
	return &core.Suggestion{
		Categories: paths,
		NoPeople:   noPeople,
		Rationale:  strings.TrimSpace(a.Rationale),
	}
}

// classifyError maps authentication failures onto ai.ErrInvalidCredential
// so callers can stop a run instead of retrying.
func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"),
		strings.Contains(msg, "invalid_api_key"),
		strings.Contains(msg, "incorrect api key"),
		strings.Contains(msg, "unauthorized"):
		return fmt.Errorf("%w: %w", ai.ErrInvalidCredential, err)
	}
	return err
}
