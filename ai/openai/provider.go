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
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/imagecat/ai"
)

// Provider implements ai.Provider using an OpenAI-compatible service.
type Provider struct {
	config      *ai.Config
	categorizer *Categorizer
	logger      *slog.Logger
}

// ProviderOption customizes provider construction.
type ProviderOption func(*providerOptions)

type providerOptions struct {
	httpClient *http.Client
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(o *providerOptions) {
		o.httpClient = c
	}
}

// NewProvider creates a provider. The credential is resolved once, here, so
// a missing key fails before any image is processed. Self-hosted endpoints
// that do not need a key get the placeholder token "none".
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(ctx context.Context, config *ai.Config, creds ai.CredentialSource, opts ...ProviderOption) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var o providerOptions
	for _, opt := range opts {
		opt(&o)
	}

	logger := slog.Default().With("component", "openai-provider")

	if creds == nil {
		creds = ai.EnvCredential()
	}
	token, err := creds.Credential(ctx)
	if err != nil {
		if !errors.Is(err, ai.ErrMissingCredential) || requiresKey(config.Host) {
			return nil, err
		}
		logger.Debug("no credential configured, using placeholder token", "host", config.Host)
		token = "none"
	}

	categorizer, err := newCategorizer(config, token, o.httpClient)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:      config,
		categorizer: categorizer,
		logger:      logger,
	}, nil
}

func requiresKey(host string) bool {
	return strings.Contains(host, "api.openai.com")
}

// Categorizer returns the image categorization service.
func (p *Provider) Categorizer() ai.Categorizer {
	return p.categorizer
}

// Model returns the configured model identifier.
func (p *Provider) Model() string {
	return p.config.Model
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying client doesn't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
