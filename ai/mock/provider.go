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

package mock

import "github.com/poiesic/imagecat/ai"

// MockProvider is a test double for ai.Provider.
type MockProvider struct {
	categorizer *MockCategorizer
}

// NewMockProvider creates a new mock provider with a default mock categorizer.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockCategorizer() to access the concrete type for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		categorizer: NewMockCategorizer(),
	}
}

// NewMockProviderWithCategorizer creates a mock provider around a custom categorizer.
func NewMockProviderWithCategorizer(categorizer *MockCategorizer) ai.Provider {
	return &MockProvider{
		categorizer: categorizer,
	}
}

// Categorizer returns the mock categorizer.
func (p *MockProvider) Categorizer() ai.Categorizer {
	return p.categorizer
}

// Model returns "mock".
func (p *MockProvider) Model() string {
	return "mock"
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockCategorizer returns the underlying mock categorizer for test assertions.
func (p *MockProvider) GetMockCategorizer() *MockCategorizer {
	return p.categorizer
}
