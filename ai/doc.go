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


// Package ai provides abstractions for the vision service used to categorize
// catalog images.
//
// The package defines the Categorizer and Provider interfaces, the request
// type passed to them, credential sources, and the error taxonomy callers use
// to tell per-image failures from configuration failures.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible chat APIs with image input
//   - ai/mock: Deterministic stub used for mock mode and unit tests
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewCategorizer) return
// INTERFACE types to prevent coupling to a concrete implementation.
//
//	provider, err := openai.NewProvider(config, ai.EnvCredential())  // returns ai.Provider
//
// Test utility constructors (mock.NewMockCategorizer) return CONCRETE types
// so tests can inject behavior and assert on call counts.
//
//	mockCat := mock.NewMockCategorizer()       // returns *mock.MockCategorizer
//	mockCat.CategorizeFunc = ...               // needs concrete type
//	count := mockCat.CallCount()               // test assertion
//
// # Errors
//
// A categorization error wrapping ErrMissingCredential or ErrInvalidCredential
// (see IsConfigError) aborts a run. Every other error is a per-image failure:
// the image falls back to the manual selection and processing continues.
//
// # People Details
//
// InferPeople supplements a suggestion that reports people with age,
// ethnicity and head-count paths derived from the row's description text.
package ai
