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


// Package mock provides a deterministic categorizer for tests and mock mode.
//
// The default MockCategorizer hashes the image URL and picks categories from
// each family of the request's taxonomy, so repeated runs over the same input
// produce identical output without network access. Tests can replace the
// behavior through CategorizeFunc:
//
//	mockCat := mock.NewMockCategorizer()
//	mockCat.CategorizeFunc = func(ctx context.Context, req ai.Request) (*core.Suggestion, error) {
//	    return nil, ai.ErrInvalidCredential
//	}
//
//	// Check call counts
//	count := mockCat.CallCount()
package mock
