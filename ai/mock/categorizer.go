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

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/poiesic/imagecat/ai"
	"github.com/poiesic/imagecat/core"
	"github.com/poiesic/imagecat/taxonomy"
)

// MockCategorizer is a test double for ai.Categorizer.
// It is safe for concurrent use.
type MockCategorizer struct {
	// CategorizeFunc is called by Categorize if set.
	// If nil, uses default deterministic behavior.
	CategorizeFunc func(ctx context.Context, req ai.Request) (*core.Suggestion, error)

	mu        sync.Mutex
	callCount int
	urls      []string
}

// NewMockCategorizer creates a mock categorizer with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockCategorizer().
func NewMockCategorizer() *MockCategorizer {
	return &MockCategorizer{}
}

// Categorize returns a suggestion derived from a hash of the request URL, so
// the same URL always yields the same categories.
func (m *MockCategorizer) Categorize(ctx context.Context, req ai.Request) (*core.Suggestion, error) {
	m.mu.Lock()
	m.callCount++
	m.urls = append(m.urls, req.URL)
	fn := m.CategorizeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tax := req.Taxonomy
	if tax == nil {
		tax = taxonomy.Default()
	}
	return deterministicSuggestion(req.URL, tax), nil
}

func deterministicSuggestion(url string, tax *taxonomy.Taxonomy) *core.Suggestion {
	h := fnv.New64a()
	h.Write([]byte(url))
	sum := h.Sum64()

	pick := func(paths []core.CategoryPath, shift uint) (core.CategoryPath, bool) {
		if len(paths) == 0 {
			return "", false
		}
		return paths[int((sum>>shift)%uint64(len(paths)))], true
	}

	s := &core.Suggestion{Rationale: "mock suggestion", Model: "mock"}
	add := func(p core.CategoryPath, ok bool) {
		if ok {
			s.Categories = append(s.Categories, p)
		}
	}

	add(pick(tax.Family(core.FamilyMain), 0))
	add(pick(tax.Family(core.FamilyColors), 8))
	add(pick(tax.Family(core.FamilyColors), 16))

	groups := tax.Groups()
	if (sum>>24)%3 == 0 {
		s.NoPeople = true
		add(core.PathNoPeople, tax.Contains(core.PathNoPeople))
	} else {
		add(pick(groups.PeopleAge, 28))
		add(pick(groups.PeopleEthnicity, 32))
		add(pick(groups.PeopleCount, 36))
	}
	if (sum>>40)%4 == 0 {
		add(pick(groups.Mockups, 44))
	}
	if (sum>>48)%3 > 0 {
		add(pick(groups.CopySpace, 52))
	}
	return s
}

// CallCount returns the number of times Categorize was called.
func (m *MockCategorizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// URLs returns the request URLs seen so far, in call order.
func (m *MockCategorizer) URLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urls...)
}

// Reset clears the call count and custom functions.
func (m *MockCategorizer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.urls = nil
	m.CategorizeFunc = nil
}
