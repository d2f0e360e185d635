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


package core

import (
	"fmt"
	"strings"
)

// ValidateSelection validates a manual category selection.
//
// Validation rules:
//   - Paths must not be blank
//   - Paths must be known to the taxonomy (when known is non-nil)
//   - At most one path per exclusive people subgroup (age, ethnicity)
func ValidateSelection(paths []CategoryPath, known func(CategoryPath) bool) error {
	seen := make(map[Subfamily]CategoryPath)
	for _, p := range paths {
		if strings.TrimSpace(string(p)) == "" {
			return fmt.Errorf("%w: %w", ErrInvalidCategory, ErrEmptyCategory)
		}
		if known != nil && !known(p) {
			return fmt.Errorf("%w: %w: %q", ErrInvalidCategory, ErrUnknownCategory, p)
		}
		sub := p.Subfamily()
		if !sub.Exclusive() {
			continue
		}
		if prev, ok := seen[sub]; ok && prev != p {
			return fmt.Errorf("%w: %w: %s has %q and %q", ErrInvalidCategory, ErrExclusiveConflict, sub, prev, p)
		}
		seen[sub] = p
	}
	return nil
}

// ValidateCheckpoint validates a Checkpoint before it is persisted.
func ValidateCheckpoint(cp *Checkpoint) error {
	if cp == nil {
		return fmt.Errorf("%w: checkpoint is nil", ErrInvalidCheckpoint)
	}
	if cp.InputPath == "" {
		return fmt.Errorf("%w: input path is required", ErrInvalidCheckpoint)
	}
	if cp.NextRow < 0 || cp.TotalRows < 0 {
		return fmt.Errorf("%w: negative row counters", ErrInvalidCheckpoint)
	}
	return nil
}
