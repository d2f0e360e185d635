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

import "errors"

// Domain validation errors
var (
	// ErrInvalidCategory indicates a category selection failed validation.
	ErrInvalidCategory = errors.New("invalid category selection")

	// ErrEmptyCategory indicates a blank category path.
	ErrEmptyCategory = errors.New("category path cannot be empty")

	// ErrUnknownCategory indicates a path that is not part of the loaded taxonomy.
	ErrUnknownCategory = errors.New("category not in taxonomy")

	// ErrExclusiveConflict indicates more than one path in an exclusive people subgroup.
	ErrExclusiveConflict = errors.New("more than one category selected in exclusive group")

	// ErrInvalidCheckpoint indicates a Checkpoint failed validation.
	ErrInvalidCheckpoint = errors.New("invalid checkpoint")
)
