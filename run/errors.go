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

import "errors"

var (
	// ErrRunInProgress indicates that a run is already active.
	ErrRunInProgress = errors.New("a run is already in progress")

	// ErrInvalidBatchSize indicates a batch size outside 1..MaxBatchSize.
	ErrInvalidBatchSize = errors.New("batch size must be between 1 and 20")

	// ErrInvalidMaxAttempts indicates a retry policy with no attempts.
	ErrInvalidMaxAttempts = errors.New("max retries must be greater than 0")

	// ErrInvalidMode indicates an unknown AI mode.
	ErrInvalidMode = errors.New("invalid AI mode")

	// ErrNoProvider indicates a live run without a configured AI provider.
	ErrNoProvider = errors.New("no AI provider configured")

	// ErrInputRequired indicates a job without an input file.
	ErrInputRequired = errors.New("input file is required")

	// ErrTaxonomyRequired indicates a runner created without a taxonomy.
	ErrTaxonomyRequired = errors.New("taxonomy is required")
)
