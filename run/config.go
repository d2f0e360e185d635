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
	"fmt"
	"time"
)

const (
	// MinBatchSize and MaxBatchSize bound Config.BatchSize.
	MinBatchSize = 1
	MaxBatchSize = 20
)

// Config holds tuning for a run.
type Config struct {
	// BatchSize is the number of images dispatched between progress updates
	BatchSize int

	// ReportInterval is how often to report progress (number of images)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for a failed AI call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// RateLimitDelay is the pause after each image sent to the AI service
	RateLimitDelay time.Duration

	// APITimeout bounds a single AI call
	APITimeout time.Duration

	// PreviewMaxDim is the longest edge of the preview sent to the AI service
	PreviewMaxDim uint

	// ResetWait is how long Reset waits for an active run to stop
	ResetWait time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      5,
		ReportInterval: 1,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		RateLimitDelay: 1 * time.Second,
		APITimeout:     30 * time.Second,
		PreviewMaxDim:  1024,
		ResetWait:      1 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BatchSize < MinBatchSize || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("%w: got %d", ErrInvalidBatchSize, c.BatchSize)
	}
	if c.MaxRetries <= 0 {
		return ErrInvalidMaxAttempts
	}
	if c.RetryDelay < 0 || c.RateLimitDelay < 0 {
		return fmt.Errorf("run config: delays must not be negative")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("run config: API timeout must be positive")
	}
	if c.PreviewMaxDim == 0 {
		return fmt.Errorf("run config: preview size must be positive")
	}
	return nil
}
