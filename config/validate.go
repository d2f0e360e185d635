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


package config

import (
	"errors"
	"fmt"

	"github.com/poiesic/imagecat/run"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAI(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAI() error {
	if c.AI.MaxTokens <= 0 {
		return errors.New("ai.max_tokens must be positive")
	}
	if c.AI.TimeoutSeconds <= 0 {
		return errors.New("ai.timeout_seconds must be positive")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return errors.New("ai.temperature must be between 0 and 2")
	}
	switch c.AI.Detail {
	case "low", "high", "auto":
	default:
		return fmt.Errorf("ai.detail: unsupported value %q", c.AI.Detail)
	}
	return nil
}

func (c *Config) validateProcessing() error {
	p := c.Processing
	if p.BatchSize < run.MinBatchSize || p.BatchSize > run.MaxBatchSize {
		return fmt.Errorf("processing.batch_size must be between %d and %d", run.MinBatchSize, run.MaxBatchSize)
	}
	if p.StartRow < 0 {
		return errors.New("processing.start_row must not be negative")
	}
	if p.MaxRetries <= 0 {
		return errors.New("processing.max_retries must be positive")
	}
	if p.RetryDelaySeconds < 0 || p.RateLimitDelay < 0 {
		return errors.New("processing delays must not be negative")
	}
	if p.APITimeout <= 0 {
		return errors.New("processing.api_timeout must be positive")
	}
	if p.PreviewMaxDimension <= 0 {
		return errors.New("processing.preview_max_dimension must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
