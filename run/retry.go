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
	"context"
	"errors"
	"log/slog"
	"time"
)

// maxRetryDelay caps the wait between vision calls.
const maxRetryDelay = 30 * time.Second

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Retry returns the wrapped
// error immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryPolicy bounds how an operation is retried.
type RetryPolicy struct {
	Attempts  int           // total tries, at least 1
	BaseDelay time.Duration // wait before the second try, doubled after each failure
	MaxDelay  time.Duration // cap on the wait; zero means uncapped
	Timeout   time.Duration // deadline for each try; zero means none
}

// policy returns the retry policy for vision calls.
func (c *Config) policy() RetryPolicy {
	return RetryPolicy{
		Attempts:  c.MaxRetries,
		BaseDelay: c.RetryDelay,
		MaxDelay:  maxRetryDelay,
		Timeout:   c.APITimeout,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Retry runs op until it succeeds, returns a Permanent error, the attempts
// run out or ctx ends. Each try gets its own deadline when Timeout is set;
// a try that times out is retried. The last error is returned.
func Retry(ctx context.Context, p RetryPolicy, op func(ctx context.Context) error) error {
	if p.Attempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := p.try(ctx, op)
		if err == nil {
			if attempt > 1 {
				slog.Debug("succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt >= p.Attempts {
			return err
		}

		delay := p.Delay(attempt)
		slog.Debug("attempt failed, retrying", "attempt", attempt, "maxAttempts", p.Attempts, "delay", delay, "err", err)
		if !sleep(ctx, delay) {
			return ctx.Err()
		}
	}
}

func (p RetryPolicy) try(ctx context.Context, op func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return op(attemptCtx)
}
