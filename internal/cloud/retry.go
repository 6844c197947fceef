// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// RetryPolicy retries a call with exponential backoff and jitter.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxJitter    time.Duration
	// Retryable decides whether an error deserves another attempt. Nil
	// means model.IsRetryable.
	Retryable func(error) bool
	// OnRetry is called before each wait, with the attempt that just failed.
	OnRetry func(ctx context.Context, attempt int, err error)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, InitialDelay: time.Second, MaxJitter: time.Second}
}

// NewRetryPolicy builds a policy from configuration, falling back to the
// defaults for unset values.
func NewRetryPolicy(cfg RetryConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialDelayMs >= 0 {
		p.InitialDelay = time.Duration(cfg.InitialDelayMs) * time.Millisecond
	}
	if cfg.MaxJitterMs >= 0 {
		p.MaxJitter = time.Duration(cfg.MaxJitterMs) * time.Millisecond
	}
	return p
}

// Backoff is the wait after the given zero based attempt:
// InitialDelay * 2^attempt plus up to MaxJitter.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.InitialDelay << min(attempt, 30)
	if p.MaxJitter > 0 {
		delay += rand.N(p.MaxJitter)
	}
	return delay
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return model.IsRetryable(err)
}

// Do runs fn until it succeeds, returns a non retryable error, or the
// attempts run out. A cancelled context stops the loop and returns the last
// error from fn.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return err
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if !p.retryable(err) || attempt == attempts-1 {
			return err
		}
		if p.OnRetry != nil {
			p.OnRetry(ctx, attempt+1, err)
		}
		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

// Retry is Do for calls that return a value.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err == nil {
			out = v
		}
		return err
	})
	return out, err
}
