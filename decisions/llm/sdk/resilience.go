// Copyright 2025 AxonFlow
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

// Package sdk provides the resilience layer around individual provider calls:
// per-attempt timeouts, bounded retries, latency measurement, and the mapping
// of internal failures to a closed set of user-safe categories.
package sdk

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/Yanis958/GarageOS-sub001/decisions/llm"
)

const (
	// DefaultTimeout is the hard per-attempt timeout for a provider call.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of additional attempts after the first
	// failure. Attempts are already bounded by the timeout, so no backoff
	// delay is inserted between them.
	DefaultMaxRetries = 1
)

// AttemptConfig configures one resilient call.
type AttemptConfig struct {
	// Timeout is the per-attempt timeout. Zero means DefaultTimeout.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts after the first failure.
	// Negative means DefaultMaxRetries.
	MaxRetries int
}

// AttemptResult carries the outcome of a resilient call together with the
// wall-clock latency from first attempt start to final resolution.
type AttemptResult[T any] struct {
	Value   T
	Latency time.Duration
}

// Attempt runs fn with a per-attempt timeout and bounded retries.
// Every failure, including a timeout, consumes one attempt; the whole fn is
// re-run on retry. Latency always covers all attempts, successful or not.
func Attempt[T any](ctx context.Context, cfg AttemptConfig, fn func(context.Context) (T, error)) (AttemptResult[T], error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}

	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		value, err := fn(attemptCtx)
		cancel()

		if err == nil {
			return AttemptResult[T]{Value: value, Latency: time.Since(start)}, nil
		}
		lastErr = err

		// A cancelled parent context is not worth retrying.
		if ctx.Err() != nil {
			break
		}
	}

	var zero T
	return AttemptResult[T]{Value: zero, Latency: time.Since(start)}, lastErr
}

// Category is a closed, user-safe classification of an internal failure.
// Raw provider errors never cross this boundary.
type Category string

const (
	CategoryNetwork      Category = "network"
	CategoryTimeout      Category = "timeout"
	CategoryRateLimited  Category = "rate_limited"
	CategoryUnauthorized Category = "unauthorized"
	CategoryUnknown      Category = "unknown"
)

// Message returns the fixed human-readable message for the category.
// These strings are the only failure text ever shown to callers.
func (c Category) Message() string {
	switch c {
	case CategoryNetwork:
		return "connection to the generation service failed"
	case CategoryTimeout:
		return "the generation service took too long to respond"
	case CategoryRateLimited:
		return "the generation service is saturated, try again shortly"
	case CategoryUnauthorized:
		return "the generation service refused the configured credentials"
	default:
		return "the generation service returned an unexpected error"
	}
}

// Classify maps an internal error to its user-safe category.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}

	var provErr *llm.ProviderError
	if errors.As(err, &provErr) {
		switch provErr.Code {
		case llm.ErrCodeRateLimit:
			return CategoryRateLimited
		case llm.ErrCodeAuth:
			return CategoryUnauthorized
		case llm.ErrCodeTimeout:
			return CategoryTimeout
		case llm.ErrCodeNetwork, llm.ErrCodeServerError:
			return CategoryNetwork
		}
		return CategoryUnknown
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return CategoryRateLimited
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return CategoryUnauthorized
		case apiErr.StatusCode >= 500:
			return CategoryNetwork
		}
		switch apiErr.Type {
		case "rate_limit_error", "overloaded_error":
			return CategoryRateLimited
		case "authentication_error", "permission_error":
			return CategoryUnauthorized
		}
		return CategoryUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return CategoryTimeout
		}
		return CategoryNetwork
	}

	return CategoryUnknown
}

// APIError represents a provider API error with retry information.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsRetryable returns true if the error is worth another attempt.
func (e *APIError) IsRetryable() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}
	switch e.Type {
	case "rate_limit_error", "server_error", "overloaded_error":
		return true
	}
	return false
}
