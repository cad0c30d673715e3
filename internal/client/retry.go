// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package client

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// RetryPolicy configures the optional backoff helper. Chat and Ask never
// retry on their own; retrying is caller policy.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// DefaultRetryPolicy retries twice after the first failure, starting at
// half a second and doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: 500 * time.Millisecond}
}

// ChatWithRetry calls c.Chat, retrying transient API failures with
// exponential backoff. Auth and validation failures are never retried.
// History semantics are unchanged: each failed attempt rolls back its own
// user message inside Chat.
func ChatWithRetry(ctx context.Context, c Client, text string, opts *Options, policy RetryPolicy) (string, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	delay := policy.InitialDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		reply, err := c.Chat(ctx, text, opts)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !retryable(err) {
			return "", err
		}
		if attempt == policy.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return "", lastErr
}

// retryable reports whether an error is worth another attempt: rate limits,
// server-side failures, and transport errors. Client-side errors are final.
func retryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == 0 {
		// Transport failure with no HTTP status.
		return true
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
}
