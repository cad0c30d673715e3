package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"confab/internal/conversation"
)

// scriptedClient plays back a sequence of errors before succeeding.
type scriptedClient struct {
	errs  []error
	calls int
	reply string
}

func (s *scriptedClient) Chat(context.Context, string, *Options) (string, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}
	return s.reply, nil
}

func (s *scriptedClient) Ask(ctx context.Context, text string, opts *Options) (string, error) {
	return s.Chat(ctx, text, opts)
}

func (s *scriptedClient) Reset()                              {}
func (s *scriptedClient) History() []conversation.Message     { return nil }
func (s *scriptedClient) Conversation() *conversation.Manager { return nil }

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, InitialDelay: time.Millisecond}
}

func TestChatWithRetryRecoversFromTransientFailure(t *testing.T) {
	c := &scriptedClient{
		errs: []error{
			&APIError{Provider: "openai", StatusCode: http.StatusInternalServerError},
			&APIError{Provider: "openai", StatusCode: http.StatusTooManyRequests},
		},
		reply: "ok",
	}

	reply, err := ChatWithRetry(context.Background(), c, "hi", nil, fastPolicy(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "ok" {
		t.Fatalf("expected reply ok, got %q", reply)
	}
	if c.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", c.calls)
	}
}

func TestChatWithRetryStopsOnAuthError(t *testing.T) {
	c := &scriptedClient{errs: []error{&AuthError{Provider: "openai"}}, reply: "ok"}

	_, err := ChatWithRetry(context.Background(), c, "hi", nil, fastPolicy(3))
	if err == nil {
		t.Fatal("expected auth error to propagate")
	}
	if c.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", c.calls)
	}
}

func TestChatWithRetryDoesNotRetryClientErrors(t *testing.T) {
	c := &scriptedClient{
		errs:  []error{&APIError{Provider: "claude", StatusCode: http.StatusBadRequest}},
		reply: "ok",
	}

	_, err := ChatWithRetry(context.Background(), c, "hi", nil, fastPolicy(3))
	if err == nil {
		t.Fatal("expected client error to propagate")
	}
	if c.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", c.calls)
	}
}

func TestChatWithRetryExhaustsAttempts(t *testing.T) {
	failure := &APIError{Provider: "openai", StatusCode: http.StatusServiceUnavailable}
	c := &scriptedClient{errs: []error{failure, failure, failure}, reply: "ok"}

	_, err := ChatWithRetry(context.Background(), c, "hi", nil, fastPolicy(3))
	if err == nil {
		t.Fatal("expected final failure after exhausting attempts")
	}
	if c.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", c.calls)
	}
}

func TestChatWithRetryHonorsContextCancellation(t *testing.T) {
	failure := &APIError{Provider: "openai", StatusCode: http.StatusInternalServerError}
	c := &scriptedClient{errs: []error{failure, failure, failure}, reply: "ok"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ChatWithRetry(ctx, c, "hi", nil, RetryPolicy{MaxAttempts: 3, InitialDelay: time.Hour})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if c.calls != 1 {
		t.Fatalf("expected backoff to abort after first attempt, got %d calls", c.calls)
	}
}
