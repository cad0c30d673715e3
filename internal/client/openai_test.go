package client

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"confab/internal/conversation"
)

// mockCompleter records the last request and plays back a canned response.
type mockCompleter struct {
	lastReq openai.ChatCompletionRequest
	reply   string
	err     error
	calls   int
}

func (m *mockCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.reply}},
		},
	}, nil
}

func clearKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("CONFAB_API_KEY", "")
}

func TestOpenAIChatRecordsExchange(t *testing.T) {
	mock := &mockCompleter{reply: "four"}
	c := NewOpenAIClientWith(Config{APIKey: "test-key", SystemPrompt: "S"}, mock)

	reply, err := c.Chat(context.Background(), "what is 2+2?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "four" {
		t.Fatalf("expected reply four, got %q", reply)
	}

	history := c.History()
	if len(history) != 3 {
		t.Fatalf("expected system+user+assistant, got %d messages", len(history))
	}
	if history[1].Role != conversation.RoleUser || history[1].Content != "what is 2+2?" {
		t.Fatalf("expected user message recorded, got %s %q", history[1].Role, history[1].Content)
	}
	if history[2].Role != conversation.RoleAssistant || history[2].Content != "four" {
		t.Fatalf("expected assistant message recorded, got %s %q", history[2].Role, history[2].Content)
	}
}

func TestOpenAIChatPayloadIncludesSystemMessage(t *testing.T) {
	mock := &mockCompleter{reply: "ok"}
	c := NewOpenAIClientWith(Config{APIKey: "test-key", SystemPrompt: "be brief"}, mock)

	if _, err := c.Chat(context.Background(), "hi", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := mock.lastReq.Messages
	if len(msgs) != 2 {
		t.Fatalf("expected system+user in payload, got %d", len(msgs))
	}
	if msgs[0].Role != openai.ChatMessageRoleSystem || msgs[0].Content != "be brief" {
		t.Fatalf("expected inline system message, got %s %q", msgs[0].Role, msgs[0].Content)
	}
}

func TestOpenAIChatRollsBackOnFailure(t *testing.T) {
	mock := &mockCompleter{err: errors.New("boom")}
	c := NewOpenAIClientWith(Config{APIKey: "test-key", SystemPrompt: "S"}, mock)

	_, err := c.Chat(context.Background(), "hi", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}

	history := c.History()
	if len(history) != 1 || history[0].Role != conversation.RoleSystem {
		t.Fatalf("expected history rolled back to system message only, got %d messages", len(history))
	}
}

func TestOpenAIChatRollbackRestoresTrimmedMessage(t *testing.T) {
	mock := &mockCompleter{err: errors.New("boom")}
	c := NewOpenAIClientWith(Config{APIKey: "test-key", MaxHistory: 3}, mock)

	conv := c.Conversation()
	for _, content := range []string{"m1", "m2", "m3"} {
		if err := conv.AddMessage(conversation.RoleUser, content, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// The window is full: appending the prompt evicts m1 before the call
	// fails. Rollback must bring m1 back, not just drop the prompt.
	if _, err := c.Chat(context.Background(), "m4", nil); err == nil {
		t.Fatal("expected error")
	}

	history := c.History()
	if len(history) != 3 {
		t.Fatalf("expected 3 messages after failed call, got %d", len(history))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if history[i].Content != want {
			t.Fatalf("expected message %d to be %q, got %q", i, want, history[i].Content)
		}
	}
}

func TestOpenAIAskDoesNotMutateHistory(t *testing.T) {
	mock := &mockCompleter{reply: "ok"}
	c := NewOpenAIClientWith(Config{APIKey: "test-key"}, mock)

	reply, err := c.Ask(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "ok" {
		t.Fatalf("expected reply ok, got %q", reply)
	}
	if len(c.History()) != 0 {
		t.Fatalf("expected history untouched by Ask, got %d messages", len(c.History()))
	}
	if len(mock.lastReq.Messages) != 1 || mock.lastReq.Messages[0].Content != "hi" {
		t.Fatalf("expected temporary user message in payload, got %+v", mock.lastReq.Messages)
	}
}

func TestOpenAIAuthErrorBeforeNetwork(t *testing.T) {
	clearKeyEnv(t)
	mock := &mockCompleter{reply: "ok"}
	c := NewOpenAIClientWith(Config{}, mock)

	_, err := c.Chat(context.Background(), "hi", nil)
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %v", err)
	}
	if mock.calls != 0 {
		t.Fatalf("expected no network attempt, got %d calls", mock.calls)
	}
	if len(c.History()) != 0 {
		t.Fatalf("expected history untouched, got %d messages", len(c.History()))
	}
}

// emptyChoicesCompleter returns a success response with no choices.
type emptyChoicesCompleter struct{}

func (emptyChoicesCompleter) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, nil
}

func TestOpenAIEmptyChoices(t *testing.T) {
	c := NewOpenAIClientWith(Config{APIKey: "test-key"}, emptyChoicesCompleter{})
	_, err := c.Chat(context.Background(), "hi", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError for empty choices, got %v", err)
	}
	if len(c.History()) != 0 {
		t.Fatalf("expected rollback on missing reply, got %d messages", len(c.History()))
	}
}

func TestOpenAIOptionsApplied(t *testing.T) {
	mock := &mockCompleter{reply: "ok"}
	c := NewOpenAIClientWith(Config{APIKey: "test-key", Model: "gpt-4o"}, mock)

	temp := float32(0.2)
	maxTokens := 64
	opts := &Options{
		Temperature: &temp,
		MaxTokens:   &maxTokens,
		Extra:       map[string]any{"top_p": 0.9, "user": "tester"},
	}
	if _, err := c.Chat(context.Background(), "hi", opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := mock.lastReq
	if req.Model != "gpt-4o" {
		t.Errorf("expected model override, got %q", req.Model)
	}
	if req.Temperature != temp {
		t.Errorf("expected temperature %v, got %v", temp, req.Temperature)
	}
	if req.MaxTokens != maxTokens {
		t.Errorf("expected max tokens %d, got %d", maxTokens, req.MaxTokens)
	}
	if req.TopP != float32(0.9) {
		t.Errorf("expected top_p applied, got %v", req.TopP)
	}
	if req.User != "tester" {
		t.Errorf("expected user applied, got %q", req.User)
	}
}

func TestOpenAIResetKeepsSystemPrompt(t *testing.T) {
	mock := &mockCompleter{reply: "ok"}
	c := NewOpenAIClientWith(Config{APIKey: "test-key", SystemPrompt: "S"}, mock)

	if _, err := c.Chat(context.Background(), "hi", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Reset()

	history := c.History()
	if len(history) != 1 || history[0].Role != conversation.RoleSystem {
		t.Fatalf("expected reset to the seeded system message, got %d messages", len(history))
	}
}

func TestWrapOpenAIError(t *testing.T) {
	wrapped := wrapOpenAIError(&openai.APIError{HTTPStatusCode: 429, Message: "slow down"})
	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Fatalf("expected *APIError, got %T", wrapped)
	}
	if apiErr.StatusCode != 429 {
		t.Fatalf("expected status 429, got %d", apiErr.StatusCode)
	}
	if apiErr.Body != "slow down" {
		t.Fatalf("expected remote message carried, got %q", apiErr.Body)
	}
}
