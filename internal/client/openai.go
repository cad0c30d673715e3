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
	"sync"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"confab/internal/conversation"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultOpenAIURL   = "https://api.openai.com/v1"
)

// ChatCompleter abstracts the go-openai client so tests can inject a mock
// instead of making real API calls.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

var _ ChatCompleter = (*openai.Client)(nil)

// OpenAIClient drives an OpenAI-style chat completion endpoint. The system
// prompt travels inline in the message list.
type OpenAIClient struct {
	api    ChatCompleter
	conv   *conversation.Manager
	model  string
	apiKey string
	logger zerolog.Logger

	// mu serializes Chat/Ask/Reset so one client instance can be shared;
	// the owned conversation itself stays single-owner.
	mu sync.Mutex
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client with OpenAI defaults. The credential falls
// back to OPENAI_API_KEY, then CONFAB_API_KEY; a missing credential is not an
// error until the first call.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	apiKey := resolveAPIKey(cfg.APIKey, "OPENAI_API_KEY")

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.APIURL != "" {
		clientConfig.BaseURL = cfg.APIURL
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIClient{
		api:    openai.NewClientWithConfig(clientConfig),
		conv:   conversation.NewManager(cfg.conversationOptions()...),
		model:  model,
		apiKey: apiKey,
		logger: cfg.logger(),
	}
}

// NewOpenAIClientWith builds a client around an injected ChatCompleter.
func NewOpenAIClientWith(cfg Config, api ChatCompleter) *OpenAIClient {
	c := NewOpenAIClient(cfg)
	c.api = api
	return c
}

// Chat sends the prompt with the full conversation history and records the
// exchange. On failure the history is restored to its pre-call state, even
// when appending the prompt trimmed an older message out of the window, so
// history either gains a complete user/assistant pair or stays untouched.
func (c *OpenAIClient) Chat(ctx context.Context, text string, opts *Options) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.apiKey == "" {
		return "", &AuthError{Provider: "openai"}
	}
	snapshot := c.conv.Messages()
	if err := c.conv.AddMessage(conversation.RoleUser, text, nil); err != nil {
		return "", err
	}

	reply, err := c.complete(ctx, c.conv.APIMessages(), opts)
	if err != nil {
		c.conv.Restore(snapshot)
		return "", err
	}

	if err := c.conv.AddMessage(conversation.RoleAssistant, reply, nil); err != nil {
		return "", err
	}
	return reply, nil
}

// Ask sends the prompt with the current history appended to a temporary
// message list. The owned conversation is never mutated.
func (c *OpenAIClient) Ask(ctx context.Context, text string, opts *Options) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.apiKey == "" {
		return "", &AuthError{Provider: "openai"}
	}

	msgs := append(c.conv.APIMessages(), conversation.APIMessage{
		Role:    string(conversation.RoleUser),
		Content: text,
	})
	return c.complete(ctx, msgs, opts)
}

func (c *OpenAIClient) complete(ctx context.Context, msgs []conversation.APIMessage, opts *Options) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toOpenAIMessages(msgs),
	}
	if t := opts.temperature(); t != nil {
		req.Temperature = *t
	}
	if mt := opts.maxTokens(); mt != nil {
		req.MaxTokens = *mt
	}
	applyOpenAIExtras(&req, opts.extra())

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", wrapOpenAIError(err)
	}
	c.logger.Debug().
		Str("provider", "openai").
		Str("model", c.model).
		Int("messages", len(msgs)).
		Dur("duration", time.Since(start)).
		Msg("chat completion")

	if len(resp.Choices) == 0 {
		return "", &APIError{Provider: "openai", Err: errors.New("response contains no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

// Reset clears the owned conversation back to its seeded state.
func (c *OpenAIClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conv.Clear()
}

// History returns a snapshot of the owned conversation.
func (c *OpenAIClient) History() []conversation.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Messages()
}

// Conversation exposes the owned manager for persistence and inspection.
func (c *OpenAIClient) Conversation() *conversation.Manager {
	return c.conv
}

func toOpenAIMessages(msgs []conversation.APIMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, msg := range msgs {
		out[i] = openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	}
	return out
}

// applyOpenAIExtras maps known free-form options onto the typed request. The
// go-openai request struct cannot carry arbitrary fields, so only recognized
// keys take effect.
func applyOpenAIExtras(req *openai.ChatCompletionRequest, extra map[string]any) {
	for key, value := range extra {
		switch key {
		case "top_p":
			if v, ok := toFloat32(value); ok {
				req.TopP = v
			}
		case "presence_penalty":
			if v, ok := toFloat32(value); ok {
				req.PresencePenalty = v
			}
		case "frequency_penalty":
			if v, ok := toFloat32(value); ok {
				req.FrequencyPenalty = v
			}
		case "stop":
			if v, ok := value.([]string); ok {
				req.Stop = v
			}
		case "user":
			if v, ok := value.(string); ok {
				req.User = v
			}
		}
	}
}

func toFloat32(v any) (float32, bool) {
	switch n := v.(type) {
	case float32:
		return n, true
	case float64:
		return float32(n), true
	case int:
		return float32(n), true
	}
	return 0, false
}

func wrapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			Provider:   "openai",
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
			Err:        err,
		}
	}
	return &APIError{Provider: "openai", Err: err}
}
