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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"confab/internal/conversation"
)

const (
	defaultClaudeModel      = "claude-3-5-sonnet-20241022"
	defaultClaudeURL        = "https://api.anthropic.com/v1/messages"
	defaultClaudeAPIVersion = "2023-06-01"

	// The Messages API requires max_tokens on every request.
	defaultClaudeMaxTokens = 1024
)

// claudeRequest is the Messages API payload. The system prompt is a
// top-level field; the message list never carries a system role.
type claudeRequest struct {
	Model       string                    `json:"model"`
	Messages    []conversation.APIMessage `json:"messages"`
	MaxTokens   int                       `json:"max_tokens"`
	System      string                    `json:"system,omitempty"`
	Temperature *float32                  `json:"temperature,omitempty"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ClaudeClient drives the Anthropic Messages endpoint over plain HTTP.
type ClaudeClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	apiVersion string
	model      string
	conv       *conversation.Manager
	logger     zerolog.Logger

	mu sync.Mutex
}

var _ Client = (*ClaudeClient)(nil)

// NewClaudeClient builds a client with Anthropic defaults. The credential
// falls back to ANTHROPIC_API_KEY, then CONFAB_API_KEY; a missing credential
// is not an error until the first call.
func NewClaudeClient(cfg Config) *ClaudeClient {
	endpoint := cfg.APIURL
	if endpoint == "" {
		endpoint = defaultClaudeURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultClaudeModel
	}
	version := cfg.APIVersion
	if version == "" {
		version = defaultClaudeAPIVersion
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &ClaudeClient{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiKey:     resolveAPIKey(cfg.APIKey, "ANTHROPIC_API_KEY"),
		apiVersion: version,
		model:      model,
		conv:       conversation.NewManager(cfg.conversationOptions()...),
		logger:     cfg.logger(),
	}
}

// Chat sends the prompt with the full conversation history and records the
// exchange. On failure the history is restored to its pre-call state, even
// when appending the prompt trimmed an older message out of the window, so
// history either gains a complete user/assistant pair or stays untouched.
func (c *ClaudeClient) Chat(ctx context.Context, text string, opts *Options) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.apiKey == "" {
		return "", &AuthError{Provider: "claude"}
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
func (c *ClaudeClient) Ask(ctx context.Context, text string, opts *Options) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.apiKey == "" {
		return "", &AuthError{Provider: "claude"}
	}

	msgs := append(c.conv.APIMessages(), conversation.APIMessage{
		Role:    string(conversation.RoleUser),
		Content: text,
	})
	return c.complete(ctx, msgs, opts)
}

func (c *ClaudeClient) complete(ctx context.Context, msgs []conversation.APIMessage, opts *Options) (string, error) {
	body, err := c.buildPayload(msgs, opts)
	if err != nil {
		return "", &APIError{Provider: "claude", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &APIError{Provider: "claude", Err: err}
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.apiVersion)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &APIError{Provider: "claude", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APIError{Provider: "claude", StatusCode: resp.StatusCode, Err: err}
	}
	c.logger.Debug().
		Str("provider", "claude").
		Str("model", c.model).
		Int("messages", len(msgs)).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("messages completion")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", claudeError(resp.StatusCode, respBody)
	}

	var success claudeResponse
	if err := json.Unmarshal(respBody, &success); err != nil {
		return "", &APIError{Provider: "claude", StatusCode: resp.StatusCode, Body: string(respBody), Err: err}
	}
	for _, block := range success.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", &APIError{
		Provider:   "claude",
		StatusCode: resp.StatusCode,
		Body:       string(respBody),
		Err:        errors.New("response missing text content"),
	}
}

// buildPayload projects the message list into the Messages API shape:
// system roles are filtered out of the list and the seeded system prompt is
// attached as the top-level system field. Extra options merge into the top
// level of the request.
func (c *ClaudeClient) buildPayload(msgs []conversation.APIMessage, opts *Options) ([]byte, error) {
	filtered := make([]conversation.APIMessage, 0, len(msgs))
	for _, msg := range msgs {
		if conversation.Role(msg.Role) == conversation.RoleSystem {
			continue
		}
		filtered = append(filtered, msg)
	}

	req := claudeRequest{
		Model:       c.model,
		Messages:    filtered,
		MaxTokens:   defaultClaudeMaxTokens,
		System:      c.conv.SystemPrompt(),
		Temperature: opts.temperature(),
	}
	if mt := opts.maxTokens(); mt != nil {
		req.MaxTokens = *mt
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	extra := opts.extra()
	if len(extra) == 0 {
		return body, nil
	}
	var merged map[string]any
	if err := json.Unmarshal(body, &merged); err != nil {
		return nil, err
	}
	for k, v := range extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Reset clears the owned conversation back to its seeded state.
func (c *ClaudeClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conv.Clear()
}

// History returns a snapshot of the owned conversation.
func (c *ClaudeClient) History() []conversation.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Messages()
}

// Conversation exposes the owned manager for persistence and inspection.
func (c *ClaudeClient) Conversation() *conversation.Manager {
	return c.conv
}

func claudeError(status int, body []byte) error {
	var errResp claudeErrorResponse
	msg := ""
	if err := json.Unmarshal(body, &errResp); err == nil {
		msg = errResp.Error.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("unexpected status %d", status)
	}
	return &APIError{
		Provider:   "claude",
		StatusCode: status,
		Body:       string(body),
		Err:        errors.New(msg),
	}
}
