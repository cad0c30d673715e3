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

// Package client talks to chat completion providers on behalf of a single
// conversation. Each client owns a conversation.Manager and projects its
// history into the provider's wire shape.
package client

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"confab/internal/conversation"
)

// Client is the capability set shared by all provider clients.
//
// Chat appends the prompt and the reply to the owned conversation; Ask sends
// the same payload without touching it. Both block until the call resolves
// or the context is cancelled.
type Client interface {
	Chat(ctx context.Context, text string, opts *Options) (string, error)
	Ask(ctx context.Context, text string, opts *Options) (string, error)
	Reset()
	History() []conversation.Message
	Conversation() *conversation.Manager
}

// Options carries per-call sampling parameters. A nil Options uses provider
// defaults. Extra entries are merged into the top level of the outbound
// request for providers that accept free-form fields.
type Options struct {
	Temperature *float32
	MaxTokens   *int
	Extra       map[string]any
}

func (o *Options) temperature() *float32 {
	if o == nil {
		return nil
	}
	return o.Temperature
}

func (o *Options) maxTokens() *int {
	if o == nil {
		return nil
	}
	return o.MaxTokens
}

func (o *Options) extra() map[string]any {
	if o == nil {
		return nil
	}
	return o.Extra
}

// Config holds client construction parameters. Zero values resolve to
// provider defaults once, at construction time; the credential is read from
// the environment then and never re-read per call.
type Config struct {
	// APIKey is the credential. Empty means fall back to the provider's
	// environment variable, then to the generic one.
	APIKey string

	// APIURL overrides the provider's default endpoint.
	APIURL string

	// Model overrides the provider's default model.
	Model string

	// APIVersion is the version header value for providers that require one.
	APIVersion string

	// SystemPrompt seeds the owned conversation.
	SystemPrompt string

	// MaxHistory bounds the owned conversation's window.
	MaxHistory int

	// HTTPClient overrides the default transport for providers that issue
	// raw HTTP requests.
	HTTPClient *http.Client

	// Logger receives debug-level request/response logs. Nil disables them.
	Logger *zerolog.Logger
}

func (c Config) logger() zerolog.Logger {
	if c.Logger != nil {
		return *c.Logger
	}
	return zerolog.Nop()
}

func (c Config) conversationOptions() []conversation.Option {
	var opts []conversation.Option
	if c.SystemPrompt != "" {
		opts = append(opts, conversation.WithSystemPrompt(c.SystemPrompt))
	}
	if c.MaxHistory > 0 {
		opts = append(opts, conversation.WithMaxHistory(c.MaxHistory))
	}
	return opts
}
