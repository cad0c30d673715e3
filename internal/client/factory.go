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
	"fmt"
	"os"
)

// Provider is the closed set of supported backends. Dispatch on it is
// exhaustive so an unknown tag fails at construction, not at call time.
type Provider int

const (
	ProviderOpenAI Provider = iota
	ProviderClaude
)

func (p Provider) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderClaude:
		return "claude"
	}
	return fmt.Sprintf("provider(%d)", int(p))
}

// ParseProvider maps a provider tag to a Provider. Unrecognized tags return
// a *ConfigError.
func ParseProvider(tag string) (Provider, error) {
	switch tag {
	case "openai":
		return ProviderOpenAI, nil
	case "claude":
		return ProviderClaude, nil
	}
	return 0, &ConfigError{Message: fmt.Sprintf("unknown provider %q (want openai or claude)", tag)}
}

// genericAPIKeyEnv is the fallback credential variable shared by all
// providers.
const genericAPIKeyEnv = "CONFAB_API_KEY"

// resolveAPIKey picks the credential once, at construction time: explicit
// value first, then the provider's environment variable, then the generic
// fallback.
func resolveAPIKey(explicit, envVar string) string {
	if explicit != "" {
		return explicit
	}
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return os.Getenv(genericAPIKeyEnv)
}

// New builds the client variant for the given provider with its defaults
// applied to any zero-valued Config field.
func New(provider Provider, cfg Config) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	case ProviderClaude:
		return NewClaudeClient(cfg), nil
	}
	return nil, &ConfigError{Message: fmt.Sprintf("unknown provider %v", provider)}
}
