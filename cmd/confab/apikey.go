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

package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"confab/internal/client"
	"confab/internal/config"
)

// providerKeyEnv names the credential variable each provider falls back to.
func providerKeyEnv(provider client.Provider) string {
	switch provider {
	case client.ProviderClaude:
		return "ANTHROPIC_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// hasCredential reports whether a key is available from config or
// environment, so the REPL knows whether to prompt for one.
func hasCredential(cfg *config.Config, provider client.Provider) bool {
	if cfg.APIKey != "" {
		return true
	}
	if os.Getenv(providerKeyEnv(provider)) != "" {
		return true
	}
	return os.Getenv("CONFAB_API_KEY") != ""
}

// promptAPIKey reads a key from the terminal without echoing it.
func promptAPIKey(provider client.Provider) (string, error) {
	fmt.Printf("Enter API key for %s (input hidden): ", provider)
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(key)), nil
}
