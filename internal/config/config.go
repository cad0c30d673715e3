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

package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config represents the application configuration
type Config struct {
	Provider           string   `json:"provider"`
	APIKey             string   `json:"api_key,omitempty"`
	APIURL             string   `json:"api_url,omitempty"`
	Model              string   `json:"model,omitempty"`
	APIVersion         string   `json:"api_version,omitempty"`
	SystemPrompt       string   `json:"system_prompt,omitempty"`
	Temperature        *float32 `json:"temperature,omitempty"`
	MaxTokens          *int     `json:"max_tokens,omitempty"`
	MaxHistory         int      `json:"max_history,omitempty"`
	HistoryFile        string   `json:"history_file,omitempty"`
	CommandHistoryFile string   `json:"command_history_file,omitempty"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Provider:           "openai",
		MaxHistory:         100,
		HistoryFile:        ".confab_conversation.json",
		CommandHistoryFile: ".confab_history",
	}
}

// LoadConfig loads configuration from a JSON file, applies env overrides,
// and fills defaults for missing values. A missing file is not an error;
// defaults apply. A missing API key is not an error either: clients report
// it at call time, and the REPL can prompt for one.
func LoadConfig(filepath string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(filepath); err == nil {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, err
		}
		normalized, err := normalizeConfigJSON(data)
		if err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", filepath, err)
		}
		if err := json.Unmarshal(normalized, config); err != nil {
			return nil, err
		}
	}

	// Env overrides (apply regardless of whether config file exists)
	if val := os.Getenv("CONFAB_PROVIDER"); val != "" {
		config.Provider = val
	}
	if val := os.Getenv("CONFAB_MODEL"); val != "" {
		config.Model = val
	}

	if config.Provider == "" {
		config.Provider = "openai"
	}
	if config.MaxHistory == 0 {
		config.MaxHistory = 100
	}

	return config, nil
}

// ValidationWarning represents a non-fatal configuration issue
type ValidationWarning struct {
	Field   string
	Message string
}

// Validate checks the configuration for common issues and returns warnings
func (c *Config) Validate() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Temperature != nil {
		temp := *c.Temperature
		if temp < 0 || temp > 2 {
			warnings = append(warnings, ValidationWarning{
				Field:   "temperature",
				Message: fmt.Sprintf("temperature %.2f is outside recommended range [0, 2]", temp),
			})
		}
	}

	if c.MaxTokens != nil {
		tokens := *c.MaxTokens
		if tokens <= 0 {
			warnings = append(warnings, ValidationWarning{
				Field:   "max_tokens",
				Message: fmt.Sprintf("max_tokens %d must be positive", tokens),
			})
		}
		if tokens > 128000 {
			warnings = append(warnings, ValidationWarning{
				Field:   "max_tokens",
				Message: fmt.Sprintf("max_tokens %d exceeds typical model limits", tokens),
			})
		}
	}

	if c.MaxHistory < 0 {
		warnings = append(warnings, ValidationWarning{
			Field:   "max_history",
			Message: fmt.Sprintf("max_history %d should be positive, using default", c.MaxHistory),
		})
	}

	if c.APIKey == "" {
		warnings = append(warnings, ValidationWarning{
			Field:   "api_key",
			Message: "no api_key in config; relying on environment or interactive entry",
		})
	}

	return warnings
}
