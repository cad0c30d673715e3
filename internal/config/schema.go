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
	"sort"
)

const exampleConfigJSON = `{
  "provider": "openai",
  "model": "gpt-4o-mini",
  "system_prompt": "You are a concise assistant.",
  "max_history": 100,
  "temperature": 0.7
}`

// ExampleConfigJSON returns a minimal example config.
func ExampleConfigJSON() string {
	return exampleConfigJSON
}

// normalizeConfigJSON rejects unknown keys and badly typed values before the
// file is unmarshalled, so typos fail at load time with a field name instead
// of silently falling back to defaults.
func normalizeConfigJSON(data []byte) ([]byte, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if err := validateConfigMap(raw); err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

func validateConfigMap(raw map[string]interface{}) error {
	allowed := map[string]func(interface{}) error{
		"provider":             func(v interface{}) error { return validateString(v, "provider") },
		"api_key":              func(v interface{}) error { return validateString(v, "api_key") },
		"api_url":              func(v interface{}) error { return validateString(v, "api_url") },
		"model":                func(v interface{}) error { return validateString(v, "model") },
		"api_version":          func(v interface{}) error { return validateString(v, "api_version") },
		"system_prompt":        func(v interface{}) error { return validateString(v, "system_prompt") },
		"temperature":          func(v interface{}) error { return validateNumber(v, "temperature") },
		"max_tokens":           func(v interface{}) error { return validateNumber(v, "max_tokens") },
		"max_history":          func(v interface{}) error { return validateNumber(v, "max_history") },
		"history_file":         func(v interface{}) error { return validateString(v, "history_file") },
		"command_history_file": func(v interface{}) error { return validateString(v, "command_history_file") },
	}

	var unknown []string
	for key, value := range raw {
		check, ok := allowed[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		if err := check(value); err != nil {
			return err
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown config keys: %v", unknown)
	}
	return nil
}

func validateString(value interface{}, name string) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("%s must be a string", name)
	}
	return nil
}

func validateNumber(value interface{}, name string) error {
	if _, ok := value.(float64); !ok {
		return fmt.Errorf("%s must be a number", name)
	}
	return nil
}
