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

import "fmt"

// AuthError reports a missing or empty API credential. It is returned before
// any network attempt is made.
type AuthError struct {
	Provider string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// APIError reports a failed remote call: either a non-success status or a
// success response missing the expected reply field. Body carries the raw
// error payload for diagnostics.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s API error: %v", e.Provider, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ConfigError reports invalid client construction parameters, such as an
// unrecognized provider tag.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
