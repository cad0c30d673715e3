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

package conversation

import (
	"fmt"
	"time"
)

// Role identifies the speaker of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// ValidationError reports a malformed message at construction time.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid message %s: %q", e.Field, e.Value)
}

// Message is a single conversation turn. Messages are values and are not
// modified after construction; to change one, remove it and add a new one.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
	Metadata  map[string]any
}

// NewMessage builds a Message with the current time as its timestamp.
// The metadata map is copied so later mutation by the caller does not leak
// into the stored message. Returns a *ValidationError for an unknown role.
func NewMessage(role Role, content string, metadata map[string]any) (Message, error) {
	if !role.Valid() {
		return Message{}, &ValidationError{Field: "role", Value: string(role)}
	}
	var meta map[string]any
	if len(metadata) > 0 {
		meta = make(map[string]any, len(metadata))
		for k, v := range metadata {
			meta[k] = v
		}
	}
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  meta,
	}, nil
}

// APIMessage is the minimal wire projection of a Message, the shape chat
// completion endpoints accept in their message lists.
type APIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
