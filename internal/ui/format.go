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

package ui

import (
	"fmt"
	"strings"

	"confab/internal/conversation"
)

// RoleLabel maps a message role to its display name.
func RoleLabel(role conversation.Role) string {
	switch role {
	case conversation.RoleSystem:
		return "System"
	case conversation.RoleUser:
		return "User"
	case conversation.RoleAssistant:
		return "Assistant"
	}
	return "Unknown"
}

// FormatMessage renders one message as a labelled transcript line with its
// timestamp.
func FormatMessage(msg conversation.Message) string {
	return fmt.Sprintf("[%s] %s: %s", msg.Timestamp.Format("15:04:05"), RoleLabel(msg.Role), msg.Content)
}

// FormatTranscript renders the whole conversation for display.
func FormatTranscript(msgs []conversation.Message) string {
	var b strings.Builder
	b.WriteString("--- Conversation History ---\n")
	for _, msg := range msgs {
		b.WriteString(FormatMessage(msg))
		b.WriteString("\n")
	}
	b.WriteString("--- End History ---")
	return b.String()
}
