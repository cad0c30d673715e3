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

// messageOverheadTokens accounts for the role tag and message framing the
// provider adds around each turn.
const messageOverheadTokens = 4

// EstimateTokens approximates the token count of text at roughly four
// characters per token. This is a heuristic, not a tokenizer; treat the
// result as an estimate only.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// TokenEstimate approximates the token footprint of the whole conversation,
// including per-message framing overhead. Same caveat as EstimateTokens:
// an estimate, not a real token count.
func (m *Manager) TokenEstimate() int {
	total := 0
	for _, msg := range m.messages {
		total += EstimateTokens(msg.Content) + messageOverheadTokens
	}
	return total
}
