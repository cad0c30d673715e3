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

// Package conversation keeps an ordered, bounded window of chat messages.
//
// A Manager owns the message sequence for one conversation: it appends turns
// in order, evicts the oldest non-system messages once the window fills, and
// never evicts a system message. It is not safe for concurrent mutation; a
// conversation has a single logical owner and that owner serializes access.
package conversation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxHistory is the retention window used when none is configured.
const DefaultMaxHistory = 100

// Manager is an ordered store of messages with a bounded retention window.
type Manager struct {
	id           uuid.UUID
	maxHistory   int
	systemPrompt string
	messages     []Message
}

type managerConfig struct {
	id           uuid.UUID
	maxHistory   int
	systemPrompt string
	seed         []Message
}

// Option configures a Manager at construction time.
type Option func(*managerConfig)

// WithMaxHistory bounds the message window. Values below one fall back to
// DefaultMaxHistory.
func WithMaxHistory(n int) Option {
	return func(c *managerConfig) {
		c.maxHistory = n
	}
}

// WithSystemPrompt seeds the conversation with a system message holding the
// given text. The prompt survives trimming and Clear.
func WithSystemPrompt(prompt string) Option {
	return func(c *managerConfig) {
		c.systemPrompt = prompt
	}
}

// WithID fixes the conversation ID instead of generating one.
func WithID(id uuid.UUID) Option {
	return func(c *managerConfig) {
		c.id = id
	}
}

// WithMessages replays existing messages into the new manager, after the
// system prompt (if any) is seeded. Trimming applies as if each message had
// been added individually.
func WithMessages(msgs ...Message) Option {
	return func(c *managerConfig) {
		c.seed = append(c.seed, msgs...)
	}
}

// NewManager builds a Manager with a fresh conversation ID unless WithID is
// given.
func NewManager(opts ...Option) *Manager {
	cfg := managerConfig{maxHistory: DefaultMaxHistory}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxHistory < 1 {
		cfg.maxHistory = DefaultMaxHistory
	}
	if cfg.id == uuid.Nil {
		cfg.id = uuid.New()
	}

	m := &Manager{
		id:           cfg.id,
		maxHistory:   cfg.maxHistory,
		systemPrompt: cfg.systemPrompt,
	}
	if m.systemPrompt != "" {
		m.messages = append(m.messages, systemMessage(m.systemPrompt))
	}
	for _, msg := range cfg.seed {
		m.add(msg)
	}
	return m
}

func systemMessage(prompt string) Message {
	msg, err := NewMessage(RoleSystem, prompt, nil)
	if err != nil {
		// RoleSystem is always valid.
		panic(err)
	}
	return msg
}

// ID returns the conversation identifier.
func (m *Manager) ID() uuid.UUID { return m.id }

// MaxHistory returns the retention window size.
func (m *Manager) MaxHistory() int { return m.maxHistory }

// SystemPrompt returns the prompt the manager was seeded with, or "".
func (m *Manager) SystemPrompt() string { return m.systemPrompt }

// Len returns the number of stored messages.
func (m *Manager) Len() int { return len(m.messages) }

// AddMessage validates and appends a message, then trims the window.
func (m *Manager) AddMessage(role Role, content string, metadata map[string]any) error {
	msg, err := NewMessage(role, content, metadata)
	if err != nil {
		return err
	}
	m.add(msg)
	return nil
}

// add appends an already-constructed message and trims. Used internally so
// replayed messages keep their original timestamps.
func (m *Manager) add(msg Message) {
	m.messages = append(m.messages, msg)
	m.trim()
}

// trim enforces the retention window. System messages are partitioned out
// first and always survive; the oldest non-system messages are dropped until
// the window fits. After a trim, system messages precede all others.
func (m *Manager) trim() {
	if len(m.messages) <= m.maxHistory {
		return
	}
	var system, rest []Message
	for _, msg := range m.messages {
		if msg.Role == RoleSystem {
			system = append(system, msg)
		} else {
			rest = append(rest, msg)
		}
	}
	keep := m.maxHistory - len(system)
	if keep < 0 {
		keep = 0
	}
	if len(rest) > keep {
		rest = rest[len(rest)-keep:]
	}
	m.messages = append(system, rest...)
}

// RemoveLast removes and returns the most recent message, if any.
func (m *Manager) RemoveLast() (Message, bool) {
	if len(m.messages) == 0 {
		return Message{}, false
	}
	last := m.messages[len(m.messages)-1]
	m.messages = m.messages[:len(m.messages)-1]
	return last, true
}

// Messages returns a copy of the message sequence in conversation order.
func (m *Manager) Messages() []Message {
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Restore replaces the message sequence with a snapshot previously taken
// via Messages. Callers use it to undo a mutation that trimming has made
// irreversible, such as an append that evicted the oldest message.
func (m *Manager) Restore(msgs []Message) {
	m.messages = make([]Message, len(msgs))
	copy(m.messages, msgs)
}

// APIMessages projects the sequence into {role, content} records, system
// messages included, in conversation order.
func (m *Manager) APIMessages() []APIMessage {
	out := make([]APIMessage, len(m.messages))
	for i, msg := range m.messages {
		out[i] = APIMessage{Role: string(msg.Role), Content: msg.Content}
	}
	return out
}

// Clear resets the conversation. With a system prompt configured the result
// is a single freshly-timestamped system message; otherwise it is empty.
func (m *Manager) Clear() {
	if m.systemPrompt == "" {
		m.messages = nil
		return
	}
	m.messages = []Message{systemMessage(m.systemPrompt)}
}

// Summary reports the total and per-role message counts.
func (m *Manager) Summary() string {
	var user, assistant, system int
	for _, msg := range m.messages {
		switch msg.Role {
		case RoleUser:
			user++
		case RoleAssistant:
			assistant++
		case RoleSystem:
			system++
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d messages", len(m.messages))
	fmt.Fprintf(&b, " (%d user, %d assistant, %d system)", user, assistant, system)
	return b.String()
}
