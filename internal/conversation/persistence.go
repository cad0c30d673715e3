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
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// PersistenceError reports a failed save or load of conversation history.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("history %s on %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// messageRecord is the on-disk shape of a message.
type messageRecord struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Save writes the conversation as a JSON array of message records.
func (m *Manager) Save(path string) error {
	records := make([]messageRecord, len(m.messages))
	for i, msg := range m.messages {
		records[i] = messageRecord{
			Role:      string(msg.Role),
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
			Metadata:  msg.Metadata,
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "encode", Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Load reconstructs a Manager from a file written by Save. Messages are
// replayed through the normal append path, so a window smaller than the
// saved array trims on load exactly as it would have live.
//
// A leading system record is not replayed: its content is returned as the
// second value and the caller decides whether to seed the new manager with
// it via WithSystemPrompt. Saved timestamps are preserved.
func Load(path string, opts ...Option) (*Manager, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", &PersistenceError{Op: "read", Path: path, Err: err}
	}

	var records []messageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, "", &PersistenceError{Op: "decode", Path: path, Err: err}
	}

	systemPrompt := ""
	if len(records) > 0 && Role(records[0].Role) == RoleSystem {
		systemPrompt = records[0].Content
		records = records[1:]
	}

	m := NewManager(opts...)
	for _, rec := range records {
		msg, err := NewMessage(Role(rec.Role), rec.Content, rec.Metadata)
		if err != nil {
			return nil, "", &PersistenceError{Op: "decode", Path: path, Err: err}
		}
		if !rec.Timestamp.IsZero() {
			msg.Timestamp = rec.Timestamp
		}
		m.add(msg)
	}
	return m, systemPrompt, nil
}
