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
	"bufio"
	"os"
)

// History manages command navigation (prev/next) with an internal cursor.
// The cursor sits past the end when not navigating; Prev walks backward
// through entries and Next walks forward until it clears again.
type History struct {
	entries []string
	index   int
}

// LoadHistoryFromFile reads past command entries from a readline history
// file. A missing file yields an empty history.
func LoadHistoryFromFile(filepath string) []string {
	history := make([]string, 0)

	file, err := os.Open(filepath)
	if err != nil {
		return history
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			history = append(history, line)
		}
	}
	return history
}

// NewHistory initializes a History with existing entries.
func NewHistory(entries []string) *History {
	return &History{entries: entries, index: -1}
}

// Add appends an entry and resets navigation. Empty entries and immediate
// duplicates are skipped.
func (h *History) Add(entry string) {
	if entry == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		h.index = -1
		return
	}
	h.entries = append(h.entries, entry)
	h.index = -1
}

// Prev moves backward through history. Returns the entry and true if one is
// available.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	switch {
	case h.index == -1:
		h.index = len(h.entries) - 1
	case h.index > 0:
		h.index--
	}
	return h.entries[h.index], true
}

// Next moves forward through history. Returns the entry (or empty once the
// cursor clears) and true if the cursor moved.
func (h *History) Next() (string, bool) {
	if len(h.entries) == 0 || h.index == -1 {
		return "", false
	}
	if h.index < len(h.entries)-1 {
		h.index++
		return h.entries[h.index], true
	}
	h.index = -1
	return "", true
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of history entries.
func (h *History) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}
