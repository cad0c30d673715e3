package conversation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	m := NewManager(WithSystemPrompt("S"))
	if err := m.AddMessage(RoleUser, "question", map[string]any{"source": "repl"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.AddMessage(RoleAssistant, "answer", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "history.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, prompt, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if prompt != "S" {
		t.Fatalf("expected extracted system prompt S, got %q", prompt)
	}

	// The leading system record is reported, not replayed.
	msgs := loaded.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 replayed messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "question" {
		t.Fatalf("expected user message first, got %s %q", msgs[0].Role, msgs[0].Content)
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "answer" {
		t.Fatalf("expected assistant message second, got %s %q", msgs[1].Role, msgs[1].Content)
	}
	if msgs[0].Metadata["source"] != "repl" {
		t.Fatalf("expected metadata to survive the round trip, got %v", msgs[0].Metadata)
	}
	if !msgs[0].Timestamp.Equal(m.Messages()[1].Timestamp) {
		t.Fatal("expected saved timestamps to be preserved on load")
	}
}

func TestLoadReseedsSystemPrompt(t *testing.T) {
	m := NewManager(WithSystemPrompt("S"))
	if err := m.AddMessage(RoleUser, "hello", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "history.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	_, prompt, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	reloaded, _, err := Load(path, WithSystemPrompt(prompt))
	if err != nil {
		t.Fatalf("second load failed: %v", err)
	}

	msgs := reloaded.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected system + user, got %d messages", len(msgs))
	}
	if msgs[0].Role != RoleSystem || msgs[0].Content != "S" {
		t.Fatalf("expected reseeded system message, got %s %q", msgs[0].Role, msgs[0].Content)
	}
}

func TestLoadRetrimsAgainstSmallerWindow(t *testing.T) {
	m := NewManager()
	for i := 0; i < 10; i++ {
		if err := m.AddMessage(RoleUser, "filler", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "history.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, _, err := Load(path, WithMaxHistory(4))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Len() != 4 {
		t.Fatalf("expected load-time trimming to 4 messages, got %d", loaded.Len())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PersistenceError, got %T", err)
	}
	if perr.Op != "read" {
		t.Fatalf("expected read op, got %q", perr.Op)
	}
}

func TestLoadRejectsUnknownRole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	payload := `[{"role":"narrator","content":"x","timestamp":"2026-01-02T15:04:05Z"}]`
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, _, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown role in saved history")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected wrapped *ValidationError, got %v", err)
	}
}
