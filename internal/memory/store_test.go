package memory

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"toolchat/internal/domain"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "chat.db"), testLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_ConversationRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	conv := domain.Conversation{ID: "c1", Title: "hello", Model: "ollama:llama3", CreatedAt: created}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetConversation(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "hello" || got.Model != "ollama:llama3" {
		t.Errorf("unexpected conversation: %+v", got)
	}
	if !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(created) {
		t.Errorf("timestamps not preserved: created=%v updated=%v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestStore_GetConversationNotFound(t *testing.T) {
	store := testStore(t)
	_, err := store.GetConversation(context.Background(), "missing")
	if !errors.Is(err, domain.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestStore_DuplicateConversation(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	conv := domain.Conversation{ID: "dup"}
	if err := store.CreateConversation(ctx, conv); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateConversation(ctx, conv); err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestStore_Messages(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-time.Hour)
	if err := store.CreateConversation(ctx, domain.Conversation{ID: "c1", CreatedAt: old}); err != nil {
		t.Fatal(err)
	}
	msgs := []domain.MessageRecord{
		{Role: "user", Content: "what is 2+2?"},
		{Role: "assistant", Content: "4", ToolCalls: `[{"tool":"calculator"}]`},
		{Role: "user", Content: "thanks"},
	}
	for _, m := range msgs {
		if err := store.AddMessage(ctx, "c1", m); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.GetMessages(ctx, "c1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, m := range got {
		if m.Role != msgs[i].Role || m.Content != msgs[i].Content || m.ToolCalls != msgs[i].ToolCalls {
			t.Errorf("message %d = %+v, want %+v", i, m, msgs[i])
		}
		if m.ConversationID != "c1" {
			t.Errorf("message %d has conversation %q", i, m.ConversationID)
		}
	}

	last, err := store.GetMessages(ctx, "c1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(last) != 2 || last[0].Content != "4" || last[1].Content != "thanks" {
		t.Errorf("limit should keep the newest messages oldest first, got %+v", last)
	}

	conv, err := store.GetConversation(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if !conv.UpdatedAt.After(old) {
		t.Errorf("AddMessage should touch updated_at, still %v", conv.UpdatedAt)
	}
}

func TestStore_ListConversations(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		conv := domain.Conversation{ID: fmt.Sprintf("c%d", i), CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := store.CreateConversation(ctx, conv); err != nil {
			t.Fatal(err)
		}
	}

	convs, err := store.ListConversations(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 2 || convs[0].ID != "c2" || convs[1].ID != "c1" {
		t.Errorf("unexpected order: %+v", convs)
	}
}

func TestStore_PurgeBefore(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := store.CreateConversation(ctx, domain.Conversation{ID: "old", CreatedAt: now.Add(-72 * time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateConversation(ctx, domain.Conversation{ID: "new", CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	// Insert directly so the old conversation's updated_at is not touched.
	if _, err := store.db.Exec(
		"INSERT INTO messages (conversation_id, role, content) VALUES ('old', 'user', 'stale')",
	); err != nil {
		t.Fatal(err)
	}

	n, err := store.PurgeBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged conversation, got %d", n)
	}
	if _, err := store.GetConversation(ctx, "old"); !errors.Is(err, domain.ErrConversationNotFound) {
		t.Errorf("old conversation should be gone, got %v", err)
	}
	if _, err := store.GetConversation(ctx, "new"); err != nil {
		t.Errorf("new conversation should survive: %v", err)
	}
	msgs, err := store.GetMessages(ctx, "old", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("messages of purged conversation should be gone, got %d", len(msgs))
	}
}

func TestStore_PingAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	store, err := NewSQLiteStore(path, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := store.CreateConversation(context.Background(), domain.Conversation{ID: "keep"}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := NewSQLiteStore(path, testLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.GetConversation(context.Background(), "keep"); err != nil {
		t.Errorf("conversation lost across reopen: %v", err)
	}
}
