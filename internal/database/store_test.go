package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	db, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := ApplyMigrations(db.DB); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	return NewStore(db, nil)
}

func seedMessage(t *testing.T, store Store, groupID, messageID, ts int64, content string) {
	t.Helper()

	err := store.UpsertMessage(context.Background(), &Message{
		GroupID:   groupID,
		GroupName: "test group",
		UserName:  "alice",
		Content:   content,
		MessageID: messageID,
		TimeStamp: ts,
	})
	if err != nil {
		t.Fatalf("failed to seed message %d: %v", messageID, err)
	}
}

func TestMessageKey(t *testing.T) {
	t.Parallel()

	if got := MessageKey(-100123, 42); got != "-100123:42" {
		t.Errorf("MessageKey(-100123, 42) = %q, want %q", got, "-100123:42")
	}
	if MessageKey(1, 2) != MessageKey(1, 2) {
		t.Error("MessageKey is not deterministic for identical input")
	}
}

func TestUpsertMessageReplacesExistingRow(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	seedMessage(t, store, 10, 1, 1000, "original")
	seedMessage(t, store, 10, 1, 2000, "edited")

	msgs, err := store.MessagesSince(ctx, 10, 0)
	if err != nil {
		t.Fatalf("MessagesSince failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d rows after upsert of same key, want 1", len(msgs))
	}
	if msgs[0].Content != "edited" {
		t.Errorf("content = %q, want %q", msgs[0].Content, "edited")
	}
	if msgs[0].TimeStamp != 2000 {
		t.Errorf("time_stamp = %d, want 2000", msgs[0].TimeStamp)
	}
}

func TestUpsertMessageValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertMessage(ctx, nil); err == nil {
		t.Error("expected error for nil message")
	}
	if err := store.UpsertMessage(ctx, &Message{GroupID: 0, Content: "x", MessageID: 1}); err == nil {
		t.Error("expected error for zero group_id")
	}
	if err := store.UpsertMessage(ctx, &Message{GroupID: 1, Content: "", MessageID: 1}); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestMessagesSinceOrdering(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	seedMessage(t, store, 10, 3, 3000, "third")
	seedMessage(t, store, 10, 1, 1000, "first")
	seedMessage(t, store, 10, 2, 2000, "second")
	seedMessage(t, store, 99, 4, 2500, "other group")

	msgs, err := store.MessagesSince(ctx, 10, 2000)
	if err != nil {
		t.Fatalf("MessagesSince failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Content != "second" || msgs[1].Content != "third" {
		t.Errorf("got order [%s, %s], want [second, third]", msgs[0].Content, msgs[1].Content)
	}
}

func TestLatestMessagesReturnsNewestAscending(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		seedMessage(t, store, 10, i, i*1000, fmt.Sprintf("msg-%d", i))
	}

	msgs, err := store.LatestMessages(ctx, 10, 3)
	if err != nil {
		t.Fatalf("LatestMessages failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for i, want := range []string{"msg-3", "msg-4", "msg-5"} {
		if msgs[i].Content != want {
			t.Errorf("position %d = %q, want %q", i, msgs[i].Content, want)
		}
	}
}

func TestSearchMessages(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	seedMessage(t, store, 10, 1, 1000, "deploy went fine")
	seedMessage(t, store, 10, 2, 2000, "rollback the deploy")
	seedMessage(t, store, 10, 3, 3000, "lunch plans")
	seedMessage(t, store, 99, 4, 4000, "deploy elsewhere")

	msgs, err := store.SearchMessages(ctx, 10, "deploy", 10)
	if err != nil {
		t.Fatalf("SearchMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d results, want 2", len(msgs))
	}
	// Newest first.
	if msgs[0].MessageID != 2 || msgs[1].MessageID != 1 {
		t.Errorf("got order [%d, %d], want [2, 1]", msgs[0].MessageID, msgs[1].MessageID)
	}

	capped, err := store.SearchMessages(ctx, 10, "deploy", 1)
	if err != nil {
		t.Fatalf("SearchMessages with cap failed: %v", err)
	}
	if len(capped) != 1 {
		t.Errorf("got %d results with limit 1, want 1", len(capped))
	}
}

func TestSearchMessagesEscapesWildcards(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	seedMessage(t, store, 10, 1, 1000, "progress at 100%")
	seedMessage(t, store, 10, 2, 2000, "plain text")

	msgs, err := store.SearchMessages(ctx, 10, "100%", 10)
	if err != nil {
		t.Fatalf("SearchMessages failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d results for literal %%, want 1", len(msgs))
	}
	if msgs[0].MessageID != 1 {
		t.Errorf("matched message %d, want 1", msgs[0].MessageID)
	}
}

func TestActiveGroups(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		seedMessage(t, store, 10, i, 1000+i, "busy")
	}
	for i := int64(1); i <= 5; i++ {
		seedMessage(t, store, 20, 100+i, 1000+i, "busy too")
	}
	seedMessage(t, store, 30, 200, 1001, "quiet")
	seedMessage(t, store, 40, 300, 10, "too old")

	groups, err := store.ActiveGroups(ctx, 1000, 2)
	if err != nil {
		t.Fatalf("ActiveGroups failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d active groups, want 2", len(groups))
	}
	// Equal counts fall back to group id ascending.
	if groups[0].GroupID != 10 || groups[1].GroupID != 20 {
		t.Errorf("got order [%d, %d], want [10, 20]", groups[0].GroupID, groups[1].GroupID)
	}
	if groups[0].MessageCount != 5 {
		t.Errorf("message_count = %d, want 5", groups[0].MessageCount)
	}
}

func TestGroupIDs(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	seedMessage(t, store, 20, 1, 1000, "a")
	seedMessage(t, store, 10, 2, 2000, "b")
	seedMessage(t, store, 10, 3, 3000, "c")

	ids, err := store.GroupIDs(ctx)
	if err != nil {
		t.Fatalf("GroupIDs failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != 10 || ids[1] != 20 {
		t.Errorf("got %v, want [10 20]", ids)
	}
}

func TestTrimGroupHistory(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 10; i++ {
		seedMessage(t, store, 10, i, i*1000, fmt.Sprintf("msg-%d", i))
	}

	removed, err := store.TrimGroupHistory(ctx, 10, 3)
	if err != nil {
		t.Fatalf("TrimGroupHistory failed: %v", err)
	}
	if removed != 7 {
		t.Errorf("removed = %d, want 7", removed)
	}

	msgs, err := store.MessagesSince(ctx, 10, 0)
	if err != nil {
		t.Fatalf("MessagesSince failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d survivors, want 3", len(msgs))
	}
	if msgs[0].Content != "msg-8" {
		t.Errorf("oldest survivor = %q, want msg-8", msgs[0].Content)
	}

	if _, err := store.TrimGroupHistory(ctx, 10, 0); err == nil {
		t.Error("expected error for non-positive keep")
	}
}

func TestDeleteAgedImages(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	seedMessage(t, store, 10, 1, 1000, ImageContentPrefix+"jpeg;base64,old")
	seedMessage(t, store, 10, 2, 5000, ImageContentPrefix+"jpeg;base64,fresh")
	seedMessage(t, store, 10, 3, 1000, "old but text")

	removed, err := store.DeleteAgedImages(ctx, 2000)
	if err != nil {
		t.Fatalf("DeleteAgedImages failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	msgs, err := store.MessagesSince(ctx, 10, 0)
	if err != nil {
		t.Fatalf("MessagesSince failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("got %d survivors, want 2", len(msgs))
	}
}
