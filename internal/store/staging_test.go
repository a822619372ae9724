package store

import (
	"context"
	"testing"
	"time"

	"github.com/netanel-haber/localfiles.stream/internal/domain"
)

func stagedEntry(id, name string, payload []byte) domain.ShareEntry {
	return domain.ShareEntry{
		ID:         id,
		Name:       name,
		MimeType:   "video/mp4",
		SizeBytes:  int64(len(payload)),
		DateShared: time.Now(),
		Payload:    payload,
	}
}

func TestStagingStore_ReplaceAndAll(t *testing.T) {
	staging := NewStagingStore(openTestStore(t))
	ctx := context.Background()

	batch := []domain.ShareEntry{
		stagedEntry("1", "one.mp4", []byte("aaa")),
		stagedEntry("2", "two.mp4", []byte("bbb")),
	}
	if err := staging.Replace(ctx, batch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := staging.All(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if out[0].ID != "1" || out[1].ID != "2" {
		t.Errorf("insertion order not preserved: %s, %s", out[0].ID, out[1].ID)
	}
	if string(out[0].Payload) != "aaa" {
		t.Errorf("payload mangled: %q", out[0].Payload)
	}
}

func TestStagingStore_ReplaceOverwritesPriorBatch(t *testing.T) {
	staging := NewStagingStore(openTestStore(t))
	ctx := context.Background()

	if err := staging.Replace(ctx, []domain.ShareEntry{
		stagedEntry("old-1", "old.mp4", []byte("old")),
		stagedEntry("old-2", "older.mp4", []byte("older")),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := staging.Replace(ctx, []domain.ShareEntry{
		stagedEntry("new", "new.mp4", []byte("new")),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := staging.All(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].ID != "new" {
		t.Errorf("expected only the new batch, got %+v", out)
	}
}

func TestStagingStore_Clear(t *testing.T) {
	staging := NewStagingStore(openTestStore(t))
	ctx := context.Background()

	if err := staging.Replace(ctx, []domain.ShareEntry{stagedEntry("1", "x.mp4", []byte("x"))}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := staging.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := staging.All(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty staging store, got %d entries", len(out))
	}
}
