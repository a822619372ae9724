package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/netanel-haber/localfiles.stream/internal/domain"
	applog "github.com/netanel-haber/localfiles.stream/internal/log"
)

// memStaging is an in-memory domain.StagingStore for testing.
type memStaging struct {
	entries []domain.ShareEntry
	failAll bool
}

func (m *memStaging) Replace(_ context.Context, entries []domain.ShareEntry) error {
	m.entries = append([]domain.ShareEntry(nil), entries...)
	return nil
}

func (m *memStaging) All(_ context.Context) ([]domain.ShareEntry, error) {
	if m.failAll {
		return nil, errors.New("disk on fire")
	}
	return append([]domain.ShareEntry(nil), m.entries...), nil
}

func (m *memStaging) Clear(_ context.Context) error {
	m.entries = nil
	return nil
}

func validEntry(id, name string) domain.ShareEntry {
	payload := []byte("payload of " + name)
	return domain.ShareEntry{
		ID:         id,
		Name:       name,
		MimeType:   "video/mp4",
		SizeBytes:  int64(len(payload)),
		DateShared: time.Now(),
		Payload:    payload,
	}
}

func TestDrainer_ValidatesEntries(t *testing.T) {
	staging := &memStaging{entries: []domain.ShareEntry{
		validEntry("1", "good-one.mp4"),
		{ID: "2", Name: "no-payload.mp4", MimeType: "video/mp4", SizeBytes: 10}, // missing payload
		validEntry("3", "good-two.mp4"),
	}}
	drainer := NewDrainer(staging, applog.NullLogger())

	result, err := drainer.Drain(context.Background())
	if err != nil {
		t.Fatalf("drain must never fail on invalid entries: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 valid entries, got %d", len(result.Entries))
	}
	if result.Dropped != 1 {
		t.Errorf("expected 1 dropped entry, got %d", result.Dropped)
	}
	if result.Entries[0].ID != "1" || result.Entries[1].ID != "3" {
		t.Errorf("staged order not preserved: %s, %s", result.Entries[0].ID, result.Entries[1].ID)
	}
}

func TestDrainer_AtMostOnce(t *testing.T) {
	staging := &memStaging{entries: []domain.ShareEntry{
		validEntry("1", "a.mp4"),
		validEntry("2", "b.mp4"),
	}}
	drainer := NewDrainer(staging, applog.NullLogger())
	ctx := context.Background()

	first, err := drainer.Drain(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Entries) != 2 {
		t.Fatalf("expected 2 entries on first drain, got %d", len(first.Entries))
	}

	second, err := drainer.Drain(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second.Entries) != 0 {
		t.Errorf("second drain must ingest zero entries, got %d", len(second.Entries))
	}
}

func TestDrainer_ReadFailureIsTransferError(t *testing.T) {
	drainer := NewDrainer(&memStaging{failAll: true}, applog.NullLogger())

	_, err := drainer.Drain(context.Background())
	if !errors.Is(err, domain.ErrTransfer) {
		t.Errorf("expected ErrTransfer, got %v", err)
	}
}

func TestProducer_StageOverwritesAndSignals(t *testing.T) {
	staging := &memStaging{entries: []domain.ShareEntry{validEntry("stale", "stale.mp4")}}
	sig := NewSignal()
	producer := NewProducer(staging, sig, applog.NullLogger())

	outcome := producer.Stage(context.Background(), []domain.IncomingFile{
		{Name: "shared.mp4", MimeType: "video/mp4", Data: []byte("bytes")},
	})
	if !outcome.OK {
		t.Fatalf("expected success outcome, got %+v", outcome)
	}

	if len(staging.entries) != 1 {
		t.Fatalf("expected staged batch to overwrite prior batch, got %d entries", len(staging.entries))
	}
	entry := staging.entries[0]
	if entry.Name != "shared.mp4" || entry.SizeBytes != int64(len("bytes")) {
		t.Errorf("entry fields wrong: %+v", entry)
	}
	if entry.ID == "" || entry.ID == "stale" {
		t.Errorf("expected a freshly generated id, got %q", entry.ID)
	}
	if !entry.Valid() {
		t.Errorf("staged entry should validate: %+v", entry)
	}

	select {
	case got := <-sig.Outcomes():
		if !got.OK {
			t.Errorf("expected success signal, got %+v", got)
		}
	default:
		t.Error("expected an outcome on the signal channel")
	}
}

func TestSignal_PublishNeverBlocks(t *testing.T) {
	sig := NewSignal()

	// Nobody listening, one-slot buffer: extra publishes are dropped.
	sig.Publish(domain.ShareOutcome{OK: true})
	sig.Publish(domain.ShareOutcome{OK: false, Name: "X", Message: "dropped"})

	got := <-sig.Outcomes()
	if !got.OK {
		t.Errorf("expected the first outcome to survive, got %+v", got)
	}
	select {
	case extra := <-sig.Outcomes():
		t.Errorf("expected the second outcome dropped, got %+v", extra)
	default:
	}
}
