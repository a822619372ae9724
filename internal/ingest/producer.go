package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/netanel-haber/localfiles.stream/internal/domain"
)

// Producer is the staging writer owned by the share receiver. It is the only
// component that writes to the staging store; it never touches the blob or
// metadata stores directly, so the durable library keeps a single owner.
type Producer struct {
	staging domain.StagingStore
	signal  *Signal
	logger  *slog.Logger
}

// NewProducer creates a Producer.
func NewProducer(staging domain.StagingStore, signal *Signal, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{staging: staging, signal: signal, logger: logger}
}

// Stage wraps each inbound file as a ShareEntry with a fresh id, overwrites
// the staging store with the new batch, and publishes the hand-off outcome.
// The returned outcome is also what the HTTP layer encodes into its redirect.
func (p *Producer) Stage(ctx context.Context, files []domain.IncomingFile) domain.ShareOutcome {
	now := time.Now()
	entries := make([]domain.ShareEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, domain.ShareEntry{
			ID:         uuid.NewString(),
			Name:       f.Name,
			MimeType:   f.MimeType,
			SizeBytes:  int64(len(f.Data)),
			DateShared: now,
			Payload:    f.Data,
		})
	}

	outcome := domain.ShareOutcome{OK: true}
	if err := p.staging.Replace(ctx, entries); err != nil {
		p.logger.Error("failed to stage share batch", "error", err, "count", len(entries))
		outcome = domain.ShareOutcome{OK: false, Name: "StageError", Message: err.Error()}
	} else {
		p.logger.Info("staged share batch", "count", len(entries))
	}

	p.signal.Publish(outcome)
	return outcome
}
