package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/netanel-haber/localfiles.stream/internal/domain"
)

// DrainResult is what one drain of the staging store produced.
type DrainResult struct {
	Entries []domain.ShareEntry // valid entries, in staged order
	Dropped int                 // invalid entries discarded with a warning
}

// Drainer reads and clears the staging store for the library. Delivery is
// at-most-once: once a batch is read the staging store is cleared, even if
// the caller's ingestion later fails, so a poisoned batch is never
// re-attempted. Two triggers draining close together may race; the loser
// reads an empty batch (a no-op) or re-ingests the same payload (a duplicate
// asset). Neither corrupts the store, so no drain lock is taken.
type Drainer struct {
	staging domain.StagingStore
	logger  *slog.Logger
}

// NewDrainer creates a Drainer.
func NewDrainer(staging domain.StagingStore, logger *slog.Logger) *Drainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Drainer{staging: staging, logger: logger}
}

// Drain reads every staged entry, validates each, clears the staging store
// and returns the valid entries. Invalid entries are discarded with a
// warning, never an error.
func (d *Drainer) Drain(ctx context.Context) (DrainResult, error) {
	entries, err := d.staging.All(ctx)
	if err != nil {
		d.logger.Error("failed to read staging store", "error", err)
		return DrainResult{}, fmt.Errorf("%w: %v", domain.ErrTransfer, err)
	}

	var result DrainResult
	for _, entry := range entries {
		if !entry.Valid() {
			d.logger.Warn("discarding invalid share entry",
				"entryID", entry.ID, "name", entry.Name, "payloadBytes", len(entry.Payload))
			result.Dropped++
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	// Clear before the caller ingests: at-most-once, no retry protocol.
	if err := d.staging.Clear(ctx); err != nil {
		d.logger.Error("failed to clear staging store", "error", err)
	}

	if len(entries) > 0 {
		d.logger.Info("drained staging store",
			"staged", len(entries), "valid", len(result.Entries), "dropped", result.Dropped)
	}
	return result, nil
}
