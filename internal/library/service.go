package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/netanel-haber/localfiles.stream/internal/domain"
	"github.com/netanel-haber/localfiles.stream/internal/ingest"
)

// session abstracts the playback session (consumer-defined interface).
type session interface {
	Play(ctx context.Context, descriptor domain.AssetDescriptor) error
	Stop()
	AssetRemoved(assetID string)
	State() domain.PlaybackState
}

// Service orchestrates the asset library: it owns the descriptor list, keeps
// the metadata snapshot in sync with the blob store, drains the share staging
// area and exposes the capability surface the UI consumes. Storage failures
// stop here: they are logged, surfaced as notices to subscribers, and never
// escape as panics or unhandled rejections.
type Service struct {
	blobs       domain.BlobStore
	meta        domain.MetadataStore
	handles     domain.HandleManager
	drainer     *ingest.Drainer
	maxFileSize int64
	logger      *slog.Logger

	mu          sync.Mutex
	descriptors []domain.AssetDescriptor
	session     session

	obsMu     sync.Mutex
	observers []domain.LibraryObserver
}

// NewService creates a library Service. maxFileSize <= 0 disables the
// per-file ceiling.
func NewService(
	blobs domain.BlobStore,
	meta domain.MetadataStore,
	handles domain.HandleManager,
	drainer *ingest.Drainer,
	maxFileSize int64,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		blobs:       blobs,
		meta:        meta,
		handles:     handles,
		drainer:     drainer,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// AttachSession wires the playback session. The session's progress sink is
// this service, so the two are constructed in two steps.
func (s *Service) AttachSession(sess session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
}

// Subscribe registers an observer for library change events.
func (s *Service) Subscribe(observer domain.LibraryObserver) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, observer)
}

// Start loads the metadata snapshot, reconciles it against the blob store and
// drains any batch a share left behind while the app was not running.
func (s *Service) Start(ctx context.Context) error {
	descriptors, err := s.meta.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load metadata snapshot", "error", err)
		return fmt.Errorf("failed to load library: %w", err)
	}

	reconciled, dropped := s.reconcile(ctx, descriptors)

	s.mu.Lock()
	s.descriptors = reconciled
	s.mu.Unlock()

	if dropped > 0 {
		// Persist the pruned list so the orphaned descriptors stay gone.
		if err := s.meta.Save(ctx, reconciled); err != nil {
			s.logger.Error("failed to save reconciled snapshot", "error", err)
		}
		s.logger.Warn("dropped descriptors with missing blobs", "count", dropped)
	}

	s.logger.Info("library loaded", "assets", len(reconciled), "dropped", dropped)
	s.notify(domain.LibraryEvent{Kind: domain.EventReloaded, Descriptors: s.List()})

	s.DrainShared(ctx)
	return nil
}

// reconcile drops descriptors whose blob is missing. Degraded but safe: a
// half-written library loads instead of failing.
func (s *Service) reconcile(ctx context.Context, descriptors []domain.AssetDescriptor) ([]domain.AssetDescriptor, int) {
	kept := make([]domain.AssetDescriptor, 0, len(descriptors))
	dropped := 0
	for _, d := range descriptors {
		ok, err := s.blobs.Has(ctx, d.ID)
		if err != nil {
			s.logger.Error("failed to check blob", "error", err, "assetID", d.ID)
			kept = append(kept, d)
			continue
		}
		if !ok {
			s.logger.Warn("descriptor references missing blob", "assetID", d.ID, "name", d.Name)
			dropped++
			continue
		}
		kept = append(kept, d)
	}
	return kept, dropped
}

// ListenShareOutcomes consumes the share receiver's signal channel until ctx
// is done. A success flag triggers a drain; a failure flag becomes a
// diagnostic notice and no drain is attempted.
func (s *Service) ListenShareOutcomes(ctx context.Context, outcomes <-chan domain.ShareOutcome) {
	for {
		select {
		case <-ctx.Done():
			return
		case outcome, ok := <-outcomes:
			if !ok {
				return
			}
			if !outcome.OK {
				s.logger.Error("share hand-off failed", "name", outcome.Name, "message", outcome.Message)
				s.notice(fmt.Sprintf("Share failed: %s: %s", outcome.Name, outcome.Message))
				continue
			}
			s.DrainShared(ctx)
		}
	}
}

// AddReport describes the outcome of one add batch.
type AddReport struct {
	Added    []domain.AssetDescriptor
	Rejected []RejectedFile
}

// RejectedFile names a file that was not persisted and why.
type RejectedFile struct {
	Name   string
	Reason error
}

// Add persists files into the library. Oversized files are rejected
// individually without aborting the batch; a quota failure aborts the
// remaining items but keeps everything already stored (partial success, no
// rollback). The returned report always reflects what actually persisted.
func (s *Service) Add(ctx context.Context, files []domain.IncomingFile) (AddReport, error) {
	descriptors := make([]domain.AssetDescriptor, 0, len(files))
	now := time.Now()
	for _, f := range files {
		descriptors = append(descriptors, domain.AssetDescriptor{
			ID:        uuid.NewString(),
			Name:      f.Name,
			MimeType:  f.MimeType,
			SizeBytes: int64(len(f.Data)),
			DateAdded: now,
		})
	}
	payloads := make([][]byte, len(files))
	for i, f := range files {
		payloads[i] = f.Data
	}
	return s.ingestBatch(ctx, descriptors, payloads)
}

// DrainShared drains the staging store and ingests every valid entry exactly
// as if it had been chosen via a file picker. The staging store is cleared
// regardless of how ingestion goes; there is no retry protocol.
func (s *Service) DrainShared(ctx context.Context) {
	result, err := s.drainer.Drain(ctx)
	if err != nil {
		// TransferError: reported once, never re-attempted.
		s.notice(fmt.Sprintf("Could not receive shared files: %v", err))
		return
	}
	if result.Dropped > 0 {
		s.notice(fmt.Sprintf("Skipped %d invalid shared file(s)", result.Dropped))
	}
	if len(result.Entries) == 0 {
		return
	}

	descriptors := make([]domain.AssetDescriptor, len(result.Entries))
	payloads := make([][]byte, len(result.Entries))
	for i, entry := range result.Entries {
		descriptors[i] = entry.Descriptor()
		payloads[i] = entry.Payload
	}

	report, err := s.ingestBatch(ctx, descriptors, payloads)
	if err != nil {
		s.logger.Error("share ingestion incomplete", "error", err, "added", len(report.Added))
	}
}

// ingestBatch stores payloads and appends their descriptors to the list.
// Prior successful puts are never rolled back; the snapshot is re-saved to
// cover exactly the assets that persisted.
func (s *Service) ingestBatch(
	ctx context.Context,
	descriptors []domain.AssetDescriptor,
	payloads [][]byte,
) (AddReport, error) {
	var report AddReport
	var batchErr error

	for i, d := range descriptors {
		if s.maxFileSize > 0 && d.SizeBytes > s.maxFileSize {
			s.logger.Warn("rejecting oversized file", "name", d.Name, "sizeBytes", d.SizeBytes)
			report.Rejected = append(report.Rejected, RejectedFile{Name: d.Name, Reason: domain.ErrFileTooLarge})
			continue
		}
		if !d.Valid() {
			s.logger.Warn("rejecting invalid file", "name", d.Name)
			report.Rejected = append(report.Rejected, RejectedFile{Name: d.Name, Reason: domain.ErrInvalidEntry})
			continue
		}

		if err := s.blobs.Put(ctx, d.ID, payloads[i]); err != nil {
			if errors.Is(err, domain.ErrQuotaExceeded) {
				// Abort the rest of the batch, keep what already persisted.
				for _, rest := range descriptors[i:] {
					report.Rejected = append(report.Rejected, RejectedFile{Name: rest.Name, Reason: domain.ErrQuotaExceeded})
				}
				batchErr = domain.ErrQuotaExceeded
				break
			}
			s.logger.Error("failed to store blob", "error", err, "name", d.Name)
			report.Rejected = append(report.Rejected, RejectedFile{Name: d.Name, Reason: err})
			if batchErr == nil {
				batchErr = err
			}
			continue
		}
		report.Added = append(report.Added, d)
	}

	if len(report.Added) > 0 {
		s.mu.Lock()
		s.descriptors = append(s.descriptors, report.Added...)
		snapshot := append([]domain.AssetDescriptor(nil), s.descriptors...)
		s.mu.Unlock()

		if err := s.meta.Save(ctx, snapshot); err != nil {
			s.logger.Error("failed to save metadata snapshot", "error", err)
			if batchErr == nil {
				batchErr = err
			}
		}
		s.notify(domain.LibraryEvent{Kind: domain.EventAdded, Descriptors: snapshot})
	}

	if errors.Is(batchErr, domain.ErrQuotaExceeded) {
		s.notice("Storage is full. Some files were not saved.")
	}
	return report, batchErr
}

// Remove deletes an asset: handle revoked, blob deleted, descriptor dropped
// from the snapshot. Removing an absent id is a no-op.
func (s *Service) Remove(ctx context.Context, assetID string) error {
	s.handles.Release(assetID)

	s.mu.Lock()
	if s.session != nil {
		s.session.AssetRemoved(assetID)
	}
	s.mu.Unlock()

	if err := s.blobs.Delete(ctx, assetID); err != nil {
		s.logger.Error("failed to delete blob", "error", err, "assetID", assetID)
		s.notice("Could not delete the file.")
		return err
	}

	s.mu.Lock()
	found := false
	kept := s.descriptors[:0]
	for _, d := range s.descriptors {
		if d.ID == assetID {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	s.descriptors = kept
	snapshot := append([]domain.AssetDescriptor(nil), s.descriptors...)
	s.mu.Unlock()

	if !found {
		return nil
	}

	if err := s.meta.Save(ctx, snapshot); err != nil {
		s.logger.Error("failed to save metadata snapshot", "error", err)
		return err
	}

	s.logger.Info("removed asset", "assetID", assetID)
	s.notify(domain.LibraryEvent{Kind: domain.EventRemoved, AssetID: assetID, Descriptors: snapshot})
	return nil
}

// RemoveAll wipes the library: every handle released, every blob deleted,
// the snapshot replaced with an empty list.
func (s *Service) RemoveAll(ctx context.Context) error {
	s.handles.ReleaseAll()

	s.mu.Lock()
	if s.session != nil {
		s.session.Stop()
	}
	s.mu.Unlock()

	if err := s.blobs.Clear(ctx); err != nil {
		s.logger.Error("failed to clear blob store", "error", err)
		s.notice("Could not clear the library.")
		return err
	}

	s.mu.Lock()
	s.descriptors = nil
	s.mu.Unlock()

	if err := s.meta.Save(ctx, nil); err != nil {
		s.logger.Error("failed to save metadata snapshot", "error", err)
		return err
	}

	s.logger.Info("cleared library")
	s.notify(domain.LibraryEvent{Kind: domain.EventCleared})
	return nil
}

// Play starts playback of an asset through the attached session.
func (s *Service) Play(ctx context.Context, assetID string) error {
	descriptor, ok := s.find(assetID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, assetID)
	}

	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()
	if sess == nil {
		return fmt.Errorf("no playback session attached")
	}

	if err := sess.Play(ctx, descriptor); err != nil {
		// Playback failures are scoped to the session; the library survives.
		s.notice(fmt.Sprintf("Could not play %q.", descriptor.Name))
		return err
	}
	return nil
}

// CurrentProgress returns the stored progress for an asset in seconds.
func (s *Service) CurrentProgress(assetID string) (float64, error) {
	descriptor, ok := s.find(assetID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrNotFound, assetID)
	}
	return descriptor.ProgressSeconds, nil
}

// List returns the ordered descriptor list.
func (s *Service) List() []domain.AssetDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AssetDescriptor(nil), s.descriptors...)
}

// ReportProgress implements domain.ProgressSink: write-through persistence of
// a periodic time-update.
func (s *Service) ReportProgress(assetID string, seconds float64) error {
	return s.updateProgress(assetID, seconds, false)
}

// FinalizeProgress implements domain.ProgressSink: end-of-media, progress is
// pinned to the full duration and the asset marked played.
func (s *Service) FinalizeProgress(assetID string, durationSeconds float64) error {
	return s.updateProgress(assetID, durationSeconds, true)
}

func (s *Service) updateProgress(assetID string, seconds float64, played bool) error {
	s.mu.Lock()
	updated := false
	for i := range s.descriptors {
		if s.descriptors[i].ID == assetID {
			s.descriptors[i].ProgressSeconds = seconds
			if played {
				s.descriptors[i].Played = true
			}
			updated = true
			break
		}
	}
	snapshot := append([]domain.AssetDescriptor(nil), s.descriptors...)
	s.mu.Unlock()

	if !updated {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, assetID)
	}

	if err := s.meta.Save(context.Background(), snapshot); err != nil {
		s.logger.Error("failed to persist progress", "error", err, "assetID", assetID)
		return err
	}
	s.notify(domain.LibraryEvent{Kind: domain.EventProgress, AssetID: assetID, Descriptors: snapshot})
	return nil
}

func (s *Service) find(assetID string) (domain.AssetDescriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.descriptors {
		if d.ID == assetID {
			return d, true
		}
	}
	return domain.AssetDescriptor{}, false
}

func (s *Service) notice(message string) {
	s.notify(domain.LibraryEvent{Kind: domain.EventNotice, Notice: message, Descriptors: s.List()})
}

func (s *Service) notify(event domain.LibraryEvent) {
	s.obsMu.Lock()
	observers := append([]domain.LibraryObserver(nil), s.observers...)
	s.obsMu.Unlock()
	for _, o := range observers {
		o.OnLibraryChanged(event)
	}
}
