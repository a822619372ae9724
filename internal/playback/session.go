package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/netanel-haber/localfiles.stream/internal/domain"
)

// launcher abstracts the external player (consumer-defined interface).
type launcher interface {
	Launch(uri string, startOffset time.Duration) error
}

// Session is the playback state machine: Idle (no asset selected) or Playing
// (one asset bound to a live handle). Progress reports are written through
// the sink on every tick, trading write volume for durability. Playback
// failures stay inside the session; they never touch the persisted library.
type Session struct {
	blobs    domain.BlobStore
	handles  domain.HandleManager
	launcher launcher
	sink     domain.ProgressSink
	logger   *slog.Logger

	mu    sync.Mutex
	state domain.PlaybackState
}

// NewSession creates an idle Session.
func NewSession(
	blobs domain.BlobStore,
	handles domain.HandleManager,
	launcher launcher,
	sink domain.ProgressSink,
	logger *slog.Logger,
) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		blobs:    blobs,
		handles:  handles,
		launcher: launcher,
		sink:     sink,
		logger:   logger,
	}
}

// Play binds the session to the descriptor's asset: acquires a handle and
// starts the player, resuming from the stored progress when there is one.
// On any failure the session stays Idle.
func (s *Session) Play(ctx context.Context, descriptor domain.AssetDescriptor) error {
	blob, err := s.blobs.Get(ctx, descriptor.ID)
	if err != nil {
		s.logger.Error("failed to load asset payload", "error", err, "assetID", descriptor.ID)
		return fmt.Errorf("failed to load %q: %w", descriptor.Name, err)
	}

	uri, err := s.handles.Acquire(descriptor.ID, blob)
	if err != nil {
		s.logger.Error("failed to acquire handle", "error", err, "assetID", descriptor.ID)
		return err
	}

	var offset time.Duration
	if descriptor.ShouldResume() {
		offset = time.Duration(descriptor.ProgressSeconds * float64(time.Second))
	}

	if err := s.launcher.Launch(uri, offset); err != nil {
		s.logger.Error("failed to launch player", "error", err, "assetID", descriptor.ID)
		return fmt.Errorf("failed to play %q: %w", descriptor.Name, err)
	}

	s.mu.Lock()
	s.state = domain.PlaybackState{
		State:           domain.SessionPlaying,
		AssetID:         descriptor.ID,
		PositionSeconds: descriptor.ProgressSeconds,
	}
	s.mu.Unlock()

	s.logger.Info("playback started",
		"assetID", descriptor.ID, "name", descriptor.Name, "offsetSeconds", descriptor.ProgressSeconds)
	return nil
}

// ReportProgress records a periodic time-update for the playing asset and
// writes it through to the metadata snapshot. Reports while Idle are ignored.
func (s *Session) ReportProgress(seconds float64) error {
	s.mu.Lock()
	if s.state.State != domain.SessionPlaying {
		s.mu.Unlock()
		return nil
	}
	assetID := s.state.AssetID
	s.state.PositionSeconds = seconds
	s.mu.Unlock()

	return s.sink.ReportProgress(assetID, seconds)
}

// Finish finalizes progress to the full duration on end-of-media and returns
// the session to Idle.
func (s *Session) Finish(durationSeconds float64) error {
	s.mu.Lock()
	if s.state.State != domain.SessionPlaying {
		s.mu.Unlock()
		return nil
	}
	assetID := s.state.AssetID
	s.state = domain.PlaybackState{}
	s.mu.Unlock()

	s.logger.Info("playback finished", "assetID", assetID, "durationSeconds", durationSeconds)
	return s.sink.FinalizeProgress(assetID, durationSeconds)
}

// Stop tears the session down on navigation away. The handle stays live and
// memoized; it is only revoked when the asset is deleted.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.State == domain.SessionPlaying {
		s.logger.Debug("playback stopped", "assetID", s.state.AssetID)
	}
	s.state = domain.PlaybackState{}
}

// AssetRemoved tears the session down if the removed asset was playing.
func (s *Session) AssetRemoved(assetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.State == domain.SessionPlaying && s.state.AssetID == assetID {
		s.state = domain.PlaybackState{}
	}
}

// State returns the current playback state.
func (s *Session) State() domain.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
