package domain

// SessionState is the playback session's state machine position.
type SessionState int

const (
	// SessionIdle means no asset is selected.
	SessionIdle SessionState = iota
	// SessionPlaying means one asset is bound to a live handle.
	SessionPlaying
)

func (s SessionState) String() string {
	switch s {
	case SessionPlaying:
		return "playing"
	default:
		return "idle"
	}
}

// PlaybackState is the transient, process-wide view of what is playing.
// At most one asset is active at a time.
type PlaybackState struct {
	State           SessionState
	AssetID         string
	PositionSeconds float64
}

// ProgressSink receives progress reports from the playback session and is
// responsible for persisting them. Implemented by the asset library.
type ProgressSink interface {
	ReportProgress(assetID string, seconds float64) error
	FinalizeProgress(assetID string, durationSeconds float64) error
}
