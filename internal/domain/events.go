package domain

// LibraryEventKind classifies library change notifications.
type LibraryEventKind int

const (
	EventReloaded LibraryEventKind = iota
	EventAdded
	EventRemoved
	EventCleared
	EventProgress
	EventNotice
)

// LibraryEvent is a change notification delivered to subscribers after the
// library mutates. Descriptors is the full ordered list after the change.
type LibraryEvent struct {
	Kind        LibraryEventKind
	AssetID     string            // set for Added/Removed/Progress
	Descriptors []AssetDescriptor // snapshot after the change
	Notice      string            // user-visible message, set for EventNotice
}

// LibraryObserver receives library change events.
type LibraryObserver interface {
	OnLibraryChanged(event LibraryEvent)
}

// NoOpObserver discards change events (for testing/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnLibraryChanged(LibraryEvent) {}

// ShareOutcome is the tagged outcome the share receiver hands to the
// foreground context: success (drain now) or failure plus an encoded error
// name and message (render as a diagnostic, do not drain).
type ShareOutcome struct {
	OK      bool
	Name    string
	Message string
}
