package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/netanel-haber/localfiles.stream/internal/domain"
)

// libraryEventMsg wraps a library change event for Bubble Tea.
type libraryEventMsg domain.LibraryEvent

// ChannelObserver adapts domain.LibraryObserver to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan domain.LibraryEvent
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver() *ChannelObserver {
	return &ChannelObserver{ch: make(chan domain.LibraryEvent, 16)}
}

// OnLibraryChanged sends the event to the channel (non-blocking if full).
func (o *ChannelObserver) OnLibraryChanged(event domain.LibraryEvent) {
	select {
	case o.ch <- event:
	default: // Non-blocking if channel full
	}
}

// WaitForEvent returns a command that blocks until the next library event.
func (o *ChannelObserver) WaitForEvent() tea.Cmd {
	return func() tea.Msg {
		return libraryEventMsg(<-o.ch)
	}
}
