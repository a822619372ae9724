package ingest

import "github.com/netanel-haber/localfiles.stream/internal/domain"

// Signal is the side channel between the share receiver and the library.
// The two sides never call each other; the receiver publishes a tagged
// outcome and the library observes it. Publishing never blocks: if nobody is
// listening the outcome is dropped, and the library's start-up sweep picks
// the staged batch up instead.
type Signal struct {
	ch chan domain.ShareOutcome
}

// NewSignal creates a Signal with a one-slot buffer.
func NewSignal() *Signal {
	return &Signal{ch: make(chan domain.ShareOutcome, 1)}
}

// Publish delivers outcome to the listener, dropping it if the slot is full.
func (s *Signal) Publish(outcome domain.ShareOutcome) {
	select {
	case s.ch <- outcome:
	default:
	}
}

// Outcomes returns the channel the consumer selects on.
func (s *Signal) Outcomes() <-chan domain.ShareOutcome {
	return s.ch
}
