package domain

import (
	"fmt"
	"time"
)

// AssetDescriptor is the persisted, non-binary record describing one media
// asset. The payload it describes lives in the blob store under the same ID.
type AssetDescriptor struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	MimeType        string    `json:"mimeType"`
	SizeBytes       int64     `json:"sizeBytes"`
	ProgressSeconds float64   `json:"progressSeconds"`
	Played          bool      `json:"played,omitempty"`
	DateAdded       time.Time `json:"dateAdded"`
}

// Valid reports whether the descriptor carries the fields required of any
// accepted file-like input.
func (d AssetDescriptor) Valid() bool {
	return d.ID != "" && d.Name != "" && d.MimeType != "" && d.SizeBytes >= 0
}

// FormattedSize returns the payload size in a human-readable format.
func (d AssetDescriptor) FormattedSize() string {
	const (
		gb = 1024 * 1024 * 1024
		mb = 1024 * 1024
		kb = 1024
	)
	switch {
	case d.SizeBytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(d.SizeBytes)/gb)
	case d.SizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(d.SizeBytes)/mb)
	case d.SizeBytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(d.SizeBytes)/kb)
	default:
		return fmt.Sprintf("%d B", d.SizeBytes)
	}
}

// WatchStatus returns the watch status for indicator rendering.
func (d AssetDescriptor) WatchStatus() WatchStatus {
	if d.Played {
		return WatchStatusWatched
	}
	if d.ProgressSeconds > 0 {
		return WatchStatusInProgress
	}
	return WatchStatusUnwatched
}

// ShouldResume reports whether playback should resume from the saved position.
func (d AssetDescriptor) ShouldResume() bool {
	return d.ProgressSeconds > 0 && !d.Played
}

// WatchStatus indicates how much of an asset has been watched.
type WatchStatus int

const (
	WatchStatusUnwatched WatchStatus = iota
	WatchStatusInProgress
	WatchStatusWatched
)

// IncomingFile is a file-like input handed to the library, either from a file
// picker or extracted from an inbound share payload.
type IncomingFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// ShareEntry is one staged file written by the share receiver, pending
// ingestion by the library. Always ephemeral: it exists only until the next
// drain clears the staging store.
type ShareEntry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	DateShared time.Time `json:"dateShared"`
	Payload    []byte    `json:"payload"`
}

// Valid reports whether the entry may be ingested: payload present and
// non-empty, and name, mime type and size all defined.
func (e ShareEntry) Valid() bool {
	return len(e.Payload) > 0 &&
		e.Name != "" &&
		e.MimeType != "" &&
		e.SizeBytes > 0
}

// Descriptor converts the staged entry into the descriptor that will be
// persisted once the payload is stored.
func (e ShareEntry) Descriptor() AssetDescriptor {
	return AssetDescriptor{
		ID:        e.ID,
		Name:      e.Name,
		MimeType:  e.MimeType,
		SizeBytes: e.SizeBytes,
		DateAdded: e.DateShared,
	}
}
