package domain

import "context"

// BlobStore is durable key -> binary-object storage with no ordering
// semantics. Put overwrites silently; Delete of an absent id is a no-op.
type BlobStore interface {
	Put(ctx context.Context, id string, blob []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Has(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// MetadataStore persists the ordered descriptor list as a single snapshot.
// Save replaces any prior snapshot wholesale; every mutation anywhere in the
// list requires re-saving the whole list. The index is kilobytes of JSON, so
// overwrite simplicity wins over incremental patching.
type MetadataStore interface {
	Load(ctx context.Context) ([]AssetDescriptor, error)
	Save(ctx context.Context, descriptors []AssetDescriptor) error
}

// StagingStore is the ephemeral holding area for files delivered via the OS
// share mechanism. The share receiver is its only writer; the library drains
// it at-most-once.
type StagingStore interface {
	// Replace clears the staging area and writes the new batch in its place.
	Replace(ctx context.Context, entries []ShareEntry) error

	// All returns every staged entry in insertion order.
	All(ctx context.Context) ([]ShareEntry, error)

	// Clear removes every staged entry.
	Clear(ctx context.Context) error
}

// HandleManager maps asset ids to live, revocable playback handles.
// Acquire is memoized: a second call for a live id returns the same URI and
// ignores the blob. Duplicate handles for the same content would leak the
// scarce handle budget the host enforces.
type HandleManager interface {
	Acquire(assetID string, blob []byte) (string, error)
	Release(assetID string)
	ReleaseAll()
	Live() int
}
