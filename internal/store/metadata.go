package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/netanel-haber/localfiles.stream/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// snapshotKey holds the entire ordered descriptor list as one JSON value.
const snapshotKey = "list"

// MetadataStore implements domain.MetadataStore. The whole list is persisted
// as a single snapshot under one key; binary payloads never appear in it.
// A memory copy of the last snapshot serves hot-path reads.
type MetadataStore struct {
	store *Store

	mu    sync.RWMutex
	cache []byte // last marshalled snapshot, promoted on access
}

// NewMetadataStore creates a MetadataStore over the shared handle.
func NewMetadataStore(store *Store) *MetadataStore {
	return &MetadataStore{store: store}
}

// Load returns the ordered descriptor list from the last saved snapshot.
// A missing snapshot is an empty library, not an error.
func (m *MetadataStore) Load(ctx context.Context) ([]domain.AssetDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	cached := m.cache
	m.mu.RUnlock()

	if cached == nil {
		var data []byte
		err := m.store.db.View(func(tx *bolt.Tx) error {
			if v := tx.Bucket(bucketMetadata).Get([]byte(snapshotKey)); v != nil {
				data = make([]byte, len(v))
				copy(data, v)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if data == nil {
			return nil, nil
		}

		m.mu.Lock()
		m.cache = data
		m.mu.Unlock()
		cached = data
	}

	var descriptors []domain.AssetDescriptor
	if err := json.Unmarshal(cached, &descriptors); err != nil {
		return nil, err
	}
	return descriptors, nil
}

// Save persists descriptors as the new snapshot, replacing any prior one.
func (m *MetadataStore) Save(ctx context.Context, descriptors []domain.AssetDescriptor) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if descriptors == nil {
		descriptors = []domain.AssetDescriptor{}
	}
	data, err := json.Marshal(descriptors)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.cache = data
	m.mu.Unlock()

	return m.store.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMetadata).Put([]byte(snapshotKey), data)
	})
}
