package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/netanel-haber/localfiles.stream/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// StagingStore implements domain.StagingStore. Keys are zero-padded sequence
// numbers so a cursor walk yields entries in insertion order.
type StagingStore struct {
	store *Store
}

// NewStagingStore creates a StagingStore over the shared handle.
func NewStagingStore(store *Store) *StagingStore {
	return &StagingStore{store: store}
}

// Replace clears the staging area and writes entries in its place. A new
// inbound share always overwrites whatever an earlier, undrained share left
// behind.
func (s *StagingStore) Replace(ctx context.Context, entries []domain.ShareEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.db.Update(func(tx *bolt.Tx) error {
		if err := clearBucket(tx, bucketStaging); err != nil {
			return err
		}
		b := tx.Bucket(bucketStaging)
		if err := b.SetSequence(0); err != nil {
			return err
		}
		for _, entry := range entries {
			data, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			if err := b.Put([]byte(fmt.Sprintf("%012d", seq)), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// All returns every staged entry in insertion order. Records that fail to
// decode are skipped; the drain validates entries anyway.
func (s *StagingStore) All(ctx context.Context) ([]domain.ShareEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entries []domain.ShareEntry
	err := s.store.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketStaging).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var entry domain.ShareEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Clear removes every staged entry.
func (s *StagingStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.db.Update(func(tx *bolt.Tx) error {
		return clearBucket(tx, bucketStaging)
	})
}
