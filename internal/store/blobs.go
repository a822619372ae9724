package store

import (
	"context"
	"encoding/binary"

	"github.com/netanel-haber/localfiles.stream/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// BlobStore implements domain.BlobStore over the shared BoltDB handle.
// A non-zero quota caps the total stored payload bytes; Put refuses to grow
// past it with domain.ErrQuotaExceeded and leaves prior blobs untouched.
type BlobStore struct {
	store *Store
	quota int64
}

// NewBlobStore creates a BlobStore. quota <= 0 disables the byte budget.
func NewBlobStore(store *Store, quota int64) *BlobStore {
	return &BlobStore{store: store, quota: quota}
}

// Put stores blob under id, silently overwriting any existing payload.
// The per-id size record and the running used-bytes counter are updated in
// the same transaction, so quota accounting survives crashes.
func (b *BlobStore) Put(ctx context.Context, id string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.store.db.Update(func(tx *bolt.Tx) error {
		blobs := tx.Bucket(bucketBlobs)
		sizes := tx.Bucket(bucketSizes)

		prior := readSize(sizes, []byte(id))
		used := readSize(sizes, usedKey)
		next := used - prior + int64(len(blob))

		if b.quota > 0 && next > b.quota {
			return domain.ErrQuotaExceeded
		}

		if err := blobs.Put([]byte(id), blob); err != nil {
			return err
		}
		if err := writeSize(sizes, []byte(id), int64(len(blob))); err != nil {
			return err
		}
		return writeSize(sizes, usedKey, next)
	})
}

// Get returns the payload for id, or domain.ErrNotFound.
func (b *BlobStore) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := b.store.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketBlobs).Get([]byte(id)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

// Has reports whether a payload exists for id without copying it out.
func (b *BlobStore) Has(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found bool
	err := b.store.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketBlobs).Get([]byte(id)) != nil
		return nil
	})
	return found, err
}

// Delete removes the payload for id. Deleting an absent id is not an error.
func (b *BlobStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.store.db.Update(func(tx *bolt.Tx) error {
		blobs := tx.Bucket(bucketBlobs)
		sizes := tx.Bucket(bucketSizes)

		prior := readSize(sizes, []byte(id))
		if err := blobs.Delete([]byte(id)); err != nil {
			return err
		}
		if err := sizes.Delete([]byte(id)); err != nil {
			return err
		}
		if prior == 0 {
			return nil
		}
		used := readSize(sizes, usedKey)
		return writeSize(sizes, usedKey, used-prior)
	})
}

// Clear removes every payload and resets the byte accounting.
func (b *BlobStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.store.db.Update(func(tx *bolt.Tx) error {
		if err := clearBucket(tx, bucketBlobs); err != nil {
			return err
		}
		return clearBucket(tx, bucketSizes)
	})
}

// UsedBytes returns the total stored payload bytes.
func (b *BlobStore) UsedBytes(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var used int64
	err := b.store.db.View(func(tx *bolt.Tx) error {
		used = readSize(tx.Bucket(bucketSizes), usedKey)
		return nil
	})
	return used, err
}

func readSize(b *bolt.Bucket, key []byte) int64 {
	v := b.Get(key)
	if len(v) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(v))
}

func writeSize(b *bolt.Bucket, key []byte, size int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(size))
	return b.Put(key, buf[:])
}
