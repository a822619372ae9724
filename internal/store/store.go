package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketBlobs    = []byte("blobs")
	bucketSizes    = []byte("blobsizes")
	bucketMetadata = []byte("metadata")
	bucketStaging  = []byte("staging")
)

// usedKey tracks total stored payload bytes inside the sizes bucket.
var usedKey = []byte("__used__")

// Store wraps a single BoltDB file holding the blob store, the metadata
// snapshot and the share staging area. The three views share one handle so
// the whole library lives in one file on disk.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the library database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, "library.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketBlobs, bucketSizes, bucketMetadata, bucketStaging} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// clearBucket deletes every key in the bucket via a cursor walk.
func clearBucket(tx *bolt.Tx, bucket []byte) error {
	b := tx.Bucket(bucket)
	if b == nil {
		return nil
	}
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
