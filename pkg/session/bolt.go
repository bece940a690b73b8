package session

import (
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketLogWatch = []byte("log_watch")
	bucketCores    = []byte("known_cores")
)

var keyLogKind = []byte("kind")

// BoltStore implements Store using BoltDB so that session state survives
// harness restarts
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed session store
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "proctor.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketLogWatch, bucketCores} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) LogKind() (string, bool) {
	var kind string
	_ = s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(bucketLogWatch).Get(keyLogKind); data != nil {
			kind = string(data)
		}
		return nil
	})
	return kind, kind != ""
}

func (s *BoltStore) SetLogKind(kind string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLogWatch).Put(keyLogKind, []byte(kind))
	})
}

func (s *BoltStore) KnownCore(key string) bool {
	known := false
	_ = s.db.View(func(tx *bolt.Tx) error {
		known = tx.Bucket(bucketCores).Get([]byte(key)) != nil
		return nil
	})
	return known
}

func (s *BoltStore) AddCore(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCores).Put([]byte(key), []byte{1})
	})
}
