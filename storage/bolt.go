package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	authclient "github.com/goliatone/go-auth-client"
)

var boltBucket = []byte("skillsphere")

// Bolt keeps entries in a single bucket of a bolt file.
type Bolt struct {
	db *bolt.DB
}

var _ authclient.Storage = (*Bolt)(nil)

// OpenBolt opens or creates the bolt file at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(boltBucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		// raw is only valid inside the transaction
		value = string(raw)
		found = true
		return nil
	})
	return value, found, err
}

func (b *Bolt) Set(_ context.Context, key, value string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), []byte(value))
	})
}

func (b *Bolt) Delete(_ context.Context, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
}

// Close releases the file lock
func (b *Bolt) Close() error {
	return b.db.Close()
}
