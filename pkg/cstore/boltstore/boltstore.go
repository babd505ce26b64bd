// Package boltstore implements cstore.Backend on a single-file bbolt
// database, giving a local process durable storage without a server.
package boltstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Ratio1/cart_sdk_go/pkg/cstore"
)

// DefaultBucket holds all keys.
const DefaultBucket = "cstore"

// Store is a bbolt-backed cstore.Backend.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

var (
	_ cstore.Backend = (*Store)(nil)
	_ cstore.Pinger  = (*Store)(nil)
)

// Open opens (creating if needed) the database at path. The file lock is
// waited on for at most timeout; zero means one second.
func Open(path string, timeout time.Duration) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("boltstore: path is required")
	}
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}
	s := &Store{db: db, bucket: []byte(DefaultBucket)}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("boltstore: create bucket: %w", err)
	}
	return s, nil
}

// GetRaw returns a copy of the value; bbolt memory is only valid inside the
// transaction.
func (s *Store) GetRaw(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(s.bucket).Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

func (s *Store) PutRaw(ctx context.Context, key string, raw []byte) (*cstore.RawItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value := append([]byte(nil), raw...)
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), value)
	}); err != nil {
		return nil, fmt.Errorf("boltstore: put %q: %w", key, err)
	}
	return &cstore.RawItem{Key: key, Value: value}, nil
}

// ListKeys returns keys in bbolt's byte order, which is lexical.
func (s *Store) ListKeys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (s *Store) DeleteRaw(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b.Get([]byte(key)) == nil {
			return cstore.ErrNotFound
		}
		return b.Delete([]byte(key))
	})
}

func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return errors.New("boltstore: bucket missing")
		}
		return nil
	})
}

// Close releases the file lock.
func (s *Store) Close() error {
	return s.db.Close()
}
