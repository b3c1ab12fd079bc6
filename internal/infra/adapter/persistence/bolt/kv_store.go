// Package bolt stores the recipe collection in a single-file bbolt database.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"recipe-box/internal/repository"
)

const bucketKV = "kv" // key: namespace key -> collection payload

// KVStore is a bbolt-backed key-value store. bbolt holds an exclusive file lock,
// so only one process may open a given path at a time.
type KVStore struct {
	storage *bbolt.DB
}

// Open opens (or creates) the bbolt file at path and ensures the kv bucket exists.
func Open(path string) (repository.KeyValueStore, error) {
	instance, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}

	if err := instance.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketKV))
		return err
	}); err != nil {
		_ = instance.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &KVStore{storage: instance}, nil
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var value []byte
	err := s.storage.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketKV))
		if b == nil {
			return errors.New("kv bucket missing")
		}
		if v := b.Get([]byte(key)); v != nil {
			// bbolt memory is only valid inside the transaction
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("Get: View: %w", err)
	}
	return value, value != nil, nil
}

func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.storage.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketKV)).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("Put: Update: %w", err)
	}
	return nil
}

func (s *KVStore) Ping(ctx context.Context) error {
	return s.storage.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(bucketKV)) == nil {
			return errors.New("kv bucket missing")
		}
		return nil
	})
}

func (s *KVStore) Close() error {
	return s.storage.Close()
}
