// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

// Package boltdb implements the KeyValueStore interface on a bolt database.
package boltdb

import (
	"sync/atomic"
	"time"

	"github.com/boltdb/bolt"

	"forestdb.io/forestgc/storage"
)

var defaultTimeout = 1 * time.Second

// fileMode sets permissions so only the owner can read and write.
const fileMode = 0600

// Client is a bolt-backed key/value store bound to a single bucket.
type Client struct {
	db     *bolt.DB
	opened *int32
	Path   string
	Bucket []byte
}

// New instantiates a new client backed by the bolt file at path, bound to
// the named bucket. The bucket is created when missing.
func New(path, bucket string) (*Client, error) {
	db, err := bolt.Open(path, fileMode, &bolt.Options{Timeout: defaultTimeout})
	if err != nil {
		return nil, err
	}

	clients, err := wrap(db, path, bucket)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return clients[0], nil
}

// NewShared instantiates a client per bucket, all sharing one bolt file.
// Bolt locks the file exclusively, so every bucket of the same file must go
// through the same open handle.
func NewShared(path string, buckets ...string) ([]*Client, error) {
	db, err := bolt.Open(path, fileMode, &bolt.Options{Timeout: defaultTimeout})
	if err != nil {
		return nil, err
	}

	clients, err := wrap(db, path, buckets...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return clients, nil
}

func wrap(db *bolt.DB, path string, buckets ...string) ([]*Client, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	opened := new(int32)
	*opened = int32(len(buckets))

	clients := make([]*Client, 0, len(buckets))
	for _, bucket := range buckets {
		clients = append(clients, &Client{
			db:     db,
			opened: opened,
			Path:   path,
			Bucket: []byte(bucket),
		})
	}
	return clients, nil
}

// Put adds a value to the provided key.
func (client *Client) Put(key storage.Key, value storage.Value) error {
	if key.IsZero() {
		return storage.ErrEmptyKey
	}
	return client.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(client.Bucket).Put(key, value)
	})
}

// Get looks up the value of a key.
func (client *Client) Get(key storage.Key) (storage.Value, error) {
	if key.IsZero() {
		return nil, storage.ErrEmptyKey
	}

	var value storage.Value
	err := client.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(client.Bucket).Get(key)
		if data == nil {
			return storage.ErrKeyNotFound.New("%q", key)
		}
		value = storage.CloneValue(storage.Value(data))
		return nil
	})
	return value, err
}

// List returns up to limit keys starting at first, in key order.
func (client *Client) List(first storage.Key, limit storage.Limit) (storage.Keys, error) {
	var keys storage.Keys
	err := client.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(client.Bucket).Cursor()

		var key []byte
		if first.IsZero() {
			key, _ = cursor.First()
		} else {
			key, _ = cursor.Seek(first)
		}
		for ; key != nil; key, _ = cursor.Next() {
			keys = append(keys, storage.CloneKey(storage.Key(key)))
			if limit > 0 && len(keys) >= int(limit) {
				break
			}
		}
		return nil
	})
	return keys, err
}

// Delete removes a key. Deleting a missing key is not an error.
func (client *Client) Delete(key storage.Key) error {
	if key.IsZero() {
		return storage.ErrEmptyKey
	}
	return client.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(client.Bucket).Delete(key)
	})
}

// Close closes the client. The underlying bolt file is closed once every
// client sharing it has been closed.
func (client *Client) Close() error {
	if atomic.AddInt32(client.opened, -1) == 0 {
		return client.db.Close()
	}
	return nil
}
