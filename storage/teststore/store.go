// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

// Package teststore implements an in-memory KeyValueStore for tests.
package teststore

import (
	"sort"
	"sync"

	"forestdb.io/forestgc/storage"
)

type keyValue struct {
	key   storage.Key
	value storage.Value
}

// Client implements an in-memory key value store.
type Client struct {
	mu    sync.Mutex
	items []keyValue

	CallCount struct {
		Get    int
		Put    int
		List   int
		Delete int
		Close  int
	}
}

// New creates a new in-memory key-value store.
func New() *Client { return &Client{} }

// indexOf finds the index of key or where it could be inserted.
func (store *Client) indexOf(key storage.Key) (int, bool) {
	i := sort.Search(len(store.items), func(k int) bool {
		return !store.items[k].key.Less(key)
	})

	if i >= len(store.items) {
		return i, false
	}
	return i, store.items[i].key.Equal(key)
}

// Put adds a value to the store.
func (store *Client) Put(key storage.Key, value storage.Value) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.CallCount.Put++

	if key.IsZero() {
		return storage.ErrEmptyKey
	}

	keyIndex, found := store.indexOf(key)
	if found {
		store.items[keyIndex].value = storage.CloneValue(value)
		return nil
	}

	store.items = append(store.items, keyValue{})
	copy(store.items[keyIndex+1:], store.items[keyIndex:])
	store.items[keyIndex] = keyValue{
		key:   storage.CloneKey(key),
		value: storage.CloneValue(value),
	}
	return nil
}

// Get looks up the value of a key.
func (store *Client) Get(key storage.Key) (storage.Value, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.CallCount.Get++

	if key.IsZero() {
		return nil, storage.ErrEmptyKey
	}

	keyIndex, found := store.indexOf(key)
	if !found {
		return nil, storage.ErrKeyNotFound.New("%q", key)
	}
	return storage.CloneValue(store.items[keyIndex].value), nil
}

// List returns up to limit keys starting at first, in key order.
func (store *Client) List(first storage.Key, limit storage.Limit) (storage.Keys, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.CallCount.List++

	start, _ := store.indexOf(first)
	var keys storage.Keys
	for i := start; i < len(store.items); i++ {
		keys = append(keys, storage.CloneKey(store.items[i].key))
		if limit > 0 && len(keys) >= int(limit) {
			break
		}
	}
	return keys, nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (store *Client) Delete(key storage.Key) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.CallCount.Delete++

	if key.IsZero() {
		return storage.ErrEmptyKey
	}

	keyIndex, found := store.indexOf(key)
	if !found {
		return nil
	}

	copy(store.items[keyIndex:], store.items[keyIndex+1:])
	store.items = store.items[:len(store.items)-1]
	return nil
}

// Close closes the store.
func (store *Client) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.CallCount.Close++
	return nil
}
