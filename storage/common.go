// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package storage

import (
	"bytes"

	"github.com/zeebo/errs"
)

// ErrEmptyKey is returned when an empty key is used.
var ErrEmptyKey = errs.New("empty key")

// ErrKeyNotFound is returned when a key is not found.
var ErrKeyNotFound = errs.Class("key not found")

// Key is the type for the keys in a KeyValueStore.
type Key []byte

// Value is the type for the values in a KeyValueStore.
type Value []byte

// Keys is a slice of keys.
type Keys []Key

// Limit indicates how many keys to return when calling List.
type Limit int

// KeyValueStore describes an ordered key/value store.
type KeyValueStore interface {
	// Put adds a value to the provided key, returning an error on failure.
	Put(Key, Value) error
	// Get returns the value for a key, or ErrKeyNotFound.
	Get(Key) (Value, error)
	// List returns up to limit keys, starting at first, in order.
	List(first Key, limit Limit) (Keys, error)
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(Key) error
	Close() error
}

// IsZero returns true if the value is its zero value.
func (v Value) IsZero() bool {
	return len(v) == 0
}

// IsZero returns true if the key is its zero value.
func (k Key) IsZero() bool {
	return len(k) == 0
}

// Less returns whether k is before other in key order.
func (k Key) Less(other Key) bool {
	return bytes.Compare(k, other) < 0
}

// Equal returns whether the keys are equal.
func (k Key) Equal(other Key) bool {
	return bytes.Equal(k, other)
}

// HasPrefix returns whether the key begins with prefix.
func (k Key) HasPrefix(prefix Key) bool {
	return bytes.HasPrefix(k, prefix)
}

// String implements the Stringer interface.
func (k Key) String() string {
	return string(k)
}

// CloneKey creates a copy of the key.
func CloneKey(key Key) Key {
	return append(Key{}, key...)
}

// CloneValue creates a copy of the value.
func CloneValue(value Value) Value {
	return append(Value{}, value...)
}
