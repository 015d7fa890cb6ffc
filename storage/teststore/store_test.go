// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package teststore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"forestdb.io/forestgc/storage"
)

func TestCRUD(t *testing.T) {
	store := New()
	defer func() { require.NoError(t, store.Close()) }()

	require.NoError(t, store.Put(storage.Key("b"), storage.Value("2")))
	require.NoError(t, store.Put(storage.Key("a"), storage.Value("1")))
	require.NoError(t, store.Put(storage.Key("c"), storage.Value("3")))

	value, err := store.Get(storage.Key("b"))
	require.NoError(t, err)
	require.Equal(t, storage.Value("2"), value)

	// overwrite
	require.NoError(t, store.Put(storage.Key("b"), storage.Value("22")))
	value, err = store.Get(storage.Key("b"))
	require.NoError(t, err)
	require.Equal(t, storage.Value("22"), value)

	_, err = store.Get(storage.Key("missing"))
	require.True(t, storage.ErrKeyNotFound.Has(err))

	require.NoError(t, store.Delete(storage.Key("b")))
	_, err = store.Get(storage.Key("b"))
	require.True(t, storage.ErrKeyNotFound.Has(err))

	// deleting a missing key is not an error
	require.NoError(t, store.Delete(storage.Key("b")))

	require.Equal(t, storage.ErrEmptyKey, store.Put(nil, storage.Value("x")))
	_, err = store.Get(nil)
	require.Equal(t, storage.ErrEmptyKey, err)
}

func TestList(t *testing.T) {
	store := New()
	defer func() { require.NoError(t, store.Close()) }()

	for _, key := range []string{"d", "b", "a", "c"} {
		require.NoError(t, store.Put(storage.Key(key), storage.Value(key)))
	}

	keys, err := store.List(nil, 0)
	require.NoError(t, err)
	require.Equal(t, storage.Keys{
		storage.Key("a"), storage.Key("b"), storage.Key("c"), storage.Key("d"),
	}, keys)

	// starting key is inclusive and limit caps the result
	keys, err = store.List(storage.Key("b"), 2)
	require.NoError(t, err)
	require.Equal(t, storage.Keys{storage.Key("b"), storage.Key("c")}, keys)

	// seeking between keys starts at the next key
	keys, err = store.List(storage.Key("bb"), 0)
	require.NoError(t, err)
	require.Equal(t, storage.Keys{storage.Key("c"), storage.Key("d")}, keys)
}
