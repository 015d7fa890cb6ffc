// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

// Package boltforest implements a complete single-server forest in one bolt
// file: path and snapshot bookkeeping, tree storage, trivial placement, and
// a block server that honors the preservation contract. It backs the local
// mode of the forestgc CLI and end-to-end tests; a production deployment
// would wire the gc service to the network client library instead.
package boltforest

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"forestdb.io/forestgc/pkg/forest"
	"forestdb.io/forestgc/storage"
	"forestdb.io/forestgc/storage/boltdb"
)

// Error is the boltforest error class.
var Error = errs.Class("boltforest error")

const (
	bucketMeta   = "meta"
	bucketPaths  = "paths"
	bucketNodes  = "nodes"
	bucketBlocks = "blocks"
)

var keyServerID = storage.Key("server-id")

// DB is a forest stored in a single bolt file. It implements every
// collaborator interface the gc service consumes.
type DB struct {
	log      *zap.Logger
	meta     storage.KeyValueStore
	paths    storage.KeyValueStore
	nodes    storage.KeyValueStore
	blocks   storage.KeyValueStore
	serverID forest.ServerID
}

type snapshotRecord struct {
	Root      []byte    `json:"root"`
	Committed time.Time `json:"committed"`
}

type pathRecord struct {
	Current snapshotRecord   `json:"current"`
	History []snapshotRecord `json:"history"`
}

type blockRecord struct {
	Generation  int       `json:"generation"`
	Retained    int       `json:"retained"`
	CompactedAt time.Time `json:"compacted_at"`
}

// Open opens or creates a forest at the given bolt file path.
func Open(log *zap.Logger, path string) (*DB, error) {
	stores, err := boltdb.NewShared(path, bucketMeta, bucketPaths, bucketNodes, bucketBlocks)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	db := &DB{
		log:    log,
		meta:   stores[0],
		paths:  stores[1],
		nodes:  stores[2],
		blocks: stores[3],
	}

	if err := db.loadServerID(); err != nil {
		return nil, errs.Combine(Error.Wrap(err), db.Close())
	}
	return db, nil
}

// loadServerID loads the server identity, generating one on first open.
func (db *DB) loadServerID() error {
	value, err := db.meta.Get(keyServerID)
	if err == nil {
		db.serverID, err = forest.ServerIDFromBytes(value)
		return err
	}
	if !storage.ErrKeyNotFound.Has(err) {
		return err
	}

	var id forest.ServerID
	if _, err := rand.Read(id[:]); err != nil {
		return err
	}
	if err := db.meta.Put(keyServerID, id.Bytes()); err != nil {
		return err
	}
	db.serverID = id
	return nil
}

// Close closes the underlying stores.
func (db *DB) Close() error {
	return errs.Combine(
		db.meta.Close(),
		db.paths.Close(),
		db.nodes.Close(),
		db.blocks.Close(),
	)
}

// ServerID returns the identity of the local block server.
func (db *DB) ServerID() forest.ServerID {
	return db.serverID
}

// PutNode stores a node and its child references. Only ordinary and special
// nodes can be stored; in-memory nodes are transient and have no durable
// form.
func (db *DB) PutNode(ref forest.NodeRef, children ...forest.NodeRef) error {
	if ref.Kind == forest.InMemory {
		return Error.New("in-memory node %s cannot be stored", ref)
	}

	value := make(storage.Value, 0, len(children)*forest.RefEncodedSize)
	for _, child := range children {
		value = append(value, child.Bytes()...)
	}
	return Error.Wrap(db.nodes.Put(storage.Key(ref.Bytes()), value))
}

// Commit makes root the current snapshot of path, moving the previous
// current snapshot into the history. The path is created when missing.
func (db *DB) Commit(path string, root forest.NodeRef, committed time.Time) error {
	if path == "" {
		return Error.New("empty path name")
	}

	var record pathRecord
	value, err := db.paths.Get(storage.Key(path))
	switch {
	case err == nil:
		if err := json.Unmarshal(value, &record); err != nil {
			return Error.Wrap(err)
		}
		record.History = append(record.History, record.Current)
	case storage.ErrKeyNotFound.Has(err):
	default:
		return Error.Wrap(err)
	}

	record.Current = snapshotRecord{Root: root.Bytes(), Committed: committed}

	data, err := json.Marshal(record)
	if err != nil {
		return Error.Wrap(err)
	}
	return Error.Wrap(db.paths.Put(storage.Key(path), data))
}

// ListPaths returns the names of all paths.
func (db *DB) ListPaths(ctx context.Context) ([]string, error) {
	keys, err := db.paths.List(nil, 0)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	paths := make([]string, 0, len(keys))
	for _, key := range keys {
		paths = append(paths, key.String())
	}
	return paths, nil
}

func (db *DB) loadPath(path string) (pathRecord, error) {
	var record pathRecord
	value, err := db.paths.Get(storage.Key(path))
	if err != nil {
		return pathRecord{}, Error.Wrap(err)
	}
	if err := json.Unmarshal(value, &record); err != nil {
		return pathRecord{}, Error.Wrap(err)
	}
	return record, nil
}

func (record snapshotRecord) snapshot() (forest.Snapshot, error) {
	root, err := forest.NodeRefFromBytes(record.Root)
	if err != nil {
		return forest.Snapshot{}, err
	}
	return forest.Snapshot{Root: root, Committed: record.Committed}, nil
}

// Current returns the current snapshot of a path.
func (db *DB) Current(ctx context.Context, path string) (forest.Snapshot, error) {
	record, err := db.loadPath(path)
	if err != nil {
		return forest.Snapshot{}, err
	}
	snapshot, err := record.Current.snapshot()
	return snapshot, Error.Wrap(err)
}

// History returns the historical snapshots of a path committed at or after
// since, oldest first.
func (db *DB) History(ctx context.Context, path string, since time.Time) (forest.SnapshotList, error) {
	record, err := db.loadPath(path)
	if err != nil {
		return nil, err
	}

	var history forest.SnapshotList
	for _, entry := range record.History {
		if entry.Committed.Before(since) {
			continue
		}
		snapshot, err := entry.snapshot()
		if err != nil {
			return nil, Error.Wrap(err)
		}
		history = append(history, snapshot)
	}
	history.SortByCommitTime()
	return history, nil
}

// Children returns the direct child references of a node.
func (db *DB) Children(ctx context.Context, ref forest.NodeRef) ([]forest.NodeRef, error) {
	if ref.Kind == forest.InMemory {
		// transient nodes have no durable children
		return nil, nil
	}

	value, err := db.nodes.Get(storage.Key(ref.Bytes()))
	if err != nil {
		if storage.ErrKeyNotFound.Has(err) {
			return nil, Error.New("unknown node %s", ref)
		}
		return nil, Error.Wrap(err)
	}

	if len(value)%forest.RefEncodedSize != 0 {
		return nil, Error.New("corrupt child list for node %s", ref)
	}
	children := make([]forest.NodeRef, 0, len(value)/forest.RefEncodedSize)
	for i := 0; i < len(value); i += forest.RefEncodedSize {
		child, err := forest.NodeRefFromBytes(value[i : i+forest.RefEncodedSize])
		if err != nil {
			return nil, Error.Wrap(err)
		}
		children = append(children, child)
	}
	return children, nil
}

// Lookup returns the replica set of a block. The local forest has exactly
// one server: itself.
func (db *DB) Lookup(ctx context.Context, block forest.BlockID) (forest.ServerIDList, error) {
	return forest.ServerIDList{db.serverID}, nil
}
