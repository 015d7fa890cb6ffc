// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package boltforest

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"forestdb.io/forestgc/gc"
	"forestdb.io/forestgc/pkg/forest"
	"forestdb.io/forestgc/storage"
)

var (
	_ gc.Snapshots = (*DB)(nil)
	_ gc.Trees     = (*DB)(nil)
	_ gc.Placement = (*DB)(nil)
	_ gc.Preserver = (*DB)(nil)
)

// Preserve compacts a block down to the live set carried by the request:
// every stored node of the block the request does not keep is deleted.
// Repeated delivery with the same live set deletes nothing after the first
// compaction, so the operation is idempotent.
func (db *DB) Preserve(ctx context.Context, server forest.ServerID, req *gc.PreserveRequest) error {
	if server != db.serverID {
		return Error.New("server %s is not served here", server)
	}
	if req.Block.IsZero() {
		return Error.New("empty block id")
	}

	stored, err := db.blockNodes(req.Block)
	if err != nil {
		return err
	}

	retained, deleted := 0, 0
	for _, ref := range stored {
		if err := ctx.Err(); err != nil {
			return Error.Wrap(err)
		}
		if req.Keep(ref) {
			retained++
			continue
		}
		if err := db.nodes.Delete(storage.Key(ref.Bytes())); err != nil {
			return Error.Wrap(err)
		}
		deleted++
	}

	record := blockRecord{Retained: retained, CompactedAt: time.Now().UTC()}
	if value, err := db.blocks.Get(storage.Key(req.Block.Bytes())); err == nil {
		var previous blockRecord
		if err := json.Unmarshal(value, &previous); err != nil {
			return Error.Wrap(err)
		}
		record.Generation = previous.Generation
	} else if !storage.ErrKeyNotFound.Has(err) {
		return Error.Wrap(err)
	}
	if deleted > 0 {
		record.Generation++
	}

	data, err := json.Marshal(record)
	if err != nil {
		return Error.Wrap(err)
	}
	if err := db.blocks.Put(storage.Key(req.Block.Bytes()), data); err != nil {
		return Error.Wrap(err)
	}

	db.log.Debug("block compacted",
		zap.Stringer("block", req.Block),
		zap.Int("retained", retained),
		zap.Int("deleted", deleted),
		zap.Int("generation", record.Generation))
	return nil
}

// BlockNodes returns the references of every node currently stored in the
// block, in content order.
func (db *DB) BlockNodes(block forest.BlockID) ([]forest.NodeRef, error) {
	return db.blockNodes(block)
}

// BlockGeneration returns how many compactions have changed the block.
func (db *DB) BlockGeneration(block forest.BlockID) (int, error) {
	value, err := db.blocks.Get(storage.Key(block.Bytes()))
	if err != nil {
		if storage.ErrKeyNotFound.Has(err) {
			return 0, nil
		}
		return 0, Error.Wrap(err)
	}
	var record blockRecord
	if err := json.Unmarshal(value, &record); err != nil {
		return 0, Error.Wrap(err)
	}
	return record.Generation, nil
}

// blockNodes scans the node keyspace of one block. Ordinary node keys begin
// with the kind byte followed by the block id, so the block's nodes form a
// contiguous key range.
func (db *DB) blockNodes(block forest.BlockID) ([]forest.NodeRef, error) {
	prefix := storage.Key(forest.NewOrdinaryRef(block, 0).Bytes()[:1+len(forest.BlockID{})])

	keys, err := db.nodes.List(prefix, 0)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	var refs []forest.NodeRef
	for _, key := range keys {
		if !key.HasPrefix(prefix) {
			break
		}
		ref, err := forest.NodeRefFromBytes(key)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
