// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package boltforest

import (
	"crypto/rand"
	"fmt"
	mathrand "math/rand"
	"time"

	"forestdb.io/forestgc/pkg/forest"
)

// SeedConfig controls forest seeding.
type SeedConfig struct {
	Paths     int `help:"number of paths to create" default:"3"`
	Snapshots int `help:"number of snapshots per path" default:"5"`
	Depth     int `help:"depth of each snapshot tree" default:"3"`
	Fanout    int `help:"children per interior node" default:"4"`
}

// seedNode mirrors a stored node so copy-on-write edits can share unmodified
// subtrees between consecutive snapshots.
type seedNode struct {
	ref      forest.NodeRef
	children []*seedNode
}

// blockWriter allocates sequential offsets in one fresh block per commit,
// the way a real writer appends all nodes of an edit to a new block.
type blockWriter struct {
	db     *DB
	block  forest.BlockID
	offset uint32
}

func newBlockWriter(db *DB) *blockWriter {
	var block forest.BlockID
	_, _ = rand.Read(block[:])
	return &blockWriter{db: db, block: block}
}

func (writer *blockWriter) write(children []*seedNode) (*seedNode, error) {
	refs := make([]forest.NodeRef, 0, len(children))
	for _, child := range children {
		refs = append(refs, child.ref)
	}

	ref := forest.NewOrdinaryRef(writer.block, writer.offset)
	writer.offset++
	if err := writer.db.PutNode(ref, refs...); err != nil {
		return nil, err
	}
	return &seedNode{ref: ref, children: children}, nil
}

// Seed populates the forest with randomized copy-on-write snapshot
// histories: every snapshot after the first rewrites one root-to-leaf spine
// into a fresh block and shares everything else with its predecessor.
func (db *DB) Seed(config SeedConfig, now time.Time) error {
	if config.Paths < 1 || config.Snapshots < 1 || config.Depth < 1 || config.Fanout < 1 {
		return Error.New("seed parameters must be positive: %+v", config)
	}

	for p := 0; p < config.Paths; p++ {
		path := fmt.Sprintf("path-%03d", p)

		root, err := db.seedTree(config)
		if err != nil {
			return err
		}

		committed := now.Add(-time.Duration(config.Snapshots) * 24 * time.Hour)
		if err := db.Commit(path, root.ref, committed); err != nil {
			return err
		}

		for s := 1; s < config.Snapshots; s++ {
			root, err = db.seedEdit(root, config)
			if err != nil {
				return err
			}
			committed = committed.Add(24 * time.Hour)
			if err := db.Commit(path, root.ref, committed); err != nil {
				return err
			}
		}
	}
	return nil
}

// seedTree builds a complete fresh tree in one block.
func (db *DB) seedTree(config SeedConfig) (*seedNode, error) {
	writer := newBlockWriter(db)

	var build func(depth int) (*seedNode, error)
	build = func(depth int) (*seedNode, error) {
		if depth == 0 {
			return writer.write(nil)
		}
		children := make([]*seedNode, 0, config.Fanout)
		for i := 0; i < config.Fanout; i++ {
			child, err := build(depth - 1)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return writer.write(children)
	}
	return build(config.Depth)
}

// seedEdit rewrites one random root-to-leaf spine of the tree into a fresh
// block, sharing every untouched subtree with the previous snapshot.
func (db *DB) seedEdit(root *seedNode, config SeedConfig) (*seedNode, error) {
	writer := newBlockWriter(db)

	var edit func(node *seedNode, depth int) (*seedNode, error)
	edit = func(node *seedNode, depth int) (*seedNode, error) {
		if depth == 0 {
			return writer.write(nil)
		}
		children := append([]*seedNode{}, node.children...)
		pick := mathrand.Intn(len(children))
		edited, err := edit(children[pick], depth-1)
		if err != nil {
			return nil, err
		}
		children[pick] = edited
		return writer.write(children)
	}
	return edit(root, config.Depth)
}
