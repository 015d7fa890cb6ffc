// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

// Package bloomfilter implements a compact summary of a set of node
// references. A filter can yield false positives but never false negatives,
// so a block server retaining every node that matches the filter can only
// over-preserve, never delete live data.
package bloomfilter

import (
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/zeebo/errs"

	"forestdb.io/forestgc/pkg/forest"
)

// Error is the bloomfilter error class.
var Error = errs.Class("bloomfilter error")

// version of the binary encoding.
const version = 1

// Filter is a bloom filter over node references.
type Filter struct {
	seed      byte
	hashCount byte
	table     []byte
}

// New returns a filter with the given parameters.
func New(seed, hashCount, sizeInBytes int) *Filter {
	return &Filter{
		seed:      byte(seed),
		hashCount: byte(hashCount),
		table:     make([]byte, sizeInBytes),
	}
}

// NewOptimal returns a filter based on the expected element count and the
// acceptable false positive rate.
func NewOptimal(expectedElements int, falsePositiveRate float64) *Filter {
	hashCount, sizeInBytes := getHashCountAndSize(expectedElements, falsePositiveRate)
	seed := rand.Intn(forest.RefEncodedSize)
	return New(seed, hashCount, sizeInBytes)
}

// NewOptimalMaxSize returns a filter based on the expected element count and
// the acceptable false positive rate, capped at maxSizeBytes.
func NewOptimalMaxSize(expectedElements int, falsePositiveRate float64, maxSizeBytes int) *Filter {
	hashCount, sizeInBytes := getHashCountAndSize(expectedElements, falsePositiveRate)
	if sizeInBytes > maxSizeBytes {
		sizeInBytes = maxSizeBytes
	}
	seed := rand.Intn(forest.RefEncodedSize)
	return New(seed, hashCount, sizeInBytes)
}

// calculation based on https://en.wikipedia.org/wiki/Bloom_filter#Optimal_number_of_hash_functions
func getHashCountAndSize(expectedElements int, falsePositiveRate float64) (hashCount, size int) {
	bitsPerElement := int(-1.44*math.Log2(falsePositiveRate)) + 1
	hashCount = int(float64(bitsPerElement)*math.Log(2)) + 1
	if hashCount > 32 {
		hashCount = 32
	}
	size = expectedElements * bitsPerElement / 8
	if size < 1 {
		size = 1
	}
	return hashCount, size
}

// Add adds a node reference to the filter.
func (filter *Filter) Add(ref forest.NodeRef) {
	encoded := ref.Bytes()
	seed := int(filter.seed)
	for k := byte(0); k < filter.hashCount; k++ {
		hash, bit := subrange(seed, encoded)
		seed += 11
		if seed >= forest.RefEncodedSize {
			seed -= forest.RefEncodedSize
		}

		offset := hash % uint64(len(filter.table))
		filter.table[offset] |= 1 << (bit % 8)
	}
}

// Contains returns true if the reference may have been added to the filter.
func (filter *Filter) Contains(ref forest.NodeRef) bool {
	encoded := ref.Bytes()
	seed := int(filter.seed)
	for k := byte(0); k < filter.hashCount; k++ {
		hash, bit := subrange(seed, encoded)
		seed += 11
		if seed >= forest.RefEncodedSize {
			seed -= forest.RefEncodedSize
		}

		offset := hash % uint64(len(filter.table))
		if filter.table[offset]&(1<<(bit%8)) == 0 {
			return false
		}
	}

	return true
}

// subrange reads 9 bytes of the encoded reference starting at offset,
// wrapping around the end.
func subrange(offset int, encoded []byte) (uint64, byte) {
	if offset > len(encoded)-9 {
		var unwrap [9]byte
		n := copy(unwrap[:], encoded[offset:])
		copy(unwrap[n:], encoded)
		return binary.LittleEndian.Uint64(unwrap[:]), unwrap[8]
	}
	return binary.LittleEndian.Uint64(encoded[offset : offset+8]), encoded[offset+8]
}

// Size returns the encoded size of the filter in bytes.
func (filter *Filter) Size() int64 {
	return int64(3 + len(filter.table))
}

// Bytes encodes the filter so that it is transmittable.
func (filter *Filter) Bytes() []byte {
	data := make([]byte, 0, filter.Size())
	data = append(data, version, filter.seed, filter.hashCount)
	data = append(data, filter.table...)
	return data
}

// NewFromBytes decodes a filter from its binary encoding.
func NewFromBytes(data []byte) (*Filter, error) {
	if len(data) < 4 {
		return nil, Error.New("not enough data")
	}
	if data[0] != version {
		return nil, Error.New("unsupported filter version %d", data[0])
	}
	if data[2] == 0 {
		return nil, Error.New("invalid hash count")
	}

	filter := &Filter{
		seed:      data[1],
		hashCount: data[2],
		table:     data[3:],
	}
	if int(filter.seed) >= forest.RefEncodedSize {
		return nil, Error.New("invalid seed %d", filter.seed)
	}
	return filter, nil
}
