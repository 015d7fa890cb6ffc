// Copyright (C) 2026 ForestDB Labs.
// See LICENSE for copying information.

package bloomfilter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"forestdb.io/forestgc/internal/testrand"
	"forestdb.io/forestgc/pkg/bloomfilter"
	"forestdb.io/forestgc/pkg/forest"
)

func generateRefs(n int) []forest.NodeRef {
	refs := make([]forest.NodeRef, 0, n)
	for i := 0; i < n; i++ {
		refs = append(refs, testrand.NodeRef())
	}
	return refs
}

func TestNoFalseNegative(t *testing.T) {
	refs := generateRefs(10000)

	filter := bloomfilter.NewOptimal(len(refs), 0.1)
	for _, ref := range refs {
		filter.Add(ref)
	}
	for _, ref := range refs {
		require.True(t, filter.Contains(ref))
	}
}

func TestFalsePositiveRate(t *testing.T) {
	const n = 10000
	added := generateRefs(n)
	probed := generateRefs(n)

	filter := bloomfilter.NewOptimal(n, 0.1)
	for _, ref := range added {
		filter.Add(ref)
	}

	positives := 0
	for _, ref := range probed {
		if filter.Contains(ref) {
			positives++
		}
	}
	// generous bound, the expected rate is 0.1
	require.True(t, positives < n/2)
}

func TestEncodeDecode(t *testing.T) {
	refs := generateRefs(1000)

	filter := bloomfilter.NewOptimal(len(refs), 0.1)
	for _, ref := range refs {
		filter.Add(ref)
	}

	decoded, err := bloomfilter.NewFromBytes(filter.Bytes())
	require.NoError(t, err)
	for _, ref := range refs {
		require.True(t, decoded.Contains(ref))
	}
	require.Equal(t, filter.Bytes(), decoded.Bytes())
}

func TestDecodeInvalid(t *testing.T) {
	_, err := bloomfilter.NewFromBytes(nil)
	require.Error(t, err)

	// wrong version
	_, err = bloomfilter.NewFromBytes([]byte{0, 0, 1, 0})
	require.Error(t, err)

	// zero hash count
	_, err = bloomfilter.NewFromBytes([]byte{1, 0, 0, 0})
	require.Error(t, err)

	// seed out of range
	_, err = bloomfilter.NewFromBytes([]byte{1, byte(forest.RefEncodedSize), 1, 0})
	require.Error(t, err)
}

func TestNewOptimalMaxSize(t *testing.T) {
	filter := bloomfilter.NewOptimalMaxSize(1<<30, 0.1, 1024)
	require.True(t, filter.Size() <= int64(3+1024))
}
