package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHasher struct{}

func (failingHasher) HashBlocks([][]int) ([]int64, error) { return nil, errors.New("native hash unavailable") }

type panickingHasher struct{}

func (panickingHasher) HashBlocks([][]int) ([]int64, error) { panic("boom") }

type shortHasher struct{}

func (shortHasher) HashBlocks(chunks [][]int) ([]int64, error) { return make([]int64, len(chunks)-1), nil }

// recordingHasher captures the chunks it was given.
type recordingHasher struct{ chunks [][]int }

func (h *recordingHasher) HashBlocks(chunks [][]int) ([]int64, error) {
	h.chunks = chunks
	return XXHasher{}.HashBlocks(chunks)
}

func TestComputeBlockCacheKeys_CountIsFloorOfLengthOverBlockSize(t *testing.T) {
	tests := []struct {
		name      string
		tokens    int
		blockSize int
		want      int
	}{
		{name: "100 tokens block 32", tokens: 100, blockSize: 32, want: 3},
		{name: "exact multiple", tokens: 64, blockSize: 16, want: 4},
		{name: "shorter than one block", tokens: 10, blockSize: 16, want: 0},
		{name: "empty", tokens: 0, blockSize: 8, want: 0},
		{name: "block size one", tokens: 7, blockSize: 1, want: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := ComputeBlockCacheKeys(seqTokens(1, tt.tokens), tt.blockSize, XXHasher{})
			assert.Len(t, keys, tt.want)
		})
	}
}

func TestComputeBlockCacheKeys_TrailingPartialChunkDropped(t *testing.T) {
	// GIVEN 100 tokens and block size 32
	h := &recordingHasher{}
	tokens := seqTokens(1, 100)

	// WHEN keys are computed
	keys := ComputeBlockCacheKeys(tokens, 32, h)

	// THEN exactly the first 96 tokens were hashed, in order, unpadded
	require.Len(t, keys, 3)
	require.Len(t, h.chunks, 3)
	for i, chunk := range h.chunks {
		assert.Equal(t, tokens[i*32:(i+1)*32], chunk)
	}
}

func TestComputeBlockCacheKeys_Deterministic(t *testing.T) {
	tokens := seqTokens(5000, 50)
	first := ComputeBlockCacheKeys(tokens, 8, XXHasher{})
	second := ComputeBlockCacheKeys(append([]int(nil), tokens...), 8, XXHasher{})
	assert.Equal(t, first, second)
}

func TestComputeBlockCacheKeys_TokenChangeAffectsOnlyItsChunk(t *testing.T) {
	// GIVEN a sequence of 4 blocks
	tokens := seqTokens(1, 16)
	base := ComputeBlockCacheKeys(tokens, 4, XXHasher{})

	// WHEN one token inside block 2 changes
	mutated := append([]int(nil), tokens...)
	mutated[9] = 99999
	changed := ComputeBlockCacheKeys(mutated, 4, XXHasher{})

	// THEN only block 2's key differs
	require.Len(t, changed, 4)
	assert.Equal(t, base[0], changed[0])
	assert.Equal(t, base[1], changed[1])
	assert.NotEqual(t, base[2], changed[2])
	assert.Equal(t, base[3], changed[3])
}

func TestComputeBlockCacheKeys_SameContentSameKeyAnywhere(t *testing.T) {
	// Identical chunks at different positions share a key (no prefix lineage).
	chunk := []int{7, 8, 9, 10}
	tokens := append(append(append([]int{}, chunk...), 1, 2, 3, 4), chunk...)
	keys := ComputeBlockCacheKeys(tokens, 4, XXHasher{})
	require.Len(t, keys, 3)
	assert.Equal(t, keys[0], keys[2])
	assert.NotEqual(t, keys[0], keys[1])
}

func TestComputeBlockCacheKeys_FailSoft(t *testing.T) {
	tokens := seqTokens(1, 32)
	tests := []struct {
		name      string
		blockSize int
		hasher    ContentHasher
	}{
		{name: "hasher error", blockSize: 8, hasher: failingHasher{}},
		{name: "hasher panic", blockSize: 8, hasher: panickingHasher{}},
		{name: "wrong key count", blockSize: 8, hasher: shortHasher{}},
		{name: "zero block size", blockSize: 0, hasher: XXHasher{}},
		{name: "negative block size", blockSize: -4, hasher: XXHasher{}},
		{name: "nil hasher", blockSize: 8, hasher: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := ComputeBlockCacheKeys(tokens, tt.blockSize, tt.hasher)
			assert.NotNil(t, keys)
			assert.Empty(t, keys)
		})
	}
}
