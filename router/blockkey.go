package router

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
)

// ContentHasher maps token chunks to affinity keys. Implementations must be
// deterministic and pure: equal chunks always yield equal keys.
type ContentHasher interface {
	HashBlocks(chunks [][]int) ([]int64, error)
}

// XXHasher hashes each chunk independently with xxhash64 over the
// little-endian 8-byte encoding of its tokens.
type XXHasher struct{}

// HashBlocks implements ContentHasher.
func (XXHasher) HashBlocks(chunks [][]int) ([]int64, error) {
	keys := make([]int64, len(chunks))
	buf := make([]byte, 8)
	for i, chunk := range chunks {
		h := xxhash.New()
		for _, tok := range chunk {
			binary.LittleEndian.PutUint64(buf, uint64(tok))
			_, _ = h.Write(buf)
		}
		keys[i] = int64(h.Sum64())
	}
	return keys, nil
}

// ComputeBlockCacheKeys splits tokens into consecutive blocks of exactly
// blockSize tokens, drops a trailing partial block, and hashes each block.
// Returns len(tokens)/blockSize keys. Any failure yields an empty slice:
// affinity keys only steer placement and must never block serving.
func ComputeBlockCacheKeys(tokens []int, blockSize int, hasher ContentHasher) (keys []int64) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("get block cache keys error: %v", r)
			keys = []int64{}
		}
	}()
	keys, err := computeBlockCacheKeys(tokens, blockSize, hasher)
	if err != nil {
		logrus.Errorf("get block cache keys error: %v", err)
		return []int64{}
	}
	return keys
}

func computeBlockCacheKeys(tokens []int, blockSize int, hasher ContentHasher) ([]int64, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("block size must be > 0, got %d", blockSize)
	}
	if hasher == nil {
		return nil, fmt.Errorf("no content hasher configured")
	}
	n := len(tokens) / blockSize
	chunks := make([][]int, n)
	for i := 0; i < n; i++ {
		chunks[i] = tokens[i*blockSize : (i+1)*blockSize]
	}
	if n == 0 {
		return []int64{}, nil
	}
	keys, err := hasher.HashBlocks(chunks)
	if err != nil {
		return nil, err
	}
	if len(keys) != n {
		return nil, fmt.Errorf("hasher returned %d keys for %d blocks", len(keys), n)
	}
	return keys, nil
}
