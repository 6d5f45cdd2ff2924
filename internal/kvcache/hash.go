package kvcache

import (
	"hash/fnv"
	"strings"
)

// DefaultBlockSize is the number of tokens per cache block.
const DefaultBlockSize = 16

// Tokenize deterministically hashes whitespace-split words into token ids.
// There is no real tokenizer here; word-count is an accepted stand-in for
// "for simulation, hash words deterministically".
func Tokenize(input string) []uint64 {
	fields := strings.Fields(input)
	tokens := make([]uint64, len(fields))
	for i, f := range fields {
		h := fnv.New64a()
		_, _ = h.Write([]byte(f))
		tokens[i] = h.Sum64()
	}
	return tokens
}

// ComputeBlockHashes splits tokens into blockSize-token blocks and returns
// one FNV-1a hash per complete block (a trailing partial block, if any, is
// not hashed -- blocks are never split mid-block.
func ComputeBlockHashes(tokens []uint64, blockSize int) []uint64 {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	n := len(tokens) / blockSize
	hashes := make([]uint64, n)
	for i := 0; i < n; i++ {
		h := fnv.New64a()
		block := tokens[i*blockSize : (i+1)*blockSize]
		buf := make([]byte, 8)
		for _, t := range block {
			for j := 0; j < 8; j++ {
				buf[j] = byte(t >> (8 * j))
			}
			_, _ = h.Write(buf)
		}
		hashes[i] = h.Sum64()
	}
	return hashes
}
