package cmap

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// Murmur3String returns a murmur3 hasher for string keys, for use with
// NewWithHasher when hashes must be stable across processes.
func Murmur3String(seed uint32) func(string) uint64 {
	return func(key string) uint64 {
		return murmur3.Sum64WithSeed([]byte(key), seed)
	}
}

// Integer is the set of key types Murmur3Int accepts.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Murmur3Int returns a murmur3 hasher over the little-endian 64-bit form of
// an integer key.
func Murmur3Int[K Integer](seed uint32) func(K) uint64 {
	return func(key K) uint64 {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(key))
		return murmur3.Sum64WithSeed(b[:], seed)
	}
}
