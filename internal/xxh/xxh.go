// Package xxh computes the 64-bit XXH3-class hashes Nx uses as file
// content hashes and deduplication keys.
package xxh

import "github.com/cespare/xxhash/v2"

// Sum computes the 64-bit hash of a file's decompressed bytes.
func Sum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// SumString computes the 64-bit hash of a path string.
func SumString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Prefix computes the hash of the first n bytes of data (or all of it,
// if shorter), used by the chunked-dedup cheap filter.
func Prefix(data []byte, n int) uint64 {
	if len(data) > n {
		data = data[:n]
	}

	return xxhash.Sum64(data)
}
