package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// CacheKey identifies a cached analysis result
type CacheKey Hash

// String returns the string representation
func (k CacheKey) String() string { return Hash(k).String() }

// ComputeCacheKey derives a deterministic cache key from named parts.
// Parts are sorted by name so map iteration order never leaks into the key.
func ComputeCacheKey(parts map[string]string) CacheKey {
	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)

	var data strings.Builder
	for _, name := range names {
		data.WriteString(name)
		data.WriteByte('=')
		data.WriteString(parts[name])
		data.WriteByte(';')
	}
	return CacheKey(NewHash([]byte(data.String())))
}

// ComputeInputHash hashes an arbitrary sequence of values in order.
func ComputeInputHash(values ...any) Hash {
	var data strings.Builder
	for _, v := range values {
		fmt.Fprintf(&data, "%v|", v)
	}
	return NewHash([]byte(data.String()))
}
