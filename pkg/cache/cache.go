// Package cache provides scan-result caching for regscan.
//
// Candidate searches over large netlists are pure functions of the netlist
// content and the search configuration, which makes them ideal cache
// targets. Keys are derived from content hashes ([Hash], [ScanKey]) so a
// changed netlist or configuration never serves stale results.
//
// Three backends are provided: [NewFileCache] for CLI usage,
// [NewRedisCache] for a shared server deployment, and [NewNullCache] to
// disable caching.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with per-entry TTLs.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl stores the entry without expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ScanKeyOpts captures the configuration parameters that shape a search
// result, for inclusion in cache keys.
type ScanKeyOpts struct {
	MaxLogicDepth  int      `json:"max_logic_depth"`
	SharedControls []string `json:"shared_controls"`
	LibraryHash    string   `json:"library_hash,omitempty"`
}

// ScanKey builds the cache key for a candidate-search result over the
// netlist with the given content hash.
func ScanKey(netlistHash string, opts ScanKeyOpts) string {
	return hashKey("scan", netlistHash, opts)
}

// NetlistKey builds the cache key for a parsed netlist loaded from a
// source file with the given content hash.
func NetlistKey(contentHash string) string {
	return hashKey("netlist", contentHash)
}

// ArtifactKey builds the cache key for a rendered diagram, derived from
// the hash of the search result it visualizes.
func ArtifactKey(resultHash, format string, detailed bool) string {
	return hashKey("artifact", resultHash, format, detailed)
}

// TTLs per cache entry kind. Scan results and artifacts are pure
// functions of their keys and could live forever; the TTLs only bound
// backend growth.
const (
	TTLScan     = 7 * 24 * time.Hour
	TTLNetlist  = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)
