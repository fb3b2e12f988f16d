package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds a namespaced cache key from the given components.
// Components are JSON-encoded before hashing, so any value with a
// deterministic encoding (netlist hashes, search options, format flags)
// can take part in a key. The full 256-bit digest is kept to rule out
// collisions between unrelated scans.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// Hash returns the hex SHA-256 digest of data. Netlist sources, gate
// libraries, and scan results are identified by this digest throughout
// the pipeline.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
