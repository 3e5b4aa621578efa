// Package idhash computes deterministic identifiers so re-running the
// engine on identical input yields byte-identical records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// ComputeRunID computes a deterministic run identifier from the config
// fingerprint and the symbol set. Symbol order does not matter.
// Formula: SHA256(fingerprint|symbol,symbol,...), hex-encoded.
func ComputeRunID(configFingerprint string, symbols []string) string {
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	data := configFingerprint + "|" + strings.Join(sorted, ",")
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
