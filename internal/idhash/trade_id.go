package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(run_id|seq|symbol|action|timestamp_ms)
// The sequence number is the trade's position in the run's trade log;
// it keeps IDs unique when one bar produces two adds for a symbol.
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(runID string, seq int, symbol, action string, timestampMs int64) string {
	data := fmt.Sprintf("%s|%d|%s|%s|%d", runID, seq, symbol, action, timestampMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
