// Package idhash computes deterministic identifiers using SHA256.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ComputeRunID computes a deterministic run_id for a batch run.
// Formula: SHA256(started_at_unix_nano|pool_count)
// Returns hex-encoded hash (64 characters). Batches run sequentially,
// so start time plus pool count is unique per run.
func ComputeRunID(startedAt time.Time, poolCount int) string {
	data := fmt.Sprintf("%d|%d", startedAt.UnixNano(), poolCount)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
