package cache

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// SnapshotKeyPrefix is the fixed, versioned slot key for the last analysis snapshot.
const SnapshotKeyPrefix = "pitchlens:lastAnalysis:v1"

// SnapshotKey returns the slot key for an owner. The empty owner is the
// single-profile slot used by local clients.
func SnapshotKey(owner string) string {
	if owner == "" {
		return SnapshotKeyPrefix
	}
	return fmt.Sprintf("%s:%s", SnapshotKeyPrefix, owner)
}

func RateLimitKey(owner string) string {
	return fmt.Sprintf("ratelimit:%s", owner)
}

// OwnerFromToken derives a stable, non-reversible owner id from a bearer token.
// Returns "" for an empty token.
func OwnerFromToken(token string) string {
	if token == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:12])
}
