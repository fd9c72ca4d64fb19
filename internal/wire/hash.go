package wire

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// stableIDLen is the hex prefix length of every content-addressed ID.
const stableIDLen = 24

func shortHash(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:stableIDLen]
}

// SignalID computes the stable content-addressed ID for a signal.
//
// The ID is a pure function of (symbol, signal_type, anchor_ts, entry, stop):
// replaying the same inputs reproduces the same ID, which is how signal-level
// idempotence survives pipeline reruns.
func SignalID(symbol, signalType string, anchorTS, entry, stop int64) string {
	payload := fmt.Sprintf("%s|%s|%d|%d|%d", symbol, signalType, anchorTS, entry, stop)
	return shortHash(payload)
}

// FusionID computes the stable ID for a fusion candidate.
//
// Contributing signal IDs are sorted before hashing, so the ID does not
// depend on bus read order. The plan version is part of the identity: a
// reweighted plan produces a distinct candidate.
func FusionID(symbol string, signalIDs []string, planVersion string) string {
	sorted := make([]string, len(signalIDs))
	copy(sorted, signalIDs)
	sort.Strings(sorted)
	payload := fmt.Sprintf("%s|%s|%s", symbol, strings.Join(sorted, "|"), planVersion)
	return shortHash(payload)
}
