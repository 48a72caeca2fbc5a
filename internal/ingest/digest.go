package ingest

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentDigest computes the lowercase SHA-256 hex digest of the raw
// uploaded bytes, before parsing. Digest equality over a re-upload of
// the byte-identical file is what makes replay detection possible.
func ContentDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
