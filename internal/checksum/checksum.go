// Package checksum fingerprints document content for change detection.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a content fingerprint. Two documents with equal digests are
// treated as the same revision.
type Digest string

// Sum returns the fingerprint of data.
func Sum(data []byte) Digest {
	h := sha256.Sum256(data)
	return Digest(hex.EncodeToString(h[:]))
}
