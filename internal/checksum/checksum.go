// Package checksum fingerprints encoded entry documents.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// tagLen is the number of hex digits kept by Tag.
const tagLen = 16

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Tag is a shortened Sum, used as an HTTP entity tag.
func Tag(data []byte) string {
	return Sum(data)[:tagLen]
}
