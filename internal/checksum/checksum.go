// Package checksum provides content digests used as source-file identity
// for the decode cache and export reports.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumFile returns the digest of the file at path, or "" if it cannot be
// read. A missing source file hashing to "" is intentional: it makes
// "file absent" a distinct cache identity from any real content.
func SumFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return Sum(data)
}
