package util

import (
	"crypto/sha256"
	"encoding/hex"
)

func SHA256Hex(b []byte) string {
	x := sha256.Sum256(b)
	return hex.EncodeToString(x[:])
}

// ShortHash is the first 12 hex chars of SHA256Hex, used to tag uploads in logs.
func ShortHash(b []byte) string {
	return SHA256Hex(b)[:12]
}
