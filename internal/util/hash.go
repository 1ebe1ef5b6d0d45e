package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex hashes b to a hex digest. Chunk ids are derived from it so
// re-chunking identical content yields the same ids.
func SHA256Hex(b []byte) string {
	x := sha256.Sum256(b)
	return hex.EncodeToString(x[:])
}
