package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the hex SHA-256 digest of an uploaded payload. Run logs
// carry it so a generated report can be tied back to the exact bytes received.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Matches reports whether data hashes to the expected fingerprint. Callers
// that send a checksum alongside an upload use this to reject corrupted
// transfers before any parsing starts.
func Matches(data []byte, expected string) bool {
	return expected != "" && Fingerprint(data) == expected
}
