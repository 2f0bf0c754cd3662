package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hash returns the lowercase hex SHA-256 digest of the password. The digest
// is deterministic, so it doubles as a storage key for hashed secrets.
func Hash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the digest and compares it in constant time.
func Verify(password, hash string) bool {
	computed := Hash(password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// HashToken digests an opaque token value for server-side storage. Raw token
// values must never hit the database.
func HashToken(raw string) string {
	return Hash(raw)
}
