package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// TokenDigest returns the hex BLAKE2b-256 digest of a token string.
// Revocation sets store digests rather than raw tokens, so a revoked
// capability cannot be read back out of the set.
func TokenDigest(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Checksum returns the hex BLAKE2b-256 digest of a payload. Completed
// file transfers are fingerprinted with it.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum reports whether a payload matches a hex digest.
func VerifyChecksum(data []byte, digest string) bool {
	return Checksum(data) == digest
}
