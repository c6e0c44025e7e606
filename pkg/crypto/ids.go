package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// NewMessageID returns a fresh wire message identifier: 8 random bytes
// as 16 hex characters.
func NewMessageID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// Extremely unlikely; a timestamp-derived ID still beats an
		// empty one because the dedupe cache keys on it.
		binary.BigEndian.PutUint64(b[:], uint64(time.Now().UnixNano()))
	}
	return hex.EncodeToString(b[:])
}

// NewGameID returns a game session identifier, "game-" plus 8 uuid
// characters.
func NewGameID() string {
	return "game-" + uuid.New().String()[:8]
}

// NewFileID returns a file transfer identifier, "file-" plus 8 uuid
// characters.
func NewFileID() string {
	return "file-" + uuid.New().String()[:8]
}
