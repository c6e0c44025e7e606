package crypto

import (
	"encoding/hex"
	"testing"
)

func TestTokenDigest(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected string // BLAKE2b-256 in hex
	}{
		{
			name:     "empty input",
			token:    "",
			expected: "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
		},
		{
			name:     "simple string",
			token:    "hello world",
			expected: "256c83b297114d201b30179f3f0ef0cace9783622da5974326b436178aeef610",
		},
		{
			name:  "token string",
			token: "alice@192.168.1.10|1700003600|chat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			digest := TokenDigest(tt.token)

			if len(digest) != 64 { // 32 bytes * 2 hex chars
				t.Errorf("TokenDigest() length = %d, want 64", len(digest))
			}
			if _, err := hex.DecodeString(digest); err != nil {
				t.Errorf("TokenDigest() returned invalid hex: %v", err)
			}

			// For known test vectors, verify the exact digest
			if tt.expected != "" && digest != tt.expected {
				t.Errorf("TokenDigest() = %s, want %s", digest, tt.expected)
			}
		})
	}
}

func TestTokenDigestConsistency(t *testing.T) {
	token := "bob@10.0.0.2|1700000000|file"

	d1 := TokenDigest(token)
	d2 := TokenDigest(token)
	if d1 != d2 {
		t.Error("TokenDigest() not consistent between calls")
	}

	// A different token must not collide
	if TokenDigest(token+"x") == d1 {
		t.Error("TokenDigest() collision for distinct tokens")
	}
}

func TestChecksum(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")

	sum := Checksum(data)
	if len(sum) != 64 {
		t.Errorf("Checksum() length = %d, want 64", len(sum))
	}

	if !VerifyChecksum(data, sum) {
		t.Error("VerifyChecksum() = false for matching digest")
	}
	if VerifyChecksum([]byte("modified data"), sum) {
		t.Error("VerifyChecksum() = true for modified data")
	}
	if VerifyChecksum(data, "") {
		t.Error("VerifyChecksum() = true for empty digest")
	}
}
