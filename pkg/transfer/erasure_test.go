package transfer

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestErasureEncodeDecode(t *testing.T) {
	enc, err := NewErasureEncoder()
	if err != nil {
		t.Fatalf("Failed to create encoder: %v", err)
	}

	original := []byte("Reed-Solomon coded file payload crossing a lossy LAN")

	shards, err := enc.Encode(original)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	if len(shards) != TotalShards {
		t.Fatalf("Expected %d shards, got %d", TotalShards, len(shards))
	}

	decoded, err := enc.Decode(shards, len(original))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Fatalf("Decoded data doesn't match original.\nOriginal: %s\nDecoded: %s", original, decoded)
	}
}

func TestErasureRecoveryWithMissingShards(t *testing.T) {
	enc, err := NewErasureEncoder()
	if err != nil {
		t.Fatalf("Failed to create encoder: %v", err)
	}

	original := make([]byte, 4096)
	if _, err := rand.Read(original); err != nil {
		t.Fatalf("rand: %v", err)
	}

	shards, err := enc.Encode(original)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}

	testCases := []struct {
		name          string
		missing       int
		shouldSucceed bool
	}{
		{"no missing shards", 0, true},
		{"1 missing shard", 1, true},
		{"3 missing shards", 3, true},
		{"5 missing shards (max tolerance)", 5, true},
		{"6 missing shards (should fail)", 6, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			damaged := make([][]byte, len(shards))
			copy(damaged, shards)
			for i := 0; i < tc.missing; i++ {
				damaged[i] = nil
			}

			decoded, err := enc.Decode(damaged, len(original))
			if tc.shouldSucceed {
				if err != nil {
					t.Fatalf("Expected successful decode, got error: %v", err)
				}
				if !bytes.Equal(decoded, original) {
					t.Fatalf("Decoded data doesn't match original with %d missing shards", tc.missing)
				}
			} else if err == nil {
				t.Fatalf("Expected decode to fail with %d missing shards, but it succeeded", tc.missing)
			}
		})
	}
}

func TestErasureRejectsEmptyData(t *testing.T) {
	enc, _ := NewErasureEncoder()
	if _, err := enc.Encode(nil); err == nil {
		t.Fatal("Encode accepted empty data")
	}
}

func TestErasureRejectsWrongShardCount(t *testing.T) {
	enc, _ := NewErasureEncoder()
	if _, err := enc.Decode(make([][]byte, 3), 100); err == nil {
		t.Fatal("Decode accepted wrong shard count")
	}
}
