// Package transfer moves files between peers as base64 chunks riding
// FILE_OFFER / FILE_CHUNK messages, with optional Reed-Solomon parity
// so a lossy LAN needs no retransmission.
package transfer

import (
	"fmt"

	"github.com/klauspost/reedsolomon"
)

const (
	// DataShards is the number of data shards (10)
	DataShards = 10
	// ParityShards is the number of parity shards (5)
	ParityShards = 5
	// TotalShards is the total number of shards (15)
	TotalShards = DataShards + ParityShards
	// MinShardsForRecovery is the minimum number of shards needed to
	// reconstruct the file
	MinShardsForRecovery = DataShards
)

// FECScheme is the FEC field value announcing Reed-Solomon 10+5
// coding on an offer.
const FECScheme = "rs-10-5"

// ErasureEncoder wraps the Reed-Solomon codec in the 10+5 layout.
type ErasureEncoder struct {
	encoder reedsolomon.Encoder
}

// NewErasureEncoder creates a new erasure encoder.
func NewErasureEncoder() (*ErasureEncoder, error) {
	enc, err := reedsolomon.New(DataShards, ParityShards)
	if err != nil {
		return nil, fmt.Errorf("failed to create Reed-Solomon encoder: %w", err)
	}
	return &ErasureEncoder{encoder: enc}, nil
}

// Encode splits data into 15 shards (10 data + 5 parity). Any 10 of
// them reconstruct the original.
func (e *ErasureEncoder) Encode(data []byte) ([][]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot encode empty data")
	}

	shards, err := e.encoder.Split(data)
	if err != nil {
		return nil, fmt.Errorf("failed to split data: %w", err)
	}
	if err := e.encoder.Encode(shards); err != nil {
		return nil, fmt.Errorf("failed to encode parity: %w", err)
	}
	return shards, nil
}

// Decode reconstructs the original bytes from available shards.
// Missing shards are nil in the input; originalSize trims the padding
// the split added.
func (e *ErasureEncoder) Decode(shards [][]byte, originalSize int) ([]byte, error) {
	if len(shards) != TotalShards {
		return nil, fmt.Errorf("invalid number of shards: expected %d, got %d", TotalShards, len(shards))
	}

	available := 0
	for _, shard := range shards {
		if shard != nil {
			available++
		}
	}
	if available < MinShardsForRecovery {
		return nil, fmt.Errorf("insufficient shards for recovery: have %d, need %d", available, MinShardsForRecovery)
	}

	// Reconstruct mutates its input, so work on a copy
	work := make([][]byte, TotalShards)
	copy(work, shards)
	if err := e.encoder.Reconstruct(work); err != nil {
		return nil, fmt.Errorf("failed to reconstruct shards: %w", err)
	}

	ok, err := e.encoder.Verify(work)
	if err != nil {
		return nil, fmt.Errorf("failed to verify shards: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("shard verification failed")
	}

	buf := make([]byte, 0, originalSize)
	for i := 0; i < DataShards; i++ {
		buf = append(buf, work[i]...)
	}
	if len(buf) > originalSize {
		buf = buf[:originalSize]
	}
	return buf, nil
}
