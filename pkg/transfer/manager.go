package transfer

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/zuraxy/lsnp-node/pkg/crypto"
)

// ChunkSize is how many raw bytes ride in one FILE_CHUNK before
// base64 encoding.
const ChunkSize = 1024

// DefaultStaleAfter is how long an incomplete transfer may sit idle
// before the sweep drops it.
const DefaultStaleAfter = 10 * time.Minute

var ErrUnknownTransfer = errors.New("unknown transfer")

// Chunk is one outbound payload piece, already base64 encoded.
type Chunk struct {
	Index int
	Total int
	Data  string
}

// Outgoing is a fully prepared send: the offer metadata plus every
// chunk, ready to ride the wire.
type Outgoing struct {
	FileID      string
	Filename    string
	Size        int64
	Filetype    string
	Description string
	FEC         string
	Chunks      []Chunk
}

// Prepare turns raw bytes into an offer and its chunks. With fec set
// the file is Reed-Solomon coded and every shard becomes a chunk, so
// the receiver can lose up to 5 of the 15 and still assemble.
func Prepare(filename string, data []byte, description string, fec bool) (*Outgoing, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("refusing to offer empty file %q", filename)
	}

	out := &Outgoing{
		FileID:      crypto.NewFileID(),
		Filename:    filename,
		Size:        int64(len(data)),
		Filetype:    mimetype.Detect(data).String(),
		Description: description,
	}

	var pieces [][]byte
	if fec {
		enc, err := NewErasureEncoder()
		if err != nil {
			return nil, err
		}
		shards, err := enc.Encode(data)
		if err != nil {
			return nil, err
		}
		pieces = shards
		out.FEC = FECScheme
	} else {
		for off := 0; off < len(data); off += ChunkSize {
			end := off + ChunkSize
			if end > len(data) {
				end = len(data)
			}
			pieces = append(pieces, data[off:end])
		}
	}

	out.Chunks = make([]Chunk, len(pieces))
	for i, p := range pieces {
		out.Chunks[i] = Chunk{
			Index: i,
			Total: len(pieces),
			Data:  base64.StdEncoding.EncodeToString(p),
		}
	}
	return out, nil
}

// Offer is the received FILE_OFFER metadata.
type Offer struct {
	FileID      string
	From        string
	Filename    string
	Size        int64
	Filetype    string
	Description string
	TotalChunks int
	FEC         string
}

// Received is one fully assembled inbound file, kept in memory with
// its digest.
type Received struct {
	FileID      string
	From        string
	Filename    string
	Filetype    string
	Data        []byte
	Checksum    string
	CompletedAt time.Time
}

// incoming tracks one transfer in flight. Chunks may arrive before
// the offer, so metadata fields stay empty until it shows up.
type incoming struct {
	offer        Offer
	hasOffer     bool
	accepted     bool
	chunks       map[int][]byte
	totalChunks  int
	lastActivity time.Time
}

// Manager is the receive side of file transfer. Offers wait for an
// explicit Accept; chunks buffer either way, and assembly happens
// once a transfer is both accepted and complete.
type Manager struct {
	mu         sync.Mutex
	incoming   map[string]*incoming
	completed  []*Received
	onComplete func(*Received)
	staleAfter time.Duration
	now        func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		incoming:   make(map[string]*incoming),
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
}

// OnComplete installs the hook fired for every assembled file.
func (m *Manager) OnComplete(fn func(*Received)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onComplete = fn
}

// HandleOffer records transfer metadata. An offer repeated for a
// known transfer only refreshes activity.
func (m *Manager) HandleOffer(o Offer) {
	m.mu.Lock()
	in := m.ensureLocked(o.FileID)
	if !in.hasOffer {
		in.offer = o
		in.hasOffer = true
		if o.TotalChunks > 0 {
			in.totalChunks = o.TotalChunks
		}
	}
	in.lastActivity = m.now()
	done := m.finalizeLocked(o.FileID, in)
	m.mu.Unlock()

	m.fire(done)
}

// HandleChunk buffers one piece. A chunk for a transfer whose offer
// has not arrived yet opens the transfer; a corrupt payload is
// dropped alone.
func (m *Manager) HandleChunk(fileID string, index, total int, data string) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		log.Printf("⚠️ bad chunk %d for %s: %v", index, fileID, err)
		return
	}
	if index < 0 {
		return
	}

	m.mu.Lock()
	in := m.ensureLocked(fileID)
	if in.totalChunks == 0 && total > 0 {
		in.totalChunks = total
	}
	in.chunks[index] = raw
	in.lastActivity = m.now()
	done := m.finalizeLocked(fileID, in)
	m.mu.Unlock()

	m.fire(done)
}

// Accept releases a pending transfer for assembly.
func (m *Manager) Accept(fileID string) error {
	m.mu.Lock()
	in, ok := m.incoming[fileID]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownTransfer
	}
	in.accepted = true
	done := m.finalizeLocked(fileID, in)
	m.mu.Unlock()

	m.fire(done)
	return nil
}

// Pending lists offers awaiting Accept.
func (m *Manager) Pending() []Offer {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Offer
	for _, in := range m.incoming {
		if in.hasOffer && !in.accepted {
			out = append(out, in.offer)
		}
	}
	return out
}

// Progress reports received versus expected chunks.
func (m *Manager) Progress(fileID string) (got, total int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.incoming[fileID]
	if !ok {
		return 0, 0, false
	}
	return len(in.chunks), in.totalChunks, true
}

// Completed returns every assembled file, oldest first.
func (m *Manager) Completed() []*Received {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Received, len(m.completed))
	copy(out, m.completed)
	return out
}

// Sweep drops incomplete transfers idle past the stale window and
// returns how many went.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.staleAfter)
	removed := 0
	for id, in := range m.incoming {
		if in.lastActivity.Before(cutoff) {
			delete(m.incoming, id)
			removed++
			log.Printf("🧹 dropped stale transfer %s (%d/%d chunks)", id, len(in.chunks), in.totalChunks)
		}
	}
	return removed
}

func (m *Manager) ensureLocked(fileID string) *incoming {
	in, ok := m.incoming[fileID]
	if !ok {
		in = &incoming{chunks: make(map[int][]byte)}
		m.incoming[fileID] = in
	}
	return in
}

// finalizeLocked assembles the file if the transfer is accepted and
// has enough chunks, returning the result for post-unlock delivery.
// Without the offer a transfer cannot even be classified as plain or
// FEC, so assembly always waits for it.
func (m *Manager) finalizeLocked(fileID string, in *incoming) *Received {
	if !in.accepted || !in.hasOffer || in.totalChunks == 0 {
		return nil
	}

	var data []byte
	if in.offer.FEC == FECScheme {
		if len(in.chunks) < MinShardsForRecovery {
			return nil
		}
		shards := make([][]byte, TotalShards)
		for i, raw := range in.chunks {
			if i < TotalShards {
				shards[i] = raw
			}
		}
		enc, err := NewErasureEncoder()
		if err != nil {
			return nil
		}
		data, err = enc.Decode(shards, int(in.offer.Size))
		if err != nil {
			// Not recoverable yet; more shards may still arrive
			return nil
		}
	} else {
		if len(in.chunks) < in.totalChunks {
			return nil
		}
		for i := 0; i < in.totalChunks; i++ {
			raw, ok := in.chunks[i]
			if !ok {
				return nil
			}
			data = append(data, raw...)
		}
	}

	done := &Received{
		FileID:      fileID,
		From:        in.offer.From,
		Filename:    in.offer.Filename,
		Filetype:    in.offer.Filetype,
		Data:        data,
		Checksum:    crypto.Checksum(data),
		CompletedAt: m.now(),
	}
	m.completed = append(m.completed, done)
	delete(m.incoming, fileID)
	log.Printf("✅ assembled %s (%s, %d bytes)", done.Filename, fileID, len(data))
	return done
}

// fire runs the completion hook outside the manager lock.
func (m *Manager) fire(done *Received) {
	if done == nil {
		return
	}
	m.mu.Lock()
	fn := m.onComplete
	m.mu.Unlock()
	if fn != nil {
		fn(done)
	}
}
