package network

import (
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zuraxy/lsnp-node/pkg/crypto"
	"github.com/zuraxy/lsnp-node/pkg/peer"
	"github.com/zuraxy/lsnp-node/pkg/protocol"
	"github.com/zuraxy/lsnp-node/pkg/token"
)

// DefaultSweepInterval is how often expired dedupe entries and
// revocations are purged.
const DefaultSweepInterval = 60 * time.Second

// Sender is the outbound half of the transport. The dispatcher only
// needs these two calls, which keeps it testable without sockets.
type Sender interface {
	Send(data []byte, addr *net.UDPAddr) error
	Broadcast(data []byte) error
}

// Handler processes one validated inbound message.
type Handler func(msg *protocol.Message, from *net.UDPAddr)

// Dispatcher runs every inbound datagram through the gate pipeline:
// decode, duplicate suppression, token validation, TTL expiry, then
// routing to the handler registered for the message type. It also
// stamps outbound messages with their envelope fields.
type Dispatcher struct {
	identity  *peer.Identity
	authority *token.Authority
	sender    Sender

	hmu        sync.RWMutex
	handlers   map[string]Handler
	sweepExtra []func()

	dedupe *dedupeCache
	stats  *Stats

	verbose       atomic.Bool
	sweepInterval time.Duration
	now           func() time.Time

	done    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

func NewDispatcher(identity *peer.Identity, authority *token.Authority, sender Sender, verbose bool) *Dispatcher {
	d := &Dispatcher{
		identity:      identity,
		authority:     authority,
		sender:        sender,
		handlers:      make(map[string]Handler),
		dedupe:        newDedupeCache(),
		stats:         &Stats{},
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
		done:          make(chan struct{}),
	}
	d.verbose.Store(verbose)
	return d
}

// SetVerbose toggles per-datagram logging at runtime.
func (d *Dispatcher) SetVerbose(v bool) {
	d.verbose.Store(v)
}

// RegisterHandler installs the handler for a message type, replacing
// any previous one.
func (d *Dispatcher) RegisterHandler(msgType string, h Handler) {
	d.hmu.Lock()
	defer d.hmu.Unlock()
	d.handlers[msgType] = h
}

func (d *Dispatcher) handler(msgType string) (Handler, bool) {
	d.hmu.RLock()
	defer d.hmu.RUnlock()
	h, ok := d.handlers[msgType]
	return h, ok
}

// OnSweep registers an extra maintenance step run on the sweep
// cadence alongside the built-in dedupe and revocation purges.
func (d *Dispatcher) OnSweep(fn func()) {
	d.hmu.Lock()
	defer d.hmu.Unlock()
	d.sweepExtra = append(d.sweepExtra, fn)
}

// Start spawns the maintenance sweeper.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.sweepLoop()
}

// Stop halts the sweeper. Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.stopped.Do(func() { close(d.done) })
	d.wg.Wait()
}

// Stats returns a snapshot of the pipeline counters.
func (d *Dispatcher) Stats() StatsSnapshot {
	return d.stats.Snapshot()
}

// DedupeSize reports how many MESSAGE_IDs are currently remembered.
func (d *Dispatcher) DedupeSize() int {
	return d.dedupe.Len()
}

// ===== OUTBOUND =====

// Build creates a message with the envelope stamped: TYPE, a fresh
// MESSAGE_ID, the current TIMESTAMP, and a TOKEN when the type is
// scoped. Callers add their payload fields afterwards.
func (d *Dispatcher) Build(msgType string) *protocol.Message {
	m := protocol.NewMessage(msgType)
	m.Set(protocol.FieldMessageID, crypto.NewMessageID())
	m.SetInt(protocol.FieldTimestamp, d.now().Unix())
	if scope, ok := token.RequiredScope(msgType); ok {
		m.Set(protocol.FieldToken, d.authority.Create(d.identity.UserID(), scope, 0))
	}
	return m
}

// SendTo encodes and transmits one message to a single peer.
func (d *Dispatcher) SendTo(m *protocol.Message, addr *net.UDPAddr) error {
	return d.sender.Send(m.Encode(), addr)
}

// Broadcast encodes and transmits one message to the whole LAN.
func (d *Dispatcher) Broadcast(m *protocol.Message) error {
	return d.sender.Broadcast(m.Encode())
}

// ===== INBOUND PIPELINE =====

// HandleDatagram is the transport receive callback. Every gate drops
// silently from the wire's point of view; only logs and counters tell.
func (d *Dispatcher) HandleDatagram(data []byte, from *net.UDPAddr) {
	d.stats.Received.Add(1)

	msg := protocol.Decode(data)
	msgType := msg.Type()
	if msgType == "" {
		d.stats.DroppedNoType.Add(1)
		log.Printf("⚠️ dropping message without TYPE from %s", from)
		return
	}

	// Duplicate suppression keys on MESSAGE_ID when present. The
	// entry inherits the message's own TTL; messages without one are
	// remembered indefinitely.
	if id := msg.ID(); id != "" {
		ttl := time.Duration(msg.TTL()) * time.Second
		if d.dedupe.Observe(id, msgType, ttl) {
			d.stats.DroppedDuplicate.Add(1)
			if d.verbose.Load() {
				log.Printf("duplicate %s %s ignored", msgType, id)
			}
			return
		}
	}

	if scope, ok := token.RequiredScope(msgType); ok {
		if _, err := d.authority.Validate(msg.Get(protocol.FieldToken), scope); err != nil {
			d.stats.DroppedToken.Add(1)
			log.Printf("⚠️ rejected %s from %s: %v", msgType, from, err)
			return
		}
	}

	if protocol.CarriesTTL(msgType) && d.expired(msg) {
		d.stats.DroppedExpired.Add(1)
		if d.verbose.Load() {
			log.Printf("expired %s %s ignored", msgType, msg.ID())
		}
		return
	}

	h, ok := d.handler(msgType)
	if !ok {
		d.stats.DroppedUnhandled.Add(1)
		log.Printf("⚠️ Unknown message type: %s", msgType)
		return
	}

	h(msg, from)
	d.stats.Routed.Add(1)

	if protocol.AckRequired(msgType) && msg.ID() != "" && from != nil {
		d.sendAck(msg.ID(), from)
	}
}

// expired reports whether a message's content lifetime has elapsed.
// A missing TIMESTAMP or TTL makes the sum fall in the past, so such
// messages are treated as already stale.
func (d *Dispatcher) expired(msg *protocol.Message) bool {
	return msg.Timestamp()+msg.TTL() <= d.now().Unix()
}

// sendAck confirms receipt. The MESSAGE_ID echoes the acknowledged
// message rather than naming the ACK itself.
func (d *Dispatcher) sendAck(id string, to *net.UDPAddr) {
	ack := protocol.NewMessage(protocol.MsgTypeAck)
	ack.Set(protocol.FieldMessageID, id)
	ack.Set(protocol.FieldStatus, protocol.StatusReceived)
	if err := d.sender.Send(ack.Encode(), to); err == nil {
		d.stats.AcksSent.Add(1)
	}
}

// ===== MAINTENANCE =====

func (d *Dispatcher) sweepLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.done:
			return
		case <-ticker.C:
			d.sweep()
		}
	}
}

func (d *Dispatcher) sweep() {
	dropped := d.dedupe.Sweep()
	revoked := d.authority.Sweep()
	if d.verbose.Load() && (dropped > 0 || revoked > 0) {
		log.Printf("🧹 swept %d dedupe entries, %d revocations", dropped, revoked)
	}

	d.hmu.RLock()
	extra := make([]func(), len(d.sweepExtra))
	copy(extra, d.sweepExtra)
	d.hmu.RUnlock()
	for _, fn := range extra {
		fn()
	}
}
