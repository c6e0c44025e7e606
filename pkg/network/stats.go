package network

import "sync/atomic"

// Stats counts datagrams through each stage of the inbound pipeline.
// All counters are atomic; readers get a consistent-enough snapshot
// without stalling the receive path.
type Stats struct {
	Received         atomic.Uint64
	Routed           atomic.Uint64
	AcksSent         atomic.Uint64
	DroppedNoType    atomic.Uint64
	DroppedDuplicate atomic.Uint64
	DroppedToken     atomic.Uint64
	DroppedExpired   atomic.Uint64
	DroppedUnhandled atomic.Uint64
}

// StatsSnapshot is a point-in-time copy suitable for JSON responses.
type StatsSnapshot struct {
	Received         uint64 `json:"received"`
	Routed           uint64 `json:"routed"`
	AcksSent         uint64 `json:"acks_sent"`
	DroppedNoType    uint64 `json:"dropped_no_type"`
	DroppedDuplicate uint64 `json:"dropped_duplicate"`
	DroppedToken     uint64 `json:"dropped_token"`
	DroppedExpired   uint64 `json:"dropped_expired"`
	DroppedUnhandled uint64 `json:"dropped_unhandled"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Received:         s.Received.Load(),
		Routed:           s.Routed.Load(),
		AcksSent:         s.AcksSent.Load(),
		DroppedNoType:    s.DroppedNoType.Load(),
		DroppedDuplicate: s.DroppedDuplicate.Load(),
		DroppedToken:     s.DroppedToken.Load(),
		DroppedExpired:   s.DroppedExpired.Load(),
		DroppedUnhandled: s.DroppedUnhandled.Load(),
	}
}

// Dropped sums every drop counter.
func (s StatsSnapshot) Dropped() uint64 {
	return s.DroppedNoType + s.DroppedDuplicate + s.DroppedToken +
		s.DroppedExpired + s.DroppedUnhandled
}
