package network

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zuraxy/lsnp-node/pkg/peer"
)

// SchedulerConfig holds the periodic discovery timings.
type SchedulerConfig struct {
	AnnounceInterval time.Duration // gap between presence broadcasts
	CleanupInterval  time.Duration // gap between stale-peer scans
	PeerTimeout      time.Duration // silence after which a peer is dropped
}

// DefaultSchedulerConfig returns the standard LSNP cadence.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		AnnounceInterval: 300 * time.Second,
		CleanupInterval:  1800 * time.Second,
		PeerTimeout:      300 * time.Second,
	}
}

// Announcer broadcasts this peer's presence. The node implements it;
// the scheduler only decides which announcement is due.
type Announcer interface {
	BroadcastProfile() error
	BroadcastPing() error
}

// Scheduler drives periodic presence announcements and stale-peer
// cleanup. Every announce tick sends something: a full PROFILE when
// one hasn't gone out for an announce interval, a lightweight PING
// otherwise. The first tick runs immediately so a fresh peer is
// visible before the first interval elapses.
type Scheduler struct {
	config    *SchedulerConfig
	identity  *peer.Identity
	directory *peer.Directory
	announcer Announcer

	// floor for the inter-tick sleep, so a slow tick cannot make the
	// loop spin hot
	minSleep time.Duration
	now      func() time.Time

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewScheduler(config *SchedulerConfig, identity *peer.Identity, directory *peer.Directory, announcer Announcer) *Scheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	return &Scheduler{
		config:    config,
		identity:  identity,
		directory: directory,
		announcer: announcer,
		minSleep:  time.Second,
		now:       time.Now,
	}
}

// Start spawns the announce and cleanup loops. Starting a running
// scheduler logs and does nothing.
func (s *Scheduler) Start() {
	if !s.running.CompareAndSwap(false, true) {
		log.Println("⚠️ discovery already running")
		return
	}
	s.done = make(chan struct{})

	s.wg.Add(2)
	go s.announceLoop()
	go s.cleanupLoop()
	log.Printf("✅ Discovery started (announce every %s, cleanup every %s)",
		s.config.AnnounceInterval, s.config.CleanupInterval)
}

// Stop halts both loops and waits for them to exit.
func (s *Scheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	close(s.done)
	s.wg.Wait()
}

func (s *Scheduler) announceLoop() {
	defer s.wg.Done()

	for {
		start := s.now()
		s.announceTick(start)

		sleep := s.config.AnnounceInterval - s.now().Sub(start)
		if sleep < s.minSleep {
			sleep = s.minSleep
		}
		select {
		case <-s.done:
			return
		case <-time.After(sleep):
		}
	}
}

// announceTick sends one announcement and stamps the identity with
// the tick-start time. Using the same timestamp for the decision and
// the record keeps profile refreshes at every full interval instead
// of drifting to every other one.
func (s *Scheduler) announceTick(now time.Time) {
	if now.Sub(s.identity.LastProfileAt()) >= s.config.AnnounceInterval {
		if err := s.announcer.BroadcastProfile(); err != nil {
			// One failed announcement must not end discovery
			log.Printf("⚠️ announce failed: %v", err)
			return
		}
		s.identity.RecordProfile(now)
		return
	}

	if err := s.announcer.BroadcastPing(); err != nil {
		log.Printf("⚠️ announce failed: %v", err)
		return
	}
	s.identity.RecordPing(now)
}

func (s *Scheduler) cleanupLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case <-time.After(s.config.CleanupInterval):
		}

		if removed := s.directory.Cleanup(s.config.PeerTimeout); removed > 0 {
			log.Printf("🧹 evicted %d stale peers", removed)
		}
	}
}
