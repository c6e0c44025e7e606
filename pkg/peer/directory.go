package peer

import (
	"errors"
	"net"
	"sort"
	"sync"
	"time"
)

// ErrUnknownPeer is returned for follow operations on a user id the
// directory has never seen.
var ErrUnknownPeer = errors.New("unknown peer")

// Record is the directory's knowledge of one remote peer.
type Record struct {
	UserID      string
	IP          string
	Port        int
	DisplayName string
	Status      string
	HasAvatar   bool
	AvatarType  string
	AvatarData  []byte
	LastSeen    time.Time
}

// Addr returns the peer's UDP address.
func (r Record) Addr() *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP(r.IP), Port: r.Port}
}

// Directory tracks every known remote peer and the local follow graph.
// Upserts arrive from the transport receive path while Cleanup runs on
// its own loop, so all state sits behind one mutex. Records are handed
// out by value.
type Directory struct {
	mu        sync.Mutex
	peers     map[string]*Record
	following map[string]bool
	followers map[string]bool
	now       func() time.Time
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		peers:     make(map[string]*Record),
		following: make(map[string]bool),
		followers: make(map[string]bool),
		now:       time.Now,
	}
}

// Upsert creates the record for a user id or refreshes its address,
// and always refreshes LastSeen. Called for every inbound message.
func (d *Directory) Upsert(userID, ip string, port int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r := d.ensureLocked(userID)
	if ip != "" {
		r.IP = ip
	}
	if port != 0 {
		r.Port = port
	}
	r.LastSeen = d.now()
}

// SetProfile merges profile fields into a peer's record, creating it if
// needed. An empty display name leaves the existing one alone.
func (d *Directory) SetProfile(userID, displayName, status string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r := d.ensureLocked(userID)
	if displayName != "" {
		r.DisplayName = displayName
	}
	r.Status = status
	r.LastSeen = d.now()
}

// SetAvatar stores a peer's avatar.
func (d *Directory) SetAvatar(userID, mimeType string, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r := d.ensureLocked(userID)
	r.HasAvatar = len(data) > 0
	r.AvatarType = mimeType
	r.AvatarData = data
}

func (d *Directory) ensureLocked(userID string) *Record {
	r, ok := d.peers[userID]
	if !ok {
		r = &Record{UserID: userID}
		d.peers[userID] = r
	}
	return r
}

// Get returns a copy of a peer's record.
func (d *Directory) Get(userID string) (Record, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.peers[userID]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// List returns copies of all records, sorted by user id.
func (d *Directory) List() []Record {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Record, 0, len(d.peers))
	for _, r := range d.peers {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Count returns the number of known peers.
func (d *Directory) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.peers)
}

// DisplayName returns the peer's display name, falling back to the
// user id for peers that never sent a PROFILE.
func (d *Directory) DisplayName(userID string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if r, ok := d.peers[userID]; ok && r.DisplayName != "" {
		return r.DisplayName
	}
	return userID
}

// Follow marks a known peer as followed.
func (d *Directory) Follow(userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.peers[userID]; !ok {
		return ErrUnknownPeer
	}
	d.following[userID] = true
	return nil
}

// Unfollow removes a known peer from the following set.
func (d *Directory) Unfollow(userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.peers[userID]; !ok {
		return ErrUnknownPeer
	}
	delete(d.following, userID)
	return nil
}

// AddFollower records that a known peer follows us.
func (d *Directory) AddFollower(userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.peers[userID]; !ok {
		return ErrUnknownPeer
	}
	d.followers[userID] = true
	return nil
}

// RemoveFollower records that a known peer stopped following us.
func (d *Directory) RemoveFollower(userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.peers[userID]; !ok {
		return ErrUnknownPeer
	}
	delete(d.followers, userID)
	return nil
}

// IsFollowing reports whether we follow the peer.
func (d *Directory) IsFollowing(userID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.following[userID]
}

// HasFollower reports whether the peer follows us.
func (d *Directory) HasFollower(userID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.followers[userID]
}

// Following returns the followed user ids, sorted.
func (d *Directory) Following() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return sortedKeys(d.following)
}

// Followers returns the follower user ids, sorted.
func (d *Directory) Followers() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return sortedKeys(d.followers)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Cleanup evicts peers not seen within timeout and purges the evicted
// ids from both follow sets; a relationship does not outlive liveness
// tracking. Returns the number evicted.
func (d *Directory) Cleanup(timeout time.Duration) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := d.now().Add(-timeout)
	removed := 0
	for id, r := range d.peers {
		if r.LastSeen.Before(cutoff) {
			delete(d.peers, id)
			delete(d.following, id)
			delete(d.followers, id)
			removed++
		}
	}
	return removed
}
