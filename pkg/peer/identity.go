package peer

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// Identity is the local peer: its wire user id, profile fields and the
// discovery bookkeeping timestamps. Profile fields are written by user
// actions while the timestamps are written by the announce loop, so both
// go through one mutex.
type Identity struct {
	mu            sync.Mutex
	userID        string
	displayName   string
	status        string
	avatarType    string
	avatarData    []byte
	lastPingAt    time.Time
	lastProfileAt time.Time
}

// NewIdentity derives the wire user id "name@ip" and starts with the
// name as display name.
func NewIdentity(name, ip string) *Identity {
	return &Identity{
		userID:      fmt.Sprintf("%s@%s", name, ip),
		displayName: name,
	}
}

// UserID returns the wire user id.
func (id *Identity) UserID() string {
	id.mu.Lock()
	defer id.mu.Unlock()
	return id.userID
}

// Profile returns the current display name and status.
func (id *Identity) Profile() (displayName, status string) {
	id.mu.Lock()
	defer id.mu.Unlock()
	return id.displayName, id.status
}

// SetProfile updates the display name and status. Empty display names
// are ignored so a peer never announces without one.
func (id *Identity) SetProfile(displayName, status string) {
	id.mu.Lock()
	defer id.mu.Unlock()
	if displayName != "" {
		id.displayName = displayName
	}
	id.status = status
}

// Avatar returns the avatar MIME type and raw bytes, nil if unset.
func (id *Identity) Avatar() (mimeType string, data []byte) {
	id.mu.Lock()
	defer id.mu.Unlock()
	return id.avatarType, id.avatarData
}

// SetAvatar replaces the avatar.
func (id *Identity) SetAvatar(mimeType string, data []byte) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.avatarType = mimeType
	id.avatarData = data
}

// HasAvatar reports whether an avatar is set.
func (id *Identity) HasAvatar() bool {
	id.mu.Lock()
	defer id.mu.Unlock()
	return len(id.avatarData) > 0
}

// RecordPing stores the time of the last PING broadcast.
func (id *Identity) RecordPing(t time.Time) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.lastPingAt = t
}

// RecordProfile stores the time of the last PROFILE broadcast.
func (id *Identity) RecordProfile(t time.Time) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.lastProfileAt = t
}

// LastPingAt returns when the last PING was broadcast.
func (id *Identity) LastPingAt() time.Time {
	id.mu.Lock()
	defer id.mu.Unlock()
	return id.lastPingAt
}

// LastProfileAt returns when the last PROFILE was broadcast.
func (id *Identity) LastProfileAt() time.Time {
	id.mu.Lock()
	defer id.mu.Unlock()
	return id.lastProfileAt
}

// DetectLocalIP finds the address the OS would route LAN traffic from.
// The dial never sends a packet; UDP connect only resolves a route.
// Falls back to loopback when no route exists.
func DetectLocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
