package peer

import (
	"net"
	"testing"
	"time"
)

func TestNewIdentity(t *testing.T) {
	id := NewIdentity("alice", "192.168.1.10")

	if got := id.UserID(); got != "alice@192.168.1.10" {
		t.Errorf("UserID() = %q, want alice@192.168.1.10", got)
	}

	// Display name defaults to the chosen name
	name, status := id.Profile()
	if name != "alice" || status != "" {
		t.Errorf("Profile() = %q/%q, want alice/empty", name, status)
	}
}

func TestIdentityProfileUpdates(t *testing.T) {
	id := NewIdentity("bob", "10.0.0.2")

	id.SetProfile("Bobby", "hacking")
	name, status := id.Profile()
	if name != "Bobby" || status != "hacking" {
		t.Errorf("Profile() = %q/%q, want Bobby/hacking", name, status)
	}

	// Empty display name keeps the old one, status may clear
	id.SetProfile("", "")
	name, status = id.Profile()
	if name != "Bobby" {
		t.Errorf("display name = %q after empty update, want Bobby", name)
	}
	if status != "" {
		t.Errorf("status = %q, want empty", status)
	}
}

func TestIdentityAvatar(t *testing.T) {
	id := NewIdentity("carol", "10.0.0.3")

	if id.HasAvatar() {
		t.Error("HasAvatar() = true for fresh identity")
	}

	id.SetAvatar("image/png", []byte{1, 2, 3})
	if !id.HasAvatar() {
		t.Error("HasAvatar() = false after SetAvatar")
	}
	mime, data := id.Avatar()
	if mime != "image/png" || len(data) != 3 {
		t.Errorf("Avatar() = %q/%d bytes, want image/png/3", mime, len(data))
	}
}

func TestIdentityBroadcastTimestamps(t *testing.T) {
	id := NewIdentity("dave", "10.0.0.4")

	if !id.LastProfileAt().IsZero() {
		t.Error("LastProfileAt() not zero for fresh identity")
	}

	pingAt := time.Unix(1700000000, 0)
	profileAt := time.Unix(1700000300, 0)
	id.RecordPing(pingAt)
	id.RecordProfile(profileAt)

	if !id.LastPingAt().Equal(pingAt) {
		t.Errorf("LastPingAt() = %v, want %v", id.LastPingAt(), pingAt)
	}
	if !id.LastProfileAt().Equal(profileAt) {
		t.Errorf("LastProfileAt() = %v, want %v", id.LastProfileAt(), profileAt)
	}
}

func TestDetectLocalIP(t *testing.T) {
	ip := DetectLocalIP()

	if ip == "" {
		t.Fatal("DetectLocalIP() returned empty string")
	}
	if net.ParseIP(ip) == nil {
		t.Errorf("DetectLocalIP() = %q, not a valid IP", ip)
	}
}
