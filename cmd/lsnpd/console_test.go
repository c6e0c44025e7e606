package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zuraxy/lsnp-node/pkg/network"
)

// newTestConsole runs the console against a loopback-only node on an
// ephemeral port so broadcasts never leave the machine.
func newTestConsole(t *testing.T) (*console, *network.Node, *bytes.Buffer) {
	t.Helper()

	config := network.DefaultConfig()
	config.Name = "consoletest"
	config.Port = 0
	config.BroadcastAddrs = []string{"127.0.0.1"}

	node, err := network.NewNode(config)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	if err := node.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(node.Stop)

	out := &bytes.Buffer{}
	return newConsole(node, strings.NewReader(""), out), node, out
}

func TestConsoleRejectsBareText(t *testing.T) {
	c, _, out := newTestConsole(t)

	if quit := c.runLine("hello everyone"); quit {
		t.Fatal("bare text should not quit")
	}
	if !strings.Contains(out.String(), "Not a command") {
		t.Fatalf("bare text should be rejected, got %q", out.String())
	}
}

func TestConsoleUnknownCommand(t *testing.T) {
	c, _, out := newTestConsole(t)

	c.runLine("/frobnicate")
	if !strings.Contains(out.String(), "Unknown command") {
		t.Fatalf("expected unknown-command hint, got %q", out.String())
	}
}

func TestConsoleQuit(t *testing.T) {
	c, _, _ := newTestConsole(t)

	if !c.runLine("/quit") {
		t.Fatal("/quit should report quit")
	}
	if !c.runLine("/exit") {
		t.Fatal("/exit should report quit")
	}
	if c.runLine("") {
		t.Fatal("empty line should not quit")
	}
}

func TestConsoleHelp(t *testing.T) {
	c, _, out := newTestConsole(t)

	c.runLine("/help")
	for _, want := range []string{"/post", "/dm", "/sendfile", "/ttt"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help should mention %s", want)
		}
	}
}

func TestConsolePost(t *testing.T) {
	c, _, out := newTestConsole(t)

	c.runLine("/post")
	if !strings.Contains(out.String(), "Usage") {
		t.Fatalf("empty post should print usage, got %q", out.String())
	}

	out.Reset()
	c.runLine("/post hello LAN")
	if !strings.Contains(out.String(), "broadcast") {
		t.Fatalf("post should confirm the broadcast, got %q", out.String())
	}
}

func TestConsolePeers(t *testing.T) {
	c, node, out := newTestConsole(t)

	c.runLine("/peers")
	if !strings.Contains(out.String(), "No peers") {
		t.Fatalf("empty directory should say so, got %q", out.String())
	}

	node.Directory().Upsert("dave@192.168.1.9", "192.168.1.9", 50999)
	out.Reset()
	c.runLine("/peers")
	if !strings.Contains(out.String(), "dave@192.168.1.9") {
		t.Fatalf("peer listing should include dave, got %q", out.String())
	}
}

func TestConsoleFollowUnknownPeer(t *testing.T) {
	c, _, out := newTestConsole(t)

	c.runLine("/follow ghost@10.0.0.1")
	if !strings.Contains(out.String(), "unknown peer") {
		t.Fatalf("following a stranger should fail, got %q", out.String())
	}
}

func TestConsoleStats(t *testing.T) {
	c, node, out := newTestConsole(t)

	c.runLine("/stats")
	if !strings.Contains(out.String(), "user_id") {
		t.Fatalf("stats should include user_id, got %q", out.String())
	}
	if !strings.Contains(out.String(), node.Identity().UserID()) {
		t.Fatalf("stats should include our own id, got %q", out.String())
	}
}

func TestConsoleVerboseToggle(t *testing.T) {
	c, node, out := newTestConsole(t)

	c.runLine("/verbose")
	if !node.Verbose() {
		t.Fatal("first toggle should enable verbose")
	}
	if !strings.Contains(out.String(), "verbose on") {
		t.Fatalf("toggle should report the new state, got %q", out.String())
	}

	c.runLine("/verbose")
	if node.Verbose() {
		t.Fatal("second toggle should disable verbose")
	}
}

func TestConsoleProfile(t *testing.T) {
	c, node, _ := newTestConsole(t)

	c.runLine("/profile Davey out for lunch")

	name, status := node.Identity().Profile()
	if name != "Davey" {
		t.Errorf("display name = %q, want Davey", name)
	}
	if status != "out for lunch" {
		t.Errorf("status = %q, want 'out for lunch'", status)
	}
}

func TestConsoleSendFile(t *testing.T) {
	c, node, out := newTestConsole(t)

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("file transfer over datagrams"), 0o644); err != nil {
		t.Fatal(err)
	}

	c.runLine("/sendfile dave@127.0.0.1 " + path)
	if !strings.Contains(out.String(), "unknown peer") {
		t.Fatalf("offering to a stranger should fail, got %q", out.String())
	}

	// Port 51001 is unused; UDP sends to it do not error.
	node.Directory().Upsert("dave@127.0.0.1", "127.0.0.1", 51001)
	out.Reset()
	c.runLine("/sendfile dave@127.0.0.1 " + path)
	if !strings.Contains(out.String(), "Offered notes.txt") {
		t.Fatalf("offer should confirm, got %q", out.String())
	}
}

func TestConsoleAcceptUnknownTransfer(t *testing.T) {
	c, _, out := newTestConsole(t)

	c.runLine("/accept bogus-file-id")
	if !strings.Contains(out.String(), "unknown transfer") {
		t.Fatalf("accepting an unknown offer should fail, got %q", out.String())
	}
}

func TestConsoleTicTacToeUsage(t *testing.T) {
	c, _, out := newTestConsole(t)

	c.runLine("/ttt")
	if !strings.Contains(out.String(), "Usage") {
		t.Fatalf("bare /ttt should print usage, got %q", out.String())
	}

	out.Reset()
	c.runLine("/ttt list")
	if !strings.Contains(out.String(), "No games") {
		t.Fatalf("empty game list should say so, got %q", out.String())
	}
}

func TestConsoleGroupList(t *testing.T) {
	c, node, out := newTestConsole(t)

	c.runLine("/group list")
	if !strings.Contains(out.String(), "No groups") {
		t.Fatalf("empty group list should say so, got %q", out.String())
	}

	self := node.Identity().UserID()
	if err := node.Groups().Create("lunch", "Lunch Crew", self, []string{self}); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	c.runLine("/group list")
	if !strings.Contains(out.String(), "Lunch Crew") {
		t.Fatalf("group list should include the group, got %q", out.String())
	}
}
