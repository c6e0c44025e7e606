package network

import (
	"bytes"
	"net"
	"testing"
	"time"
)

func newLoopbackTransport(t *testing.T) *UDPTransport {
	t.Helper()
	tr, err := NewUDPTransport(&TransportConfig{
		Port:           0, // ephemeral, keeps parallel test runs off 50999
		BroadcastAddrs: []string{"127.0.0.1"},
		BufferSize:     64 * 1024,
		ReadTimeout:    50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func loopbackAddr(tr *UDPTransport) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: tr.LocalAddr().Port}
}

func TestTransportSendReceive(t *testing.T) {
	receiver := newLoopbackTransport(t)
	sender := newLoopbackTransport(t)

	got := make(chan []byte, 1)
	receiver.Start(func(data []byte, from *net.UDPAddr) {
		got <- data
	})

	payload := []byte("TYPE:PING\nUSER_ID:alice@127.0.0.1\n\n")
	if err := sender.Send(payload, loopbackAddr(receiver)); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case data := <-got:
		if !bytes.Equal(data, payload) {
			t.Errorf("received %q, want %q", data, payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("datagram never arrived")
	}
}

func TestTransportBroadcastLoopsBack(t *testing.T) {
	tr := newLoopbackTransport(t)

	got := make(chan *net.UDPAddr, 1)
	tr.Start(func(data []byte, from *net.UDPAddr) {
		got <- from
	})

	// With Port 0 in the config, Broadcast targets the bound port, so
	// the datagram arrives on this same socket.
	if err := tr.Broadcast([]byte("TYPE:PING\n\n")); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	select {
	case from := <-got:
		if from.Port != tr.LocalAddr().Port {
			t.Errorf("looped datagram from port %d, want %d", from.Port, tr.LocalAddr().Port)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast never looped back")
	}
}

func TestTransportBroadcastReportsBadAddress(t *testing.T) {
	tr := newLoopbackTransport(t)
	tr.config.BroadcastAddrs = []string{"not-an-ip"}

	if err := tr.Broadcast([]byte("TYPE:PING\n\n")); err == nil {
		t.Error("unparseable broadcast address accepted silently")
	}
}

func TestTransportSurvivesHandlerPanic(t *testing.T) {
	receiver := newLoopbackTransport(t)
	sender := newLoopbackTransport(t)

	// The receive loop invokes handlers serially, so no lock is needed
	// around the counter.
	delivered := make(chan int, 2)
	count := 0
	receiver.Start(func(data []byte, from *net.UDPAddr) {
		count++
		delivered <- count
		if count == 1 {
			panic("bad handler")
		}
	})

	addr := loopbackAddr(receiver)
	if err := sender.Send([]byte("TYPE:PING\n\n"), addr); err != nil {
		t.Fatalf("first send: %v", err)
	}
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("first datagram never arrived")
	}

	if err := sender.Send([]byte("TYPE:PING\n\n"), addr); err != nil {
		t.Fatalf("second send: %v", err)
	}
	select {
	case n := <-delivered:
		if n != 2 {
			t.Errorf("second delivery count = %d", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("receive loop died with the panicking handler")
	}
}

func TestTransportStartStopIdempotent(t *testing.T) {
	tr := newLoopbackTransport(t)

	tr.Start(func([]byte, *net.UDPAddr) {})
	tr.Start(func([]byte, *net.UDPAddr) {}) // logs and no-ops
	tr.Stop()
	tr.Stop()

	if err := tr.Close(); err != nil {
		t.Errorf("close after stop: %v", err)
	}
}
