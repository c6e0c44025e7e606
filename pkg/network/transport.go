package network

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/zuraxy/lsnp-node/pkg/protocol"
)

// MaxDatagramSize bounds one receive; a PROFILE with an embedded
// base64 avatar is the largest message on the wire.
const MaxDatagramSize = 1 << 20

// TransportConfig holds UDP socket configuration.
type TransportConfig struct {
	Port           int
	BroadcastAddrs []string
	BufferSize     int           // kernel socket buffer request
	ReadTimeout    time.Duration // bounds how long Stop waits
}

// DefaultTransportConfig returns the standard LSNP socket setup.
func DefaultTransportConfig() *TransportConfig {
	return &TransportConfig{
		Port:           protocol.DefaultPort,
		BroadcastAddrs: []string{"255.255.255.255", "127.0.0.1"},
		BufferSize:     MaxDatagramSize,
		ReadTimeout:    time.Second,
	}
}

// ReceiveHandler is invoked synchronously for every inbound datagram.
type ReceiveHandler func(data []byte, from *net.UDPAddr)

// UDPTransport owns the LSNP socket. One socket serves both unicast
// and broadcast traffic; SO_REUSEADDR lets several peers share a
// machine and SO_BROADCAST enables the discovery fan-out.
type UDPTransport struct {
	config  *TransportConfig
	conn    *net.UDPConn
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewUDPTransport binds the socket. A bind failure is fatal and is
// returned to the caller; everything after a successful bind is
// non-fatal.
func NewUDPTransport(config *TransportConfig) (*UDPTransport, error) {
	if config == nil {
		config = DefaultTransportConfig()
	}

	lc := net.ListenConfig{Control: setSocketOptions}
	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", config.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP port %d: %w", config.Port, err)
	}
	conn := pc.(*net.UDPConn)

	// Best effort; the kernel may clamp these.
	if err := conn.SetReadBuffer(config.BufferSize); err != nil {
		log.Printf("⚠️ could not size read buffer: %v", err)
	}
	if err := conn.SetWriteBuffer(config.BufferSize); err != nil {
		log.Printf("⚠️ could not size write buffer: %v", err)
	}

	return &UDPTransport{config: config, conn: conn}, nil
}

func setSocketOptions(network, address string, c syscall.RawConn) error {
	var opErr error
	err := c.Control(func(fd uintptr) {
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if opErr != nil {
			return
		}
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if err != nil {
		return err
	}
	return opErr
}

// Start spawns the receive loop. Starting an already running transport
// logs and does nothing.
func (t *UDPTransport) Start(handler ReceiveHandler) {
	if !t.running.CompareAndSwap(false, true) {
		log.Println("⚠️ transport already receiving")
		return
	}

	t.wg.Add(1)
	go t.receiveLoop(handler)
	log.Printf("✅ Listening on %s", t.conn.LocalAddr())
}

// Stop halts the receive loop. The loop observes the stop within one
// read timeout. Stopping a stopped transport is a no-op.
func (t *UDPTransport) Stop() {
	if !t.running.CompareAndSwap(true, false) {
		return
	}
	t.wg.Wait()
}

// Close stops receiving and closes the socket.
func (t *UDPTransport) Close() error {
	t.Stop()
	return t.conn.Close()
}

// LocalAddr returns the bound address.
func (t *UDPTransport) LocalAddr() *net.UDPAddr {
	return t.conn.LocalAddr().(*net.UDPAddr)
}

// Send transmits one datagram to a peer. Failures are logged and
// returned, never fatal.
func (t *UDPTransport) Send(data []byte, addr *net.UDPAddr) error {
	if _, err := t.conn.WriteToUDP(data, addr); err != nil {
		log.Printf("⚠️ send to %s failed: %v", addr, err)
		return err
	}
	return nil
}

// Broadcast transmits one datagram to every configured broadcast
// target on the LSNP port. A failed target is logged and skipped; the
// joined errors are returned.
func (t *UDPTransport) Broadcast(data []byte) error {
	port := t.config.Port
	if port == 0 {
		port = t.LocalAddr().Port
	}

	var errs []error
	for _, host := range t.config.BroadcastAddrs {
		ip := net.ParseIP(host)
		if ip == nil {
			errs = append(errs, fmt.Errorf("bad broadcast address %q", host))
			continue
		}
		if err := t.Send(data, &net.UDPAddr{IP: ip, Port: port}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *UDPTransport) receiveLoop(handler ReceiveHandler) {
	defer t.wg.Done()

	buf := make([]byte, MaxDatagramSize)
	for t.running.Load() {
		if err := t.conn.SetReadDeadline(time.Now().Add(t.config.ReadTimeout)); err != nil {
			log.Printf("⚠️ set read deadline: %v", err)
			return
		}

		n, from, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			// Deadline expiry is the stop-check heartbeat
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if !t.running.Load() {
				return
			}
			log.Printf("⚠️ read error: %v", err)
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		t.invoke(handler, data, from)
	}

	log.Println("Receive loop stopped")
}

// invoke shields the loop from a panicking handler; one bad datagram
// must never take down receiving.
func (t *UDPTransport) invoke(handler ReceiveHandler, data []byte, from *net.UDPAddr) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ recovered from handler panic: %v", r)
		}
	}()
	handler(data, from)
}
