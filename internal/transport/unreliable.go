package transport

import (
	"fmt"
	"net"
	"time"
)

// MaxDatagramBytes is the hard ceiling on an encoded unreliable payload
// (§4.G, §6). The replicator never builds a datagram larger than this;
// this constant is the transport-level backstop that refuses to send
// (or silently drops on receive) anything larger.
const MaxDatagramBytes = 1400

// MaxInputPacketBytes bounds client->server input packets (§4.G).
const MaxInputPacketBytes = 1024

// UnreliableConn wraps a UDP socket, with the read and write sides kept
// separate: ReadFrom/WriteTo are safe to call from dedicated poll loops
// without additional locking, matching net.PacketConn's own concurrency
// guarantees.
type UnreliableConn struct {
	pc net.PacketConn
}

func ListenUnreliable(addr string) (*UnreliableConn, error) {
	pc, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen udp %s: %w", addr, err)
	}
	return &UnreliableConn{pc: pc}, nil
}

func (u *UnreliableConn) Close() error {
	return u.pc.Close()
}

func (u *UnreliableConn) LocalAddr() net.Addr {
	return u.pc.LocalAddr()
}

// Send writes one datagram to addr. Payloads larger than MaxDatagramBytes
// indicate a builder bug upstream, not a transient condition.
func (u *UnreliableConn) Send(addr net.Addr, payload []byte) error {
	if len(payload) > MaxDatagramBytes {
		return fmt.Errorf("transport: datagram %d bytes exceeds %d byte cap", len(payload), MaxDatagramBytes)
	}
	_, err := u.pc.WriteTo(payload, addr)
	return err
}

// Poll drains all datagrams currently queued on the socket, invoking fn
// for each, then returns (§5: "poll() drains pending UDP ... per tick",
// "non-blocking"). Each read gets a deadline one millisecond ahead, so
// ReadFrom returns queued datagrams at once and times out within a
// millisecond once the queue is empty instead of blocking for the next
// packet. (A deadline of time.Now() would already be expired, and Go then
// fails the read without looking at the queue.) Datagrams larger than
// MaxDatagramBytes are dropped without calling fn.
func (u *UnreliableConn) Poll(fn func(addr net.Addr, payload []byte)) {
	buf := make([]byte, MaxDatagramBytes+64)
	for {
		_ = u.pc.SetReadDeadline(time.Now().Add(time.Millisecond))
		n, addr, err := u.pc.ReadFrom(buf)
		if err != nil {
			return
		}
		if n > MaxDatagramBytes {
			continue
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		fn(addr, payload)
	}
}
