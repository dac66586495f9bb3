// Package transport provides the two network collaborators §1 treats as
// abstract: a reliable ordered byte stream (bootstrap, acks) and an
// unreliable datagram channel (per-frame snapshots, per-frame input).
// Framing follows §4.G/§6: raw length-prefixed TCP framing rather than
// a WebSocket upgrade, with an accept-loop/read-loop split.
package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// MaxReliablePayload is the largest payload a single reliable frame may
// carry (§4.G, §6).
const MaxReliablePayload = 65000

// WriteReliableFrame writes a [u32 length][payload] frame to w.
func WriteReliableFrame(w io.Writer, payload []byte) error {
	if len(payload) == 0 || len(payload) > MaxReliablePayload {
		return fmt.Errorf("transport: payload size %d out of range (1..%d)", len(payload), MaxReliablePayload)
	}
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("transport: write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("transport: write frame payload: %w", err)
	}
	return nil
}

// ReliableReader accumulates bytes from a stream and yields complete
// length-prefixed frames: buffer per-peer, emit only when complete (§5).
type ReliableReader struct {
	conn net.Conn
	buf  []byte
}

func NewReliableReader(conn net.Conn) *ReliableReader {
	return &ReliableReader{conn: conn}
}

// ReadFrame blocks until one full frame is available, the connection
// errors, or a framing violation (length 0 or > MaxReliablePayload) is
// seen, which is fatal per §7 — the caller must drop the connection.
func (r *ReliableReader) ReadFrame() ([]byte, error) {
	for {
		frame, rest, err := tryExtractFrame(r.buf)
		if err != nil {
			return nil, err
		}
		if frame != nil {
			r.buf = rest
			return frame, nil
		}
		chunk := make([]byte, 4096)
		n, err := r.conn.Read(chunk)
		if n > 0 {
			r.buf = append(r.buf, chunk[:n]...)
		}
		if err != nil {
			return nil, err
		}
	}
}

// tryExtractFrame attempts to split one frame off the front of buf. A nil
// frame with a nil error means "not enough bytes yet, keep reading"; a
// non-nil error means the length prefix itself is invalid and the caller
// must not keep accumulating bytes behind it.
func tryExtractFrame(buf []byte) (frame, rest []byte, err error) {
	if len(buf) < 4 {
		return nil, buf, nil
	}
	size := binary.LittleEndian.Uint32(buf[:4])
	if size == 0 || size > MaxReliablePayload {
		return nil, buf, fmt.Errorf("transport: frame length %d out of range (1..%d)", size, MaxReliablePayload)
	}
	total := 4 + int(size)
	if len(buf) < total {
		return nil, buf, nil
	}
	return buf[4:total:total], buf[total:], nil
}
