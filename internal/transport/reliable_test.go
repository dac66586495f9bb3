package transport

import (
	"bytes"
	"net"
	"testing"
	"time"
)

func TestWriteReliableFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello world")
	if err := WriteReliableFrame(&buf, payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	frame, rest, err := tryExtractFrame(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame == nil {
		t.Fatalf("expected a complete frame")
	}
	if !bytes.Equal(frame, payload) {
		t.Fatalf("frame mismatch: got %q", frame)
	}
	if len(rest) != 0 {
		t.Fatalf("expected no trailing bytes, got %d", len(rest))
	}
}

func TestWriteReliableFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	big := make([]byte, MaxReliablePayload+1)
	if err := WriteReliableFrame(&buf, big); err == nil {
		t.Fatalf("expected an error for an oversized payload")
	}
}

func TestReliableReaderReadsFramesAcrossPartialWrites(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		payload := []byte("partial-write-test")
		var hdr [4]byte
		hdr[0] = byte(len(payload))
		hdr[1] = byte(len(payload) >> 8)
		// Write the header and payload in two separate writes to exercise
		// ReliableReader's accumulate-until-complete behavior.
		_, _ = client.Write(hdr[:2])
		time.Sleep(5 * time.Millisecond)
		_, _ = client.Write(hdr[2:])
		_, _ = client.Write(payload)
	}()

	reader := NewReliableReader(server)
	frame, err := reader.ReadFrame()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if string(frame) != "partial-write-test" {
		t.Fatalf("frame mismatch: got %q", frame)
	}
}

func TestTryExtractFrameRejectsBadLength(t *testing.T) {
	var hdr [4]byte
	hdr[0], hdr[1], hdr[2], hdr[3] = 0xFF, 0xFF, 0xFF, 0xFF
	if _, _, err := tryExtractFrame(hdr[:]); err == nil {
		t.Fatalf("expected an oversized length to be rejected")
	}
	if _, _, err := tryExtractFrame([]byte{1, 2}); err != nil {
		t.Fatalf("too few bytes to judge must not error yet: %v", err)
	}
}

func TestReadFrameReturnsErrorOnFramingViolation(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		var hdr [4]byte
		hdr[0], hdr[1], hdr[2], hdr[3] = 0xFF, 0xFF, 0xFF, 0xFF
		_, _ = client.Write(hdr[:])
	}()

	reader := NewReliableReader(server)
	if _, err := reader.ReadFrame(); err == nil {
		t.Fatalf("expected ReadFrame to return an error on a bad length prefix")
	}
}
