package reconciler

import (
	"encoding/binary"
	"fmt"
)

// byteReader mirrors internal/session's, duplicated rather than shared
// since it is a handful of lines and neither package should import the
// other just for this.
type byteReader struct {
	b   []byte
	pos int
}

func newByteReader(b []byte) *byteReader {
	return &byteReader{b: b}
}

func (r *byteReader) need(n int) error {
	if len(r.b)-r.pos < n {
		return fmt.Errorf("reconciler: buffer underrun, need %d more bytes", n)
	}
	return nil
}

func (r *byteReader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.b[r.pos : r.pos+2])
	r.pos += 2
	return v, nil
}

func (r *byteReader) u24() (uint32, error) {
	if err := r.need(3); err != nil {
		return 0, err
	}
	v := uint32(r.b[r.pos]) | uint32(r.b[r.pos+1])<<8 | uint32(r.b[r.pos+2])<<16
	r.pos += 3
	return v, nil
}

func (r *byteReader) remaining() []byte {
	return r.b[r.pos:]
}
