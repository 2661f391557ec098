// Package bytecodec implements the big-endian byte layer the envelope
// codec is built on: a cursor-based reader/writer over a contiguous byte
// buffer, plus a non-owning slice type so the crypto primitives can operate
// on a region of a larger buffer without copying it.
package bytecodec

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when a read would run past the end of the
// underlying buffer.
var ErrShortBuffer = errors.New("bytecodec: short buffer")

// Reader is a cursor over a byte buffer. It never copies the buffer itself;
// ReadSlice and Rest return views into it, while ReadBytes returns a copy.
type Reader struct {
	buf    []byte
	cursor int
}

// NewReader wraps buf for sequential big-endian reads starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int {
	return len(r.buf) - r.cursor
}

// Cursor returns the current read offset.
func (r *Reader) Cursor() int {
	return r.cursor
}

func (r *Reader) require(n int) error {
	if n < 0 || r.cursor+n > len(r.buf) {
		return ErrShortBuffer
	}
	return nil
}

// ReadU8 reads a single byte.
func (r *Reader) ReadU8() (byte, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	b := r.buf[r.cursor]
	r.cursor++
	return b, nil
}

// ReadI32 reads a signed 32-bit big-endian integer.
func (r *Reader) ReadI32() (int32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := int32(binary.BigEndian.Uint32(r.buf[r.cursor : r.cursor+4]))
	r.cursor += 4
	return v, nil
}

// ReadI64 reads a signed 64-bit big-endian integer.
func (r *Reader) ReadI64() (int64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}
	v := int64(binary.BigEndian.Uint64(r.buf[r.cursor : r.cursor+8]))
	r.cursor += 8
	return v, nil
}

// ReadBytes returns a copy of the next n bytes and advances the cursor.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.buf[r.cursor:r.cursor+n])
	r.cursor += n
	return out, nil
}

// ReadSlice returns a non-owning Slice over the next n bytes and advances
// the cursor. The returned Slice aliases r's underlying buffer.
func (r *Reader) ReadSlice(n int) (Slice, error) {
	if err := r.require(n); err != nil {
		return Slice{}, err
	}
	s := Slice{buffer: r.buf, offset: r.cursor, count: n}
	r.cursor += n
	return s, nil
}

// Rest returns a non-owning Slice over every remaining byte, without
// advancing the cursor past the end (the cursor is set to len(buf)).
func (r *Reader) Rest() Slice {
	s := Slice{buffer: r.buf, offset: r.cursor, count: len(r.buf) - r.cursor}
	r.cursor = len(r.buf)
	return s
}
