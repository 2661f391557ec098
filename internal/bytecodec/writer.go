package bytecodec

import "encoding/binary"

// Writer accumulates big-endian fields into a growing buffer. It mirrors
// Reader's field widths so envelope encoders and decoders agree on layout
// by construction.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer with capacity hint capHint.
func NewWriter(capHint int) *Writer {
	return &Writer{buf: make([]byte, 0, capHint)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteU8 appends a single byte.
func (w *Writer) WriteU8(b byte) {
	w.buf = append(w.buf, b)
}

// WriteI32 appends a signed 32-bit big-endian integer.
func (w *Writer) WriteI32(v int32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	w.buf = append(w.buf, tmp[:]...)
}

// WriteI64 appends a signed 64-bit big-endian integer.
func (w *Writer) WriteI64(v int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	w.buf = append(w.buf, tmp[:]...)
}

// WriteBytes appends b verbatim.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}
