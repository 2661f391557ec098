package bytecodec

// Slice aliases a region of a larger buffer without copying it. The codec
// passes Slices to the aead package so a nested decrypt (site key unwraps
// the identity after the master key unwrapped the site key reference)
// never allocates an intermediate buffer for the outer plaintext.
//
// The buffer backing a Slice must outlive every use of the Slice.
type Slice struct {
	buffer []byte
	offset int
	count  int
}

// NewSlice wraps buf[offset:offset+count] as a non-owning Slice.
func NewSlice(buf []byte, offset, count int) Slice {
	return Slice{buffer: buf, offset: offset, count: count}
}

// Len returns the number of bytes the Slice covers.
func (s Slice) Len() int {
	return s.count
}

// Bytes returns the aliased region as a []byte. The caller must not retain
// it past the lifetime of the backing buffer, and must not assume it owns
// the memory.
func (s Slice) Bytes() []byte {
	return s.buffer[s.offset : s.offset+s.count]
}
