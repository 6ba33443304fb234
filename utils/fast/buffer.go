// Package fast provides minimal byte-slice readers and writers for the
// serialization paths of this tool. bytes.Buffer and bufio carry bookkeeping
// these paths never need; here a Writer is an appending slice and a Reader is
// a slice plus a cursor.
//
// Neither type checks bounds: reading past the end panics with a slice range
// error. Callers decoding untrusted input must wrap the decode in a
// recover-based adapter (see utils/scale.Unmarshal).
package fast

type Reader struct {
	buf    []byte
	offset int
}

type Writer struct {
	buf []byte
}

// NewReader creates a Reader consuming the provided slice.
func NewReader(bb []byte) *Reader {
	return &Reader{buf: bb}
}

// NewWriter creates a Writer appending to the provided initial slice.
// Usually called with make([]byte, 0, capacity).
func NewWriter(bb []byte) *Writer {
	return &Writer{buf: bb}
}

// WriteByte appends a single byte.
func (b *Writer) WriteByte(v byte) {
	b.buf = append(b.buf, v)
}

// Write appends a slice of bytes.
func (b *Writer) Write(v []byte) {
	b.buf = append(b.buf, v...)
}

// Bytes returns the accumulated content of the Writer.
func (b *Writer) Bytes() []byte {
	return b.buf
}

// Read consumes and returns the next n bytes. The returned slice aliases the
// underlying buffer. Panics if fewer than n bytes remain.
func (b *Reader) Read(n int) []byte {
	res := b.buf[b.offset : b.offset+n]
	b.offset += n
	return res
}

// ReadByte consumes and returns a single byte. Panics if the buffer is empty.
func (b *Reader) ReadByte() byte {
	res := b.buf[b.offset]
	b.offset++
	return res
}

// Position returns how many bytes have been consumed so far.
func (b *Reader) Position() int {
	return b.offset
}

// Remaining returns how many bytes are left to read.
func (b *Reader) Remaining() int {
	return len(b.buf) - b.offset
}

// Empty reports whether the Reader has reached the end of the buffer.
func (b *Reader) Empty() bool {
	return len(b.buf) == b.offset
}
