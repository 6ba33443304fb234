// Package scale implements the small subset of the SCALE codec this tool
// speaks at the runtime boundary: compact unsigned integers, options, byte
// vectors and strings. Genesis-builder entry points take and return values in
// this encoding.
//
// The codec follows the conventions of the repo's serializers: writers append
// infallibly, readers panic on malformed input, and Unmarshal converts such
// panics into ErrMalformedEncoding. Decoding also rejects non-minimal compact
// encodings so that a value has exactly one accepted byte form.
package scale

import (
	"errors"

	"github.com/rony4d/go-chainspec-builder/utils/fast"
)

var (
	ErrNonCanonicalEncoding = errors.New("non canonical encoding: compact value not packed minimally")
	ErrMalformedEncoding    = errors.New("malformed encoding: structure invalid or truncated")
	ErrTooLargeAlloc        = errors.New("too large allocation: decoded size exceeds limits")
)

// MaxAlloc limits decoded byte-vector sizes. Runtime blobs and genesis
// configs are a few megabytes; anything past this is a corrupt length prefix.
const MaxAlloc = 32 * 1024 * 1024

// Writer encodes values into an append-only buffer.
type Writer struct {
	bytes *fast.Writer
}

// Reader decodes values from a buffer, panicking on malformed input.
type Reader struct {
	bytes *fast.Reader
}

func NewWriter() *Writer {
	return &Writer{bytes: fast.NewWriter(make([]byte, 0, 128))}
}

func NewReader(raw []byte) *Reader {
	return &Reader{bytes: fast.NewReader(raw)}
}

// Output returns everything written so far.
func (w *Writer) Output() []byte {
	return w.bytes.Bytes()
}

// Empty reports whether the Reader has consumed its whole input.
func (r *Reader) Empty() bool {
	return r.bytes.Empty()
}

// Unmarshal runs fn against a Reader over raw, converting decode panics into
// ErrMalformedEncoding. Trailing unconsumed bytes are an error too: every
// value this tool decodes occupies its buffer exactly.
func Unmarshal(raw []byte, fn func(r *Reader) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok && (errors.Is(e, ErrNonCanonicalEncoding) || errors.Is(e, ErrTooLargeAlloc)) {
				err = e
				return
			}
			err = ErrMalformedEncoding
		}
	}()

	r := NewReader(raw)
	if err := fn(r); err != nil {
		return err
	}
	if !r.Empty() {
		return ErrMalformedEncoding
	}
	return nil
}

// ----------------------------------------------------------------------------
// Compact integers
// ----------------------------------------------------------------------------

// CompactUint writes v in SCALE compact form: the two lowest bits of the
// first byte select single-byte, two-byte, four-byte or big-integer mode.
func (w *Writer) CompactUint(v uint64) {
	switch {
	case v < 1<<6:
		w.bytes.WriteByte(byte(v) << 2)
	case v < 1<<14:
		u := uint16(v)<<2 | 0b01
		w.bytes.WriteByte(byte(u))
		w.bytes.WriteByte(byte(u >> 8))
	case v < 1<<30:
		u := uint32(v)<<2 | 0b10
		w.bytes.WriteByte(byte(u))
		w.bytes.WriteByte(byte(u >> 8))
		w.bytes.WriteByte(byte(u >> 16))
		w.bytes.WriteByte(byte(u >> 24))
	default:
		n := 0
		for x := v; x != 0; x >>= 8 {
			n++
		}
		w.bytes.WriteByte(byte(n-4)<<2 | 0b11)
		for i := 0; i < n; i++ {
			w.bytes.WriteByte(byte(v >> (8 * i)))
		}
	}
}

// CompactUint decodes a compact integer, panicking on truncated input,
// non-minimal encodings, or values past uint64.
func (r *Reader) CompactUint() uint64 {
	first := r.bytes.ReadByte()
	switch first & 0b11 {
	case 0b00:
		return uint64(first >> 2)
	case 0b01:
		v := uint64(first)>>2 | uint64(r.bytes.ReadByte())<<6
		if v < 1<<6 {
			panic(ErrNonCanonicalEncoding)
		}
		return v
	case 0b10:
		v := uint64(first) >> 2
		for i := 0; i < 3; i++ {
			v |= uint64(r.bytes.ReadByte()) << (6 + 8*i)
		}
		if v < 1<<14 {
			panic(ErrNonCanonicalEncoding)
		}
		return v
	default:
		n := int(first>>2) + 4
		if n > 8 {
			// u128 ranges are legal SCALE but nothing here produces them
			panic(ErrMalformedEncoding)
		}
		var v uint64
		var last byte
		for i := 0; i < n; i++ {
			last = r.bytes.ReadByte()
			v |= uint64(last) << (8 * i)
		}
		if last == 0 || v < 1<<30 {
			panic(ErrNonCanonicalEncoding)
		}
		return v
	}
}

// ----------------------------------------------------------------------------
// Composite values
// ----------------------------------------------------------------------------

// Byte writes a raw byte with no framing.
func (w *Writer) Byte(v byte) {
	w.bytes.WriteByte(v)
}

func (r *Reader) Byte() byte {
	return r.bytes.ReadByte()
}

// Raw writes bytes with no length prefix.
func (w *Writer) Raw(v []byte) {
	w.bytes.Write(v)
}

func (r *Reader) Raw(n int) []byte {
	return r.bytes.Read(n)
}

// Bytes writes a length-prefixed byte vector (Vec<u8>).
func (w *Writer) Bytes(v []byte) {
	w.CompactUint(uint64(len(v)))
	w.bytes.Write(v)
}

func (r *Reader) Bytes() []byte {
	size := r.CompactUint()
	if size > MaxAlloc {
		panic(ErrTooLargeAlloc)
	}
	buf := make([]byte, size)
	copy(buf, r.bytes.Read(int(size)))
	return buf
}

// String writes a length-prefixed UTF-8 string.
func (w *Writer) String(v string) {
	w.Bytes([]byte(v))
}

func (r *Reader) String() string {
	return string(r.Bytes())
}

// Option writes an option discriminant: 0x01 when present, 0x00 when absent.
// The caller writes the payload itself after a present marker.
func (w *Writer) Option(present bool) {
	if present {
		w.bytes.WriteByte(0x01)
	} else {
		w.bytes.WriteByte(0x00)
	}
}

// Option reads an option discriminant; any byte other than 0x00/0x01 is
// malformed.
func (r *Reader) Option() bool {
	switch r.bytes.ReadByte() {
	case 0x00:
		return false
	case 0x01:
		return true
	default:
		panic(ErrMalformedEncoding)
	}
}
