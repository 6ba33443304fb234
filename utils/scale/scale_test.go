package scale

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompactUintRoundTrip(t *testing.T) {
	require := require.New(t)

	// boundaries of each compact mode plus a few interior points
	values := []uint64{
		0, 1, 42, 63,
		64, 16383,
		16384, 1<<30 - 1,
		1 << 30, 1 << 32, math.MaxUint64,
	}

	for _, v := range values {
		w := NewWriter()
		w.CompactUint(v)
		raw := w.Output()

		var got uint64
		err := Unmarshal(raw, func(r *Reader) error {
			got = r.CompactUint()
			return nil
		})
		require.NoError(err, "value %d", v)
		require.Equal(v, got, "value %d", v)
	}
}

func TestCompactUintKnownEncodings(t *testing.T) {
	require := require.New(t)

	cases := []struct {
		v   uint64
		raw []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x04}},
		{63, []byte{0xfc}},
		{64, []byte{0x01, 0x01}},
		{16383, []byte{0xfd, 0xff}},
		{16384, []byte{0x02, 0x00, 0x01, 0x00}},
		{1 << 30, []byte{0x03, 0x00, 0x00, 0x00, 0x40}},
	}
	for _, c := range cases {
		w := NewWriter()
		w.CompactUint(c.v)
		require.Equal(c.raw, w.Output(), "value %d", c.v)
	}
}

func TestCompactUintNonCanonical(t *testing.T) {
	require := require.New(t)

	cases := [][]byte{
		{0x01, 0x00},                   // 0 padded into two-byte mode
		{0x02, 0x00, 0x00, 0x00},       // 0 padded into four-byte mode
		{0x03, 0x01, 0x00, 0x00, 0x00}, // 1 padded into big-integer mode
	}
	for _, raw := range cases {
		err := Unmarshal(raw, func(r *Reader) error {
			r.CompactUint()
			return nil
		})
		require.ErrorIs(err, ErrNonCanonicalEncoding, "input %x", raw)
	}
}

func TestBytesAndString(t *testing.T) {
	require := require.New(t)

	w := NewWriter()
	w.Bytes([]byte{0xde, 0xad})
	w.String("staging")
	w.Option(false)
	w.Option(true)
	w.Byte(0x7f)

	err := Unmarshal(w.Output(), func(r *Reader) error {
		require.Equal([]byte{0xde, 0xad}, r.Bytes())
		require.Equal("staging", r.String())
		require.False(r.Option())
		require.True(r.Option())
		require.Equal(byte(0x7f), r.Byte())
		return nil
	})
	require.NoError(err)
}

func TestUnmarshalErrors(t *testing.T) {
	require := require.New(t)

	// truncated vector: length prefix says 4 bytes, only 1 present
	err := Unmarshal([]byte{0x10, 0xaa}, func(r *Reader) error {
		r.Bytes()
		return nil
	})
	require.ErrorIs(err, ErrMalformedEncoding)

	// trailing garbage after a complete value
	err = Unmarshal([]byte{0x00, 0xff}, func(r *Reader) error {
		r.CompactUint()
		return nil
	})
	require.ErrorIs(err, ErrMalformedEncoding)

	// option discriminant outside {0, 1}
	err = Unmarshal([]byte{0x02}, func(r *Reader) error {
		r.Option()
		return nil
	})
	require.ErrorIs(err, ErrMalformedEncoding)

	// custom errors pass through unchanged
	errExp := errors.New("custom")
	err = Unmarshal([]byte{}, func(r *Reader) error {
		return errExp
	})
	require.Equal(errExp, err)
}
