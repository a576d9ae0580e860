package bptree

import (
	"encoding/binary"
	"math"
)

// Codec is the fixed-width, order-preserving binary encoding a caller
// supplies for its key or value type. Size must be constant across
// every value of T. The node-sizing formula (computeSizing) assumes
// it, and a Codec that lies about its width will corrupt the page
// layout silently.
//
// For key types specifically, Encode must preserve order: if a < b
// under T's natural ordering, Encode(a) must sort before Encode(b) as
// a byte string. The codecs below all satisfy this for their type.
type Codec[T any] interface {
	// Size returns the fixed encoded width, in bytes, of a value of type T.
	Size() int
	// Encode writes v into dst, which has exactly Size() bytes.
	Encode(v T, dst []byte)
	// Decode reconstructs a value of type T from src, which has
	// exactly Size() bytes.
	Decode(src []byte) T
}

// Uint64Codec encodes uint64 big-endian, which keeps byte order
// identical to numeric order.
type Uint64Codec struct{}

func (Uint64Codec) Size() int                   { return 8 }
func (Uint64Codec) Encode(v uint64, dst []byte) { binary.BigEndian.PutUint64(dst, v) }
func (Uint64Codec) Decode(src []byte) uint64    { return binary.BigEndian.Uint64(src) }

// Int64Codec encodes int64 by flipping the sign bit before a
// big-endian write, so two's-complement negative values still sort
// correctly when compared as unsigned byte strings.
type Int64Codec struct{}

func (Int64Codec) Size() int { return 8 }

func (Int64Codec) Encode(v int64, dst []byte) {
	binary.BigEndian.PutUint64(dst, uint64(v)^(1<<63))
}

func (Int64Codec) Decode(src []byte) int64 {
	return int64(binary.BigEndian.Uint64(src) ^ (1 << 63))
}

// Float64Codec encodes float64 with the standard order-preserving bit
// trick: flip every bit for negatives, flip only the sign bit for
// non-negatives, so big-endian byte order matches float order
// (excluding NaN, which has no defined position).
type Float64Codec struct{}

func (Float64Codec) Size() int { return 8 }

func (Float64Codec) Encode(v float64, dst []byte) {
	bits := math.Float64bits(v)
	if v < 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	binary.BigEndian.PutUint64(dst, bits)
}

func (Float64Codec) Decode(src []byte) float64 {
	bits := binary.BigEndian.Uint64(src)
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}

// FixedBytesCodec encodes an opaque fixed-width byte blob of length N,
// zero-padding short values. Order is plain byte-lexicographic, so it
// is only key-order-correct for data the caller has already encoded
// in an order-preserving form (e.g. zero-padded fixed-width strings).
type FixedBytesCodec struct {
	N int
}

func (c FixedBytesCodec) Size() int { return c.N }

func (c FixedBytesCodec) Encode(v []byte, dst []byte) {
	n := copy(dst, v)
	for i := n; i < c.N; i++ {
		dst[i] = 0
	}
}

func (c FixedBytesCodec) Decode(src []byte) []byte {
	out := make([]byte, c.N)
	copy(out, src)
	return out
}
