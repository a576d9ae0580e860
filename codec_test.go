package bptree

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint64CodecRoundTrip(t *testing.T) {
	c := Uint64Codec{}
	buf := make([]byte, c.Size())
	for _, v := range []uint64{0, 1, 42, 1 << 63, ^uint64(0)} {
		c.Encode(v, buf)
		require.Equal(t, v, c.Decode(buf))
	}
}

func TestInt64CodecOrderPreserving(t *testing.T) {
	c := Int64Codec{}
	values := []int64{-100, -1, 0, 1, 100}
	var encoded [][]byte
	for _, v := range values {
		buf := make([]byte, c.Size())
		c.Encode(v, buf)
		encoded = append(encoded, buf)
		require.Equal(t, v, c.Decode(buf))
	}
	for i := 1; i < len(encoded); i++ {
		require.True(t, bytes.Compare(encoded[i-1], encoded[i]) < 0, "encoding of %d should sort before %d", values[i-1], values[i])
	}
}

func TestFloat64CodecOrderPreserving(t *testing.T) {
	c := Float64Codec{}
	values := []float64{-100.5, -1.0, -0.001, 0, 0.001, 1.0, 100.5}
	var encoded [][]byte
	for _, v := range values {
		buf := make([]byte, c.Size())
		c.Encode(v, buf)
		encoded = append(encoded, buf)
		require.InDelta(t, v, c.Decode(buf), 1e-9)
	}
	for i := 1; i < len(encoded); i++ {
		require.True(t, bytes.Compare(encoded[i-1], encoded[i]) < 0, "encoding of %v should sort before %v", values[i-1], values[i])
	}
}

func TestInt64CodecRandomOrderPreserving(t *testing.T) {
	c := Int64Codec{}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := rng.Int63() - rng.Int63()
		b := rng.Int63() - rng.Int63()
		if a == b {
			continue
		}
		bufA := make([]byte, c.Size())
		bufB := make([]byte, c.Size())
		c.Encode(a, bufA)
		c.Encode(b, bufB)
		if a < b {
			require.True(t, bytes.Compare(bufA, bufB) < 0)
		} else {
			require.True(t, bytes.Compare(bufA, bufB) > 0)
		}
	}
}

func TestFixedBytesCodecPadsAndTruncates(t *testing.T) {
	c := FixedBytesCodec{N: 8}
	buf := make([]byte, c.Size())
	c.Encode([]byte("ab"), buf)
	require.Equal(t, []byte("ab\x00\x00\x00\x00\x00\x00"), buf)
	require.Equal(t, []byte("ab\x00\x00\x00\x00\x00\x00"), c.Decode(buf))

	c.Encode([]byte("abcdefghij"), buf)
	require.Equal(t, []byte("abcdefgh"), buf)
}

func TestEncodeDecodeLeaf(t *testing.T) {
	next := PagePtr(9)
	l := &Leaf[uint64, uint64]{pageNr: 3, keys: []uint64{1, 2, 3}, values: []uint64{10, 20, 30}, next: &next}
	buf := encodeLeaf(l, Uint64Codec{}, Uint64Codec{})

	got, err := decodeLeaf[uint64, uint64](3, buf, Uint64Codec{}, Uint64Codec{})
	require.NoError(t, err)
	require.Equal(t, l.keys, got.keys)
	require.Equal(t, l.values, got.values)
	require.NotNil(t, got.next)
	require.Equal(t, PagePtr(9), *got.next)
}

func TestEncodeDecodeLeafNoNext(t *testing.T) {
	l := &Leaf[uint64, uint64]{pageNr: 0, keys: []uint64{1}, values: []uint64{10}}
	buf := encodeLeaf(l, Uint64Codec{}, Uint64Codec{})

	got, err := decodeLeaf[uint64, uint64](0, buf, Uint64Codec{}, Uint64Codec{})
	require.NoError(t, err)
	require.Nil(t, got.next)
}

func TestEncodeDecodeInternal(t *testing.T) {
	n := &Internal[uint64]{pageNr: 5, keys: []uint64{10, 20}, children: []PagePtr{1, 2, 3}}
	buf := encodeInternal(n, Uint64Codec{})

	got, err := decodeInternal[uint64](5, buf, Uint64Codec{})
	require.NoError(t, err)
	require.Equal(t, n.keys, got.keys)
	require.Equal(t, n.children, got.children)
}

func TestDecodeRejectsWrongTag(t *testing.T) {
	n := &Internal[uint64]{pageNr: 0, keys: []uint64{1}, children: []PagePtr{1, 2}}
	buf := encodeInternal(n, Uint64Codec{})

	_, err := decodeLeaf[uint64, uint64](0, buf, Uint64Codec{}, Uint64Codec{})
	require.ErrorIs(t, err, ErrInvalidFileFormat)
}
