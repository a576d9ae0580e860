package bptree

import (
	"encoding/binary"
	"fmt"
)

// Node tags and the page layout they head: one type byte followed by
// length-prefixed sequences (8-byte big-endian count, then that many
// fixed-width elements). See Leaf/Internal for the field order each
// tag implies.
const (
	tagInternal uint8 = 0
	tagLeaf     uint8 = 1

	lenPrefixSize = 8
)

func putUint64At(buf []byte, off int, v uint64) int {
	binary.BigEndian.PutUint64(buf[off:off+8], v)
	return off + 8
}

func getUint64At(buf []byte, off int) (uint64, int) {
	return binary.BigEndian.Uint64(buf[off : off+8]), off + 8
}

func encodeSeq[T any](buf []byte, off int, items []T, codec Codec[T]) int {
	off = putUint64At(buf, off, uint64(len(items)))
	width := codec.Size()
	for _, it := range items {
		codec.Encode(it, buf[off:off+width])
		off += width
	}
	return off
}

func decodeSeq[T any](buf []byte, off int, codec Codec[T]) ([]T, int, error) {
	if off+lenPrefixSize > len(buf) {
		return nil, off, fmt.Errorf("bptree: decode sequence: truncated length prefix: %w", ErrSerde)
	}
	n, off := getUint64At(buf, off)
	width := codec.Size()
	need := int(n) * width
	if need < 0 || off+need > len(buf) {
		return nil, off, fmt.Errorf("bptree: decode sequence: truncated body: %w", ErrSerde)
	}
	items := make([]T, n)
	for i := range items {
		items[i] = codec.Decode(buf[off : off+width])
		off += width
	}
	return items, off, nil
}

// encodeLeaf lays out a leaf page as: tag, keys, values, a 1-byte
// has-next flag, and (if set) the next page number.
func encodeLeaf[K any, V any](l *Leaf[K, V], keyCodec Codec[K], valueCodec Codec[V]) []byte {
	buf := make([]byte, PageSize)
	buf[0] = tagLeaf
	off := 1
	off = encodeSeq(buf, off, l.keys, keyCodec)
	off = encodeSeq(buf, off, l.values, valueCodec)
	if l.next == nil {
		buf[off] = 0
		off++
	} else {
		buf[off] = 1
		off++
		off = putUint64At(buf, off, *l.next)
	}
	return buf[:off]
}

func decodeLeaf[K any, V any](pageNr PagePtr, buf []byte, keyCodec Codec[K], valueCodec Codec[V]) (*Leaf[K, V], error) {
	if buf[0] != tagLeaf {
		return nil, fmt.Errorf("bptree: decode leaf at page %d: %w", pageNr, ErrInvalidFileFormat)
	}
	off := 1
	keys, off, err := decodeSeq(buf, off, keyCodec)
	if err != nil {
		return nil, fmt.Errorf("bptree: decode leaf at page %d: %w", pageNr, err)
	}
	values, off, err := decodeSeq(buf, off, valueCodec)
	if err != nil {
		return nil, fmt.Errorf("bptree: decode leaf at page %d: %w", pageNr, err)
	}
	if off >= len(buf) {
		return nil, fmt.Errorf("bptree: decode leaf at page %d: truncated next-page flag: %w", pageNr, ErrSerde)
	}
	hasNext := buf[off]
	off++
	var next *PagePtr
	switch hasNext {
	case 0:
	case 1:
		n, _ := getUint64At(buf, off)
		next = &n
	default:
		return nil, fmt.Errorf("bptree: decode leaf at page %d: %w", pageNr, ErrInvalidFileFormat)
	}
	return &Leaf[K, V]{pageNr: pageNr, keys: keys, values: values, next: next}, nil
}

// encodeInternal lays out an internal page as: tag, keys, then the
// len(keys)+1 child page numbers.
func encodeInternal[K any](n *Internal[K], keyCodec Codec[K]) []byte {
	buf := make([]byte, PageSize)
	buf[0] = tagInternal
	off := 1
	off = encodeSeq(buf, off, n.keys, keyCodec)
	off = encodeSeq(buf, off, n.children, Uint64Codec{})
	return buf[:off]
}

func decodeInternal[K any](pageNr PagePtr, buf []byte, keyCodec Codec[K]) (*Internal[K], error) {
	if buf[0] != tagInternal {
		return nil, fmt.Errorf("bptree: decode internal node at page %d: %w", pageNr, ErrInvalidFileFormat)
	}
	off := 1
	keys, off, err := decodeSeq(buf, off, keyCodec)
	if err != nil {
		return nil, fmt.Errorf("bptree: decode internal node at page %d: %w", pageNr, err)
	}
	children, _, err := decodeSeq(buf, off, Uint64Codec{})
	if err != nil {
		return nil, fmt.Errorf("bptree: decode internal node at page %d: %w", pageNr, err)
	}
	return &Internal[K]{pageNr: pageNr, keys: keys, children: children}, nil
}
