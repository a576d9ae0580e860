package bptree

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

const metaMagic = "%bptree%"

// Meta is the tree-global state persisted to the metadata sidecar: the
// root page, the live counters, the sizing derived from the key/value
// widths, and the free list of pages reclaimed by merges.
type Meta struct {
	NodeCount   uint64
	EntryCount  uint64
	RootPageNr  PagePtr
	FreePages   []PagePtr
	KeySize     uint64
	ValueSize   uint64
	MaxKeyCount uint64
	SplitAt     uint64
}

func metaPath(dir string) string {
	return filepath.Join(dir, "meta")
}

// computeSizing derives max_key_count and split_at from the fixed
// key/value widths. The overhead it counts is the tag byte and two
// length prefixes only; a leaf's next-page field and an internal
// node's extra child pointers are not counted, so for some key/value
// widths a full node encodes to more than PageSize.
func computeSizing(keySize, valueSize uint64) (maxKeyCount, splitAt uint64) {
	maxKeyCount = (PageSize - valueSize - nodeOverheadBytes) / (keySize + valueSize)
	splitAt = (maxKeyCount + 1) / 2 // ceil(maxKeyCount / 2), deliberately not floor.
	return maxKeyCount, splitAt
}

func freshMeta(keySize, valueSize uint64, maxKeyOverride *uint64) Meta {
	maxKeyCount, splitAt := computeSizing(keySize, valueSize)
	if maxKeyOverride != nil {
		maxKeyCount = *maxKeyOverride
		splitAt = (maxKeyCount + 1) / 2
	}
	return Meta{
		KeySize:     keySize,
		ValueSize:   valueSize,
		MaxKeyCount: maxKeyCount,
		SplitAt:     splitAt,
	}
}

func loadOrInitMeta(dir string, keySize, valueSize uint64, maxKeyOverride *uint64) (Meta, error) {
	data, err := os.ReadFile(metaPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return freshMeta(keySize, valueSize, maxKeyOverride), nil
		}
		return Meta{}, fmt.Errorf("bptree: read metadata: %w", err)
	}
	return decodeMeta(data)
}

func writeMeta(dir string, m Meta) error {
	if err := os.WriteFile(metaPath(dir), encodeMeta(m), 0o644); err != nil {
		return fmt.Errorf("bptree: write metadata: %w", err)
	}
	return nil
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func encodeMeta(m Meta) []byte {
	buf := make([]byte, 0, 256)
	buf = appendUint64(buf, uint64(len(metaMagic)))
	buf = append(buf, metaMagic...)
	buf = appendUint64(buf, m.NodeCount)
	buf = appendUint64(buf, m.EntryCount)
	buf = appendUint64(buf, m.RootPageNr)
	buf = appendUint64(buf, uint64(len(m.FreePages)))
	for _, p := range m.FreePages {
		buf = appendUint64(buf, p)
	}
	buf = appendUint64(buf, m.KeySize)
	buf = appendUint64(buf, m.ValueSize)
	buf = appendUint64(buf, m.MaxKeyCount)
	buf = appendUint64(buf, m.SplitAt)
	return buf
}

func decodeMeta(data []byte) (Meta, error) {
	var m Meta
	off := 0
	readUint64 := func(what string) (uint64, error) {
		if off+8 > len(data) {
			return 0, fmt.Errorf("bptree: decode metadata: truncated %s: %w", what, ErrSerde)
		}
		v := binary.BigEndian.Uint64(data[off : off+8])
		off += 8
		return v, nil
	}

	magicLen, err := readUint64("magic length")
	if err != nil {
		return m, err
	}
	if off+int(magicLen) > len(data) {
		return m, fmt.Errorf("bptree: decode metadata: truncated magic: %w", ErrSerde)
	}
	magic := string(data[off : off+int(magicLen)])
	off += int(magicLen)
	if magic != metaMagic {
		return m, fmt.Errorf("bptree: decode metadata: unexpected magic %q: %w", magic, ErrInvalidFileFormat)
	}

	if m.NodeCount, err = readUint64("node count"); err != nil {
		return m, err
	}
	if m.EntryCount, err = readUint64("entry count"); err != nil {
		return m, err
	}
	if m.RootPageNr, err = readUint64("root page"); err != nil {
		return m, err
	}

	freeCount, err := readUint64("free page count")
	if err != nil {
		return m, err
	}
	if freeCount > 0 {
		m.FreePages = make([]PagePtr, freeCount)
	}
	for i := range m.FreePages {
		if m.FreePages[i], err = readUint64("free page entry"); err != nil {
			return m, err
		}
	}

	if m.KeySize, err = readUint64("key size"); err != nil {
		return m, err
	}
	if m.ValueSize, err = readUint64("value size"); err != nil {
		return m, err
	}
	if m.MaxKeyCount, err = readUint64("max key count"); err != nil {
		return m, err
	}
	if m.SplitAt, err = readUint64("split_at"); err != nil {
		return m, err
	}
	return m, nil
}
