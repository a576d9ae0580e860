package bptree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeSizing(t *testing.T) {
	maxKeyCount, splitAt := computeSizing(8, 8)
	require.Equal(t, (PageSize-8-nodeOverheadBytes)/16, int(maxKeyCount))
	require.Equal(t, (maxKeyCount+1)/2, splitAt)
}

func TestMetaEncodeDecodeRoundTrip(t *testing.T) {
	m := Meta{
		NodeCount:   7,
		EntryCount:  42,
		RootPageNr:  3,
		FreePages:   []PagePtr{1, 2, 9},
		KeySize:     8,
		ValueSize:   8,
		MaxKeyCount: 254,
		SplitAt:     127,
	}
	buf := encodeMeta(m)
	got, err := decodeMeta(buf)
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestDecodeMetaRejectsBadMagic(t *testing.T) {
	buf := appendUint64(nil, 4)
	buf = append(buf, "nope"...)
	_, err := decodeMeta(buf)
	require.ErrorIs(t, err, ErrInvalidFileFormat)
}

func TestDecodeMetaRejectsTruncated(t *testing.T) {
	_, err := decodeMeta([]byte{0, 0, 0})
	require.ErrorIs(t, err, ErrSerde)
}

func TestLoadOrInitMetaFreshDirectory(t *testing.T) {
	dir := t.TempDir()
	m, err := loadOrInitMeta(dir, 8, 8, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(0), m.NodeCount)
	require.Equal(t, uint64(0), m.EntryCount)

	maxKeyCount, splitAt := computeSizing(8, 8)
	require.Equal(t, maxKeyCount, m.MaxKeyCount)
	require.Equal(t, splitAt, m.SplitAt)
}

func TestLoadOrInitMetaOverride(t *testing.T) {
	dir := t.TempDir()
	override := uint64(6)
	m, err := loadOrInitMeta(dir, 8, 8, &override)
	require.NoError(t, err)
	require.Equal(t, override, m.MaxKeyCount)
	require.Equal(t, uint64(3), m.SplitAt)
}

func TestWriteMetaThenLoad(t *testing.T) {
	dir := t.TempDir()
	m := freshMeta(8, 8, nil)
	m.EntryCount = 5
	m.RootPageNr = 2
	require.NoError(t, writeMeta(dir, m))

	got, err := loadOrInitMeta(dir, 8, 8, nil)
	require.NoError(t, err)
	require.Equal(t, m, got)
}
