package bptree

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/edsrzf/mmap-go"
)

// Store is the paged file store (one "db" file per directory): it
// serves fixed PageSize pages by page number and knows nothing about
// what a leaf or internal node looks like. This keeps page layout
// separate from node encoding, the same separation askorykh-goDB's
// filestore package draws between page and row.
type Store struct {
	f         *os.File
	pageCount PagePtr
	mm        mmap.MMap
}

func openStore(dir string) (*Store, error) {
	path := filepath.Join(dir, "db")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("bptree: open data file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("bptree: stat data file: %w", err)
	}
	return &Store{f: f, pageCount: PagePtr(info.Size() / PageSize)}, nil
}

// PageCount returns the number of pages currently allocated in the
// data file.
func (s *Store) PageCount() PagePtr { return s.pageCount }

// ReadPage returns the PageSize bytes of page n.
func (s *Store) ReadPage(n PagePtr) ([]byte, error) {
	if s.f == nil {
		return nil, fmt.Errorf("bptree: read page %d: %w", n, ErrInvalidFileHandle)
	}
	buf := make([]byte, PageSize)
	if s.mm != nil {
		off := int(n) * PageSize
		if off+PageSize <= len(s.mm) {
			copy(buf, s.mm[off:off+PageSize])
			return buf, nil
		}
		// Page lies past the end of the mapping; read it through the
		// file handle instead.
	}
	if _, err := s.f.ReadAt(buf, int64(n)*PageSize); err != nil {
		return nil, fmt.Errorf("bptree: read page %d: %w", n, err)
	}
	return buf, nil
}

// WritePage writes body (at most PageSize bytes) to page n,
// zero-padding the remainder of the page.
func (s *Store) WritePage(n PagePtr, body []byte) error {
	if s.f == nil {
		return fmt.Errorf("bptree: write page %d: %w", n, ErrInvalidFileHandle)
	}
	if len(body) > PageSize {
		return fmt.Errorf("bptree: write page %d: encoded node is %d bytes, exceeds page size %d", n, len(body), PageSize)
	}
	buf := make([]byte, PageSize)
	copy(buf, body)
	if _, err := s.f.WriteAt(buf, int64(n)*PageSize); err != nil {
		return fmt.Errorf("bptree: write page %d: %w", n, err)
	}
	if n+1 > s.pageCount {
		s.pageCount = n + 1
	}
	if s.mm != nil {
		if err := s.remapMMap(); err != nil {
			return err
		}
	}
	return nil
}

// EnableMMap switches ReadPage to serve pages from a read-only memory
// mapping of the data file, the same approach alpoloz-leafdb uses for
// its own page store. Writes still go through the *os.File, and an
// existing mapping is refreshed after every write. If the data file is
// empty when EnableMMap is called, no mapping is taken, later writes do
// not create one, and ReadPage keeps using the file handle.
func (s *Store) EnableMMap() error {
	return s.remapMMap()
}

func (s *Store) remapMMap() error {
	if s.mm != nil {
		if err := s.mm.Unmap(); err != nil {
			return fmt.Errorf("bptree: unmap data file: %w", err)
		}
		s.mm = nil
	}
	if s.pageCount == 0 {
		return nil
	}
	mm, err := mmap.Map(s.f, mmap.RDONLY, 0)
	if err != nil {
		return fmt.Errorf("bptree: mmap data file: %w", err)
	}
	s.mm = mm
	return nil
}

// Sync flushes the data file to stable storage.
func (s *Store) Sync() error {
	if s.f == nil {
		return fmt.Errorf("bptree: sync data file: %w", ErrInvalidFileHandle)
	}
	return s.f.Sync()
}

// Close releases the underlying file handle and mapping, if any.
func (s *Store) Close() error {
	if s.mm != nil {
		_ = s.mm.Unmap()
		s.mm = nil
	}
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
