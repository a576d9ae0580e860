package bptree

import (
	"cmp"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Tree is the top-level B+tree coordinator: it owns the metadata
// envelope, the paged file store, and the current root page, and
// exposes the public get/set/remove/iterate surface. A *Tree is not
// safe for concurrent use by multiple goroutines.
type Tree[K cmp.Ordered, V any] struct {
	dir        string
	store      *Store
	meta       Meta
	keyCodec   Codec[K]
	valueCodec Codec[V]
	logger     *zap.Logger
}

// Open opens (or creates) a B+tree index rooted at dir, using keyCodec
// and valueCodec to serialize keys and values into fixed-width,
// order-preserving binary form.
func Open[K cmp.Ordered, V any](dir string, keyCodec Codec[K], valueCodec Codec[V], opts ...Option) (*Tree[K, V], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("bptree: open %s: %w", dir, err)
	}

	o := treeOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	meta, err := loadOrInitMeta(dir, uint64(keyCodec.Size()), uint64(valueCodec.Size()), o.maxKeyCount)
	if err != nil {
		return nil, fmt.Errorf("bptree: open %s: %w", dir, err)
	}

	store, err := openStore(dir)
	if err != nil {
		return nil, fmt.Errorf("bptree: open %s: %w", dir, err)
	}

	t := &Tree[K, V]{
		dir:        dir,
		store:      store,
		meta:       meta,
		keyCodec:   keyCodec,
		valueCodec: valueCodec,
		logger:     o.logger,
	}

	if o.useMMap {
		if err := store.EnableMMap(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("bptree: open %s: %w", dir, err)
		}
	}

	return t, nil
}

func (t *Tree[K, V]) isEmpty() bool   { return t.meta.NodeCount == 0 }
func (t *Tree[K, V]) maxKeyCount() int { return int(t.meta.MaxKeyCount) }
func (t *Tree[K, V]) splitAt() int     { return int(t.meta.SplitAt) }

func (t *Tree[K, V]) nextPageNr() PagePtr {
	p := t.meta.NodeCount
	t.meta.NodeCount++
	return p
}

func (t *Tree[K, V]) reclaimPage(p PagePtr) {
	t.meta.FreePages = append(t.meta.FreePages, p)
}

// Len returns the number of live key/value pairs in the tree.
func (t *Tree[K, V]) Len() int { return int(t.meta.EntryCount) }

type loadedNode[K cmp.Ordered, V any] struct {
	leaf     *Leaf[K, V]
	internal *Internal[K]
}

func (t *Tree[K, V]) loadNode(pageNr PagePtr) (loadedNode[K, V], error) {
	buf, err := t.store.ReadPage(pageNr)
	if err != nil {
		return loadedNode[K, V]{}, err
	}
	switch buf[0] {
	case tagLeaf:
		leaf, err := decodeLeaf[K, V](pageNr, buf, t.keyCodec, t.valueCodec)
		if err != nil {
			return loadedNode[K, V]{}, err
		}
		return loadedNode[K, V]{leaf: leaf}, nil
	case tagInternal:
		internal, err := decodeInternal[K](pageNr, buf, t.keyCodec)
		if err != nil {
			return loadedNode[K, V]{}, err
		}
		return loadedNode[K, V]{internal: internal}, nil
	default:
		return loadedNode[K, V]{}, fmt.Errorf("bptree: decode page %d: %w", pageNr, ErrInvalidFileFormat)
	}
}

func (t *Tree[K, V]) loadLeaf(pageNr PagePtr) (*Leaf[K, V], error) {
	nd, err := t.loadNode(pageNr)
	if err != nil {
		return nil, err
	}
	if nd.leaf == nil {
		return nil, fmt.Errorf("bptree: page %d: expected leaf, found internal node: %w", pageNr, ErrInvalidFileFormat)
	}
	return nd.leaf, nil
}

func (t *Tree[K, V]) loadInternal(pageNr PagePtr) (*Internal[K], error) {
	nd, err := t.loadNode(pageNr)
	if err != nil {
		return nil, err
	}
	if nd.internal == nil {
		return nil, fmt.Errorf("bptree: page %d: expected internal node, found leaf: %w", pageNr, ErrInvalidFileFormat)
	}
	return nd.internal, nil
}

func (t *Tree[K, V]) storeLeaf(l *Leaf[K, V]) error {
	return t.store.WritePage(l.pageNr, encodeLeaf(l, t.keyCodec, t.valueCodec))
}

func (t *Tree[K, V]) storeInternal(n *Internal[K]) error {
	return t.store.WritePage(n.pageNr, encodeInternal(n, t.keyCodec))
}

// Get returns the value associated with key, if present. A missing
// key is reported as (zero, false, nil), never as an error.
func (t *Tree[K, V]) Get(key K) (V, bool, error) {
	var zero V
	if t.isEmpty() {
		return zero, false, nil
	}
	pageNr := t.meta.RootPageNr
	for {
		nd, err := t.loadNode(pageNr)
		if err != nil {
			return zero, false, err
		}
		if nd.leaf != nil {
			v, ok := nd.leaf.Get(key)
			return v, ok, nil
		}
		pageNr = nd.internal.route(key)
	}
}

// Set inserts or overwrites key's value, returning the previous value
// and true if key was already present.
func (t *Tree[K, V]) Set(key K, value V) (V, bool, error) {
	var zero V
	if t.isEmpty() {
		leaf := newLeaf[K, V](0, []K{key}, []V{value}, nil)
		if err := t.storeLeaf(leaf); err != nil {
			return zero, false, err
		}
		t.meta.NodeCount = 1
		t.meta.RootPageNr = 0
		t.meta.EntryCount = 1
		t.logger.Debug("bootstrap root leaf")
		return zero, false, nil
	}

	split, prev, hadPrev, err := treeSetAt(t, t.meta.RootPageNr, key, value)
	if err != nil {
		return zero, false, err
	}
	if split != nil {
		newRootNr := t.nextPageNr()
		newRoot := newInternal(newRootNr, []K{split.key}, []PagePtr{t.meta.RootPageNr, split.pageNr})
		if err := t.storeInternal(newRoot); err != nil {
			return zero, false, err
		}
		t.meta.RootPageNr = newRootNr
		t.logger.Debug("root split", pageField("new_root", newRootNr))
	}
	if !hadPrev {
		t.meta.EntryCount++
	}
	return prev, hadPrev, nil
}

// Remove deletes key, returning its value if it was present.
func (t *Tree[K, V]) Remove(key K) (V, bool, error) {
	var zero V
	if t.isEmpty() {
		return zero, false, nil
	}
	prev, hadPrev, _, err := treeRemoveAt(t, t.meta.RootPageNr, key, nil, nil)
	if err != nil {
		return zero, false, err
	}
	if hadPrev {
		t.meta.EntryCount--
	}
	return prev, hadPrev, nil
}

// Close flushes the metadata envelope, if the tree holds any live
// entries, and releases the underlying file handles. A tree with zero
// entries does not write the metadata file; a metadata file left by an
// earlier session is neither rewritten nor removed.
func (t *Tree[K, V]) Close() error {
	var metaErr error
	if t.meta.EntryCount > 0 {
		metaErr = writeMeta(t.dir, t.meta)
	}
	storeErr := t.store.Close()
	if metaErr != nil {
		return metaErr
	}
	return storeErr
}
