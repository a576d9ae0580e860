package bptree

import (
	"cmp"
	"iter"
)

// walkLeaves visits every leaf in ascending key order, starting at
// page 0 (the first leaf is always bootstrapped there) and following
// next pointers, until fn returns false or the chain ends.
func (t *Tree[K, V]) walkLeaves(fn func(*Leaf[K, V]) bool) error {
	if t.isEmpty() {
		return nil
	}
	pageNr := PagePtr(0)
	for {
		leaf, err := t.loadLeaf(pageNr)
		if err != nil {
			return err
		}
		if !fn(leaf) {
			return nil
		}
		if leaf.next == nil {
			return nil
		}
		pageNr = *leaf.next
	}
}

// firstLeafFor descends from the root and returns the page of the leaf
// that would hold key. If a page fails to load, the descent stops and
// that page is returned.
func (t *Tree[K, V]) firstLeafFor(key K) PagePtr {
	pageNr := t.meta.RootPageNr
	for {
		nd, err := t.loadNode(pageNr)
		if err != nil {
			return pageNr
		}
		if nd.leaf != nil {
			return pageNr
		}
		pageNr = nd.internal.route(key)
	}
}

// Keys returns an iterator over every key in ascending order. Errors
// encountered while walking the leaf chain end the iteration early.
func (t *Tree[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		_ = t.walkLeaves(func(l *Leaf[K, V]) bool {
			for _, k := range l.keys {
				if !yield(k) {
					return false
				}
			}
			return true
		})
	}
}

// Values returns an iterator over every value, ordered by ascending key.
func (t *Tree[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		_ = t.walkLeaves(func(l *Leaf[K, V]) bool {
			for _, v := range l.values {
				if !yield(v) {
					return false
				}
			}
			return true
		})
	}
}

// All returns an iterator over every key/value pair, ordered by
// ascending key.
func (t *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		_ = t.walkLeaves(func(l *Leaf[K, V]) bool {
			for i, k := range l.keys {
				if !yield(k, l.values[i]) {
					return false
				}
			}
			return true
		})
	}
}

// Range returns an iterator over key/value pairs with lo <= key <= hi,
// in ascending order. It starts by descending the tree for lo rather
// than walking the full leaf chain from page 0.
func (t *Tree[K, V]) Range(lo, hi K) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if t.isEmpty() || cmp.Compare(lo, hi) > 0 {
			return
		}
		pageNr := t.firstLeafFor(lo)
		for {
			leaf, err := t.loadLeaf(pageNr)
			if err != nil {
				return
			}
			for i, k := range leaf.keys {
				if cmp.Compare(k, lo) < 0 {
					continue
				}
				if cmp.Compare(k, hi) > 0 {
					return
				}
				if !yield(k, leaf.values[i]) {
					return
				}
			}
			if leaf.next == nil {
				return
			}
			pageNr = *leaf.next
		}
	}
}

// Stats reports structural information about the tree: live entry
// count, leaf/internal node counts, tree height, and the number of
// pages reclaimed onto the free list. The page allocator does not hand
// free-list pages out again.
type Stats struct {
	Entries       int
	Leaves        int
	InternalNodes int
	Height        int
	FreePages     int
}

func (t *Tree[K, V]) Stats() (Stats, error) {
	s := Stats{
		Entries:   int(t.meta.EntryCount),
		FreePages: len(t.meta.FreePages),
	}
	if t.isEmpty() {
		return s, nil
	}

	height := 0
	pageNr := t.meta.RootPageNr
	for {
		nd, err := t.loadNode(pageNr)
		if err != nil {
			return s, err
		}
		height++
		if nd.leaf != nil {
			break
		}
		pageNr = nd.internal.children[0]
	}
	s.Height = height

	var walk func(PagePtr) error
	walk = func(pageNr PagePtr) error {
		nd, err := t.loadNode(pageNr)
		if err != nil {
			return err
		}
		if nd.leaf != nil {
			s.Leaves++
			return nil
		}
		s.InternalNodes++
		for _, c := range nd.internal.children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(t.meta.RootPageNr); err != nil {
		return s, err
	}
	return s, nil
}
