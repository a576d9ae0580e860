package bptree

import "cmp"

// Leaf is a row of the B+tree: an ordered key/value array where actual
// data lives. keys and values always have identical length. next links
// to the leaf immediately to its right in key order, or is nil on the
// rightmost leaf.
type Leaf[K cmp.Ordered, V any] struct {
	pageNr PagePtr
	keys   []K
	values []V
	next   *PagePtr
}

func newLeaf[K cmp.Ordered, V any](pageNr PagePtr, keys []K, values []V, next *PagePtr) *Leaf[K, V] {
	return &Leaf[K, V]{pageNr: pageNr, keys: keys, values: values, next: next}
}

// Get returns the value stored under key, if present.
func (l *Leaf[K, V]) Get(key K) (V, bool) {
	var zero V
	i, found := searchKey(l.keys, key)
	if !found {
		return zero, false
	}
	return l.values[i], true
}

func (l *Leaf[K, V]) insertAt(i int, key K, value V) {
	l.keys = sliceInsert(l.keys, i, key)
	l.values = sliceInsert(l.values, i, value)
}

func (l *Leaf[K, V]) removeAt(i int) (K, V) {
	var k K
	var v V
	k, l.keys = sliceRemove(l.keys, i)
	v, l.values = sliceRemove(l.values, i)
	return k, v
}

func (l *Leaf[K, V]) popLast() (K, V) {
	return l.removeAt(len(l.keys) - 1)
}

func (l *Leaf[K, V]) popFirst() (K, V) {
	return l.removeAt(0)
}

func (l *Leaf[K, V]) prepend(key K, value V) {
	l.keys = sliceInsert(l.keys, 0, key)
	l.values = sliceInsert(l.values, 0, value)
}

func (l *Leaf[K, V]) pushBack(key K, value V) {
	l.keys = append(l.keys, key)
	l.values = append(l.values, value)
}

// Set inserts or overwrites key's value, splitting this leaf and
// persisting both halves if it is full. It returns the promoted
// separator key and new sibling page when a split occurred, plus the
// previous value and whether one existed.
func (l *Leaf[K, V]) Set(t *Tree[K, V], key K, value V) (*splitInfo[K], V, bool, error) {
	var zero V
	idx, found := searchKey(l.keys, key)
	if found {
		prev := l.values[idx]
		l.values[idx] = value
		if err := t.storeLeaf(l); err != nil {
			return nil, prev, true, err
		}
		return nil, prev, true, nil
	}

	if len(l.keys) < t.maxKeyCount() {
		l.insertAt(idx, key, value)
		if err := t.storeLeaf(l); err != nil {
			return nil, zero, false, err
		}
		return nil, zero, false, nil
	}

	newPageNr := t.nextPageNr()
	splitAt := t.splitAt()
	splitKey := l.keys[splitAt]

	right := &Leaf[K, V]{
		pageNr: newPageNr,
		keys:   append([]K(nil), l.keys[splitAt:]...),
		values: append([]V(nil), l.values[splitAt:]...),
		next:   l.next,
	}
	l.keys = l.keys[:splitAt:splitAt]
	l.values = l.values[:splitAt:splitAt]
	l.next = &newPageNr

	if idx <= splitAt {
		l.insertAt(idx, key, value)
	} else {
		right.insertAt(idx-splitAt, key, value)
	}

	if err := t.storeLeaf(l); err != nil {
		return nil, zero, false, err
	}
	if err := t.storeLeaf(right); err != nil {
		return nil, zero, false, err
	}
	t.logger.Debug("leaf split", pageField("left", l.pageNr), pageField("right", right.pageNr))

	return &splitInfo[K]{key: splitKey, pageNr: newPageNr}, zero, false, nil
}

// Remove deletes key from this leaf, then rebalances against its
// siblings if it falls under the minimum-occupancy boundary: transfer
// from the left sibling, else the right, else merge into the left,
// else merge the right into this leaf. parent and path are nil for
// the root leaf, which is exempt from rebalancing.
func (l *Leaf[K, V]) Remove(t *Tree[K, V], key K, parent *Internal[K], path *routeInfo) (V, bool, *PagePtr, error) {
	var zero V
	idx, found := searchKey(l.keys, key)
	if !found {
		return zero, false, nil, nil
	}
	prev, _ := l.removeAt(idx)

	var reclaimed *PagePtr
	if parent != nil && len(l.keys) < t.splitAt() {
		done := false

		if path.lSibling != nil {
			sibling, err := t.loadLeaf(*path.lSibling)
			if err != nil {
				return prev, true, nil, err
			}
			if len(sibling.keys) > t.splitAt() {
				k, v := sibling.popLast()
				l.prepend(k, v)
				parent.keys[*path.rParent] = k
				if err := t.storeLeaf(sibling); err != nil {
					return prev, true, nil, err
				}
				t.logger.Debug("leaf transfer from left", pageField("into", l.pageNr))
				done = true
			}
		}

		if !done && path.rSibling != nil {
			sibling, err := t.loadLeaf(*path.rSibling)
			if err != nil {
				return prev, true, nil, err
			}
			if len(sibling.keys) > t.splitAt() {
				k, v := sibling.popFirst()
				l.pushBack(k, v)
				parent.keys[*path.lParent] = sibling.keys[0]
				if err := t.storeLeaf(sibling); err != nil {
					return prev, true, nil, err
				}
				t.logger.Debug("leaf transfer from right", pageField("into", l.pageNr))
				done = true
			}
		}

		if !done && path.lSibling != nil {
			sibling, err := t.loadLeaf(*path.lSibling)
			if err != nil {
				return prev, true, nil, err
			}
			sibling.keys = append(sibling.keys, l.keys...)
			sibling.values = append(sibling.values, l.values...)
			sibling.next = l.next
			t.reclaimPage(l.pageNr)
			pn := l.pageNr
			reclaimed = &pn
			t.logger.Debug("leaf merge left", pageField("into", sibling.pageNr), pageField("reclaimed", pn))
			l = sibling
			done = true
		}

		if !done && path.rSibling != nil {
			sibling, err := t.loadLeaf(*path.rSibling)
			if err != nil {
				return prev, true, nil, err
			}
			l.keys = append(l.keys, sibling.keys...)
			l.values = append(l.values, sibling.values...)
			l.next = sibling.next
			t.reclaimPage(sibling.pageNr)
			pn := sibling.pageNr
			reclaimed = &pn
			t.logger.Debug("leaf merge right", pageField("into", l.pageNr), pageField("reclaimed", pn))
		}
	}

	if err := t.storeLeaf(l); err != nil {
		return prev, true, reclaimed, err
	}
	return prev, true, reclaimed, nil
}
