package bptree

import (
	"cmp"
	"fmt"
)

// splitInfo is what a full node hands back to its parent after
// splitting: the separator key to insert and the page number of the
// newly allocated right half.
type splitInfo[K cmp.Ordered] struct {
	key    K
	pageNr PagePtr
}

// treeSetAt and treeRemoveAt, plus internalSet/internalRemove below,
// are free functions rather than methods on Internal[K]: an internal
// node only carries the key type parameter, but descending into a
// child requires the value type too, and Go methods cannot add type
// parameters beyond their receiver's.

func treeSetAt[K cmp.Ordered, V any](t *Tree[K, V], pageNr PagePtr, key K, value V) (*splitInfo[K], V, bool, error) {
	var zero V
	nd, err := t.loadNode(pageNr)
	if err != nil {
		return nil, zero, false, err
	}
	if nd.leaf != nil {
		return nd.leaf.Set(t, key, value)
	}
	return internalSet(nd.internal, t, key, value)
}

func internalSet[K cmp.Ordered, V any](n *Internal[K], t *Tree[K, V], key K, value V) (*splitInfo[K], V, bool, error) {
	var zero V
	childPageNr := n.route(key)
	split, prev, hadPrev, err := treeSetAt(t, childPageNr, key, value)
	if err != nil {
		return nil, zero, false, err
	}
	if split == nil {
		return nil, prev, hadPrev, nil
	}

	idx, found := searchKey(n.keys, split.key)
	if found {
		return nil, zero, false, fmt.Errorf("bptree: internal node %d: promoted key already present (corrupt tree)", n.pageNr)
	}

	if !n.isFull(t.maxKeyCount()) {
		n.insertSeparator(idx, split.key, split.pageNr)
		if err := t.storeInternal(n); err != nil {
			return nil, zero, false, err
		}
		return nil, prev, hadPrev, nil
	}

	newPageNr := t.nextPageNr()
	splitAt := t.splitAt()
	promotedKey := n.keys[splitAt]

	right := newInternal(newPageNr,
		append([]K(nil), n.keys[splitAt+1:]...),
		append([]PagePtr(nil), n.children[splitAt+1:]...))
	n.keys = n.keys[:splitAt:splitAt]
	n.children = n.children[:splitAt+1 : splitAt+1]

	if idx <= splitAt {
		n.insertSeparator(idx, split.key, split.pageNr)
	} else {
		right.insertSeparator(idx-splitAt-1, split.key, split.pageNr)
	}

	if err := t.storeInternal(n); err != nil {
		return nil, zero, false, err
	}
	if err := t.storeInternal(right); err != nil {
		return nil, zero, false, err
	}
	t.logger.Debug("internal node split", pageField("left", n.pageNr), pageField("right", right.pageNr))

	return &splitInfo[K]{key: promotedKey, pageNr: newPageNr}, prev, hadPrev, nil
}

func treeRemoveAt[K cmp.Ordered, V any](t *Tree[K, V], pageNr PagePtr, key K, parent *Internal[K], path *routeInfo) (V, bool, *PagePtr, error) {
	var zero V
	nd, err := t.loadNode(pageNr)
	if err != nil {
		return zero, false, nil, err
	}
	if nd.leaf != nil {
		return nd.leaf.Remove(t, key, parent, path)
	}
	return internalRemove(nd.internal, t, key, parent, path)
}

func internalRemove[K cmp.Ordered, V any](n *Internal[K], t *Tree[K, V], key K, parent *Internal[K], path *routeInfo) (V, bool, *PagePtr, error) {
	info := n.childNodeInfo(key)
	prev, hadPrev, reclaimed, err := treeRemoveAt(t, info.pageNr, key, n, &info)
	if err != nil {
		return prev, hadPrev, nil, err
	}

	var bubbled *PagePtr
	if reclaimed != nil {
		bubbled, err = internalRemoveChild(n, t, *reclaimed, parent, path)
		if err != nil {
			return prev, hadPrev, nil, err
		}
	}

	if bubbled == nil || *bubbled != n.pageNr {
		if err := t.storeInternal(n); err != nil {
			return prev, hadPrev, nil, err
		}
	}
	return prev, hadPrev, bubbled, nil
}

// internalRemoveChild drops the separator/child pair for the page that
// was just reclaimed by a child's own rebalance, then rebalances self
// in turn: root collapse if self is the root and now empty; else
// transfer from the left sibling, then the right, then merge into the
// left (pulling the parent separator down), then merge the right in.
func internalRemoveChild[K cmp.Ordered, V any](n *Internal[K], t *Tree[K, V], reclaimedPage PagePtr, parent *Internal[K], path *routeInfo) (*PagePtr, error) {
	j := -1
	for i, c := range n.children {
		if c == reclaimedPage {
			j = i
			break
		}
	}
	if j < 0 {
		return nil, fmt.Errorf("bptree: internal node %d: reclaimed page %d not among children (corrupt tree)", n.pageNr, reclaimedPage)
	}
	_, n.keys = sliceRemove(n.keys, j-1)
	_, n.children = sliceRemove(n.children, j)

	if parent == nil {
		if len(n.keys) == 0 {
			newRoot := n.children[0]
			t.meta.RootPageNr = newRoot
			t.reclaimPage(n.pageNr)
			pn := n.pageNr
			t.logger.Debug("root collapsed", pageField("new_root", newRoot))
			return &pn, nil
		}
		return nil, nil
	}

	if len(n.keys) >= t.splitAt() {
		return nil, nil
	}

	done := false

	if path.lSibling != nil {
		sibling, err := t.loadInternal(*path.lSibling)
		if err != nil {
			return nil, err
		}
		if len(sibling.keys) > t.splitAt() {
			var k K
			var v PagePtr
			k, sibling.keys = sliceRemove(sibling.keys, len(sibling.keys)-1)
			v, sibling.children = sliceRemove(sibling.children, len(sibling.children)-1)
			n.keys = sliceInsert(n.keys, 0, parent.keys[*path.rParent])
			n.children = sliceInsert(n.children, 0, v)
			parent.keys[*path.rParent] = k
			if err := t.storeInternal(sibling); err != nil {
				return nil, err
			}
			t.logger.Debug("internal transfer from left", pageField("into", n.pageNr))
			done = true
		}
	}

	if !done && path.rSibling != nil {
		sibling, err := t.loadInternal(*path.rSibling)
		if err != nil {
			return nil, err
		}
		if len(sibling.keys) > t.splitAt() {
			var k K
			var v PagePtr
			k, sibling.keys = sliceRemove(sibling.keys, 0)
			v, sibling.children = sliceRemove(sibling.children, 0)
			n.keys = append(n.keys, parent.keys[*path.lParent])
			n.children = append(n.children, v)
			parent.keys[*path.lParent] = k
			if err := t.storeInternal(sibling); err != nil {
				return nil, err
			}
			t.logger.Debug("internal transfer from right", pageField("into", n.pageNr))
			done = true
		}
	}

	if done {
		return nil, nil
	}

	if path.lSibling != nil {
		sibling, err := t.loadInternal(*path.lSibling)
		if err != nil {
			return nil, err
		}
		sibling.keys = append(sibling.keys, parent.keys[*path.rParent])
		sibling.keys = append(sibling.keys, n.keys...)
		sibling.children = append(sibling.children, n.children...)
		if err := t.storeInternal(sibling); err != nil {
			return nil, err
		}
		t.reclaimPage(n.pageNr)
		pn := n.pageNr
		t.logger.Debug("internal merge left", pageField("into", sibling.pageNr), pageField("reclaimed", pn))
		return &pn, nil
	}

	sibling, err := t.loadInternal(*path.rSibling)
	if err != nil {
		return nil, err
	}
	n.keys = append(n.keys, parent.keys[*path.lParent])
	n.keys = append(n.keys, sibling.keys...)
	n.children = append(n.children, sibling.children...)
	t.reclaimPage(sibling.pageNr)
	pn := sibling.pageNr
	t.logger.Debug("internal merge right", pageField("into", n.pageNr), pageField("reclaimed", pn))
	return &pn, nil
}
