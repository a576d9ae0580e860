package bptree

import "cmp"

// Internal is a routing node of the B+tree: an ordered key array with
// len(keys)+1 child page references. For separator index i, children[i]
// holds keys strictly less than keys[i] and children[i+1] holds keys
// greater than or equal to keys[i] (equality always routes right).
type Internal[K cmp.Ordered] struct {
	pageNr   PagePtr
	keys     []K
	children []PagePtr
}

func newInternal[K cmp.Ordered](pageNr PagePtr, keys []K, children []PagePtr) *Internal[K] {
	return &Internal[K]{pageNr: pageNr, keys: keys, children: children}
}

// route returns the child page to descend into for key.
func (n *Internal[K]) route(key K) PagePtr {
	i, found := searchKey(n.keys, key)
	if found {
		return n.children[i+1]
	}
	return n.children[i]
}

// routeInfo is the path context threaded through a descent: which
// child to visit next, and the siblings and parent-separator indices
// a rebalance on that child would need.
type routeInfo struct {
	pageNr   PagePtr
	lSibling *PagePtr
	rSibling *PagePtr
	lParent  *int
	rParent  *int
}

// childNodeInfo resolves the child to descend into for key along with
// its left/right sibling pages and the indices of the separator keys
// bordering them, mirroring the exact-match vs. not-found cases of a
// binary search over the separator keys.
func (n *Internal[K]) childNodeInfo(key K) routeInfo {
	i, found := searchKey(n.keys, key)
	if found {
		info := routeInfo{pageNr: n.children[i+1]}
		ls := n.children[i]
		info.lSibling = &ls
		rp := i
		info.rParent = &rp
		if i < len(n.keys)-1 {
			lp := i + 1
			info.lParent = &lp
		}
		if i < len(n.children)-2 {
			rs := n.children[i+2]
			info.rSibling = &rs
		}
		return info
	}

	info := routeInfo{pageNr: n.children[i]}
	lp := i
	info.lParent = &lp
	if i > 0 {
		ls := n.children[i-1]
		info.lSibling = &ls
		rp := i - 1
		info.rParent = &rp
	}
	if i < len(n.children)-1 {
		rs := n.children[i+1]
		info.rSibling = &rs
	}
	return info
}

func (n *Internal[K]) insertSeparator(i int, key K, child PagePtr) {
	n.keys = sliceInsert(n.keys, i, key)
	n.children = sliceInsert(n.children, i+1, child)
}

func (n *Internal[K]) isFull(maxKeyCount int) bool {
	return len(n.keys) >= maxKeyCount
}
