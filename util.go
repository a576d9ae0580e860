package bptree

import (
	"cmp"
	"sort"
)

// searchKey returns the index of key in keys and true if present, or
// the insertion index that keeps keys sorted and false otherwise. This
// is the Go equivalent of Rust's slice::binary_search Ok(i)/Err(i)
// split that the node-level routing and rebalance logic is built around.
func searchKey[K cmp.Ordered](keys []K, key K) (int, bool) {
	i := sort.Search(len(keys), func(i int) bool { return keys[i] >= key })
	if i < len(keys) && keys[i] == key {
		return i, true
	}
	return i, false
}

func sliceInsert[T any](s []T, i int, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func sliceRemove[T any](s []T, i int) (T, []T) {
	v := s[i]
	copy(s[i:], s[i+1:])
	return v, s[:len(s)-1]
}
