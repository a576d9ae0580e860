package bptree

// PagePtr identifies a page within the paged file store by its
// 0-based page number. Page 0 always holds the first (leftmost) leaf
// once the tree has been bootstrapped; the iterator walk and the
// persistence scenarios both depend on that.
type PagePtr = uint64

const (
	// PageSize is the fixed size, in bytes, of every page in the data
	// file, and the hard ceiling an encoded node must fit under.
	PageSize = 4096

	// nodeOverheadBytes is the per-node encoding overhead counted by
	// the sizing formula in computeSizing: one tag byte plus two
	// 8-byte length prefixes (keys, then values or children).
	nodeOverheadBytes = 1 + 2*lenPrefixSize
)
