// Package bptree implements a persistent, single-writer, on-disk B+tree
// key/value index: an ordered leaf chain for range scans backed by a
// routing layer of internal nodes, both stored as fixed-size pages in a
// single data file next to a small metadata sidecar.
//
// The tree is not safe for concurrent use by multiple goroutines and
// does not implement transactions, write-ahead logging, or crash
// recovery. Tree.Close writes the metadata sidecar but does not fsync;
// Store.Sync is the only call that fsyncs the data file.
package bptree
