package bptree

import "go.uber.org/zap"

// Option configures Open.
type Option func(*treeOptions)

type treeOptions struct {
	maxKeyCount *uint64
	logger      *zap.Logger
	useMMap     bool
}

// WithMaxKeyCount overrides the max_key_count derived from the key and
// value widths. It only ever takes effect through this constructor
// parameter on a fresh tree: there is no process-wide mutable knob,
// and an override on a tree reopened from an existing metadata
// envelope is ignored in favor of the persisted value.
func WithMaxKeyCount(n uint64) Option {
	return func(o *treeOptions) { o.maxKeyCount = &n }
}

// WithLogger attaches a zap logger that receives Debug-level
// breadcrumbs at split, merge, transfer, and root-collapse
// transitions. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *treeOptions) { o.logger = l }
}

// WithMMap serves page reads from a read-only memory mapping of the
// data file instead of pread-style ReadAt calls; see Store.EnableMMap.
func WithMMap() Option {
	return func(o *treeOptions) { o.useMMap = true }
}
