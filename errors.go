package bptree

import "errors"

// Sentinel errors. Io-category failures (short reads, permission
// errors, ENOSPC) are never wrapped in a sentinel of their own. They
// are surfaced as-is (wrapped only with operation context via %w) so
// callers can still errors.Is against the underlying os/io error.
var (
	// ErrKeyNotFound is reserved for callers layering stricter
	// lookup semantics on top of Get/Remove; the base API reports a
	// missing key as (zero, false, nil), never as an error.
	ErrKeyNotFound = errors.New("bptree: key not found")

	// ErrInvalidFileHandle is returned by Store operations performed
	// after Close.
	ErrInvalidFileHandle = errors.New("bptree: invalid file handle")

	// ErrInvalidFileFormat is returned when a page or the metadata
	// envelope fails its magic/tag check on decode.
	ErrInvalidFileFormat = errors.New("bptree: invalid file format")

	// ErrSerde wraps decode failures that are not format-invalid per
	// se (e.g. a length prefix that runs past the end of the page) -
	// the truncated/corrupt-but-tagged-correctly case.
	ErrSerde = errors.New("bptree: serialization error")
)
