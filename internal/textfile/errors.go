package textfile

import "errors"

// Errors returned by document operations.
var (
	// ErrNotLoaded is returned by operations on a document that is still
	// loading or failed to load.
	ErrNotLoaded = errors.New("document is not loaded")

	// ErrReadOnly is returned by edits to a read-only document.
	ErrReadOnly = errors.New("document is read-only")

	// ErrClosed is returned by operations on a closed document.
	ErrClosed = errors.New("document is closed")

	// ErrNoPath is returned by Save on a document that has never been saved.
	ErrNoPath = errors.New("document has no path")

	// ErrNoSearch is returned when no find-all is active.
	ErrNoSearch = errors.New("no active search")

	// ErrLoadCancelled is the load error of a document closed while loading.
	ErrLoadCancelled = errors.New("load cancelled")
)
