// Package textfile implements an open document: its chunked text, cursor
// set and undo history, plus the background work that keeps syntax
// highlighting and find-all results current.
//
// # Editing
//
// Every edit goes through one path. It bumps the document epoch, which
// tells background tasks their results are stale, takes the write lock,
// applies the change at each cursor in document order while relocating
// the cursors that follow, and records an undo delta. After the lock is
// released the delta is pushed and highlighting is rescheduled.
//
// # Background work
//
// Loading large files, highlighting and find-all run on a scheduler.
// Background tasks check the epoch under the lock before each chunk and
// return without writing anything once an edit has started. Without a
// scheduler the same work runs synchronously, which tests rely on.
//
// # Locking
//
// A sync.RWMutex guards the chunk store, its per-chunk caches and the
// cursor set. Readers (rendering, search) share it; edits and cache
// updates hold it exclusively. A document is only torn down after its
// background work is cancelled and the exclusive lock is held.
package textfile
