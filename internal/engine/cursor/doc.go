// Package cursor provides cursors, selections and navigation over a chunk
// store.
//
// Selection Model:
//
// A Cursor is a pair of positions. Start is the active end, where
// navigation happens and where typing goes; End is the anchor. When the
// two are equal the cursor has no selection. A cursor whose anchor comes
// before its active end selects forward; otherwise it selects backward,
// and merging cursors keeps the receiving cursor's direction.
//
// Multi-Cursor Support:
//
// Normalize sorts a cursor set by document order and merges every pair
// whose ranges overlap. Ranges are closed, so abutting cursors merge too.
// After normalization no two cursors touch and they are in ascending
// order; the owning document normalizes after every edit.
//
// Navigation:
//
// Motions step by UTF-8 code point, by word (using the three character
// classes whitespace, punctuation and text), by line, and to line or file
// boundaries. Vertical motion keeps a cached horizontal target so moving
// through short lines does not lose the column, and when wrapping is on
// it visits every rendered sub-line before changing logical line.
//
// Basic usage:
//
//	c := cursor.At(store.Locate(3, 0))
//	c = c.OffsetWord(store, cursor.Forward, true) // select the next word
//	cs := cursor.Normalize(store, []cursor.Cursor{c, other})
package cursor
