// Package history provides undo/redo for the editing engine.
//
// # Deltas
//
// A Delta records one editing operation: its Kind (AddText, RemoveText,
// RemoveSelection with a direction and unit, InsertLineBefore), the
// concrete Edits it applied in order, and the cursor sets before and
// after. Edits are located by line and column, so they stay meaningful
// after the chunks they were applied to have been split or merged.
//
// Composite operations chain deltas through Next; the whole chain is one
// undo step. UndoEdits returns the inverted edits in reverse order and
// RedoEdits the original edits in order.
//
// # History Stack
//
// History keeps the undo and redo stacks:
//
//	h := history.NewHistory(1000) // at most 1000 undo entries
//	h.Push(delta)                 // clears the redo stack
//	err := h.Undo(func(d *history.Delta) error {
//	    return doc.apply(d.UndoEdits(), d.CursorsBefore())
//	})
//
// Deltas pushed inside a Transaction are chained into one entry.
package history
