package history

import (
	"fmt"
	"time"

	"github.com/dshills/textcore/internal/engine/cursor"
)

// Kind identifies what produced a delta.
type Kind int

// Delta kinds.
const (
	// AddText inserts text at every cursor, replacing any selection.
	AddText Kind = iota
	// RemoveText removes a known run of text, as done by undoing AddText.
	RemoveText
	// RemoveSelection removes each selection, or, for empty cursors, the
	// unit of text next to the cursor in Direction.
	RemoveSelection
	// InsertLineBefore inserts an empty line above every cursor.
	InsertLineBefore
)

func (k Kind) String() string {
	switch k {
	case AddText:
		return "add text"
	case RemoveText:
		return "remove text"
	case RemoveSelection:
		return "remove selection"
	case InsertLineBefore:
		return "insert line before"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Unit is what RemoveSelection removes next to an empty cursor.
type Unit int

// Removal units.
const (
	Character Unit = iota
	Word
	Line
)

func (u Unit) String() string {
	switch u {
	case Character:
		return "character"
	case Word:
		return "word"
	case Line:
		return "line"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// Edit is one concrete change, located by line and byte column in the
// document as it was just before the change.
type Edit struct {
	Line     int
	Col      int
	Removed  string
	Inserted string
}

// Invert returns the edit that undoes e when applied right after it.
func (e Edit) Invert() Edit {
	return Edit{Line: e.Line, Col: e.Col, Removed: e.Inserted, Inserted: e.Removed}
}

// IsNoop returns true if e changes nothing.
func (e Edit) IsNoop() bool {
	return e.Removed == "" && e.Inserted == ""
}

// Delta is one undoable editing operation. Deltas applied as one user
// action are chained through Next and undone together.
type Delta struct {
	Kind      Kind
	Direction cursor.Direction
	Unit      Unit

	// Text is the inserted text for AddText. Per-cursor inserts carry one
	// entry per cursor in Texts instead.
	Text  string
	Texts []string

	// Edits are the changes in the order they were applied.
	Edits []Edit

	// Before and After are the cursor sets around the delta.
	Before []cursor.Data
	After  []cursor.Data

	Next      *Delta
	Timestamp time.Time
}

// New creates a delta of the given kind.
func New(kind Kind) *Delta {
	return &Delta{Kind: kind, Direction: cursor.Forward, Timestamp: time.Now()}
}

// Record appends an applied edit. No-op edits are dropped.
func (d *Delta) Record(e Edit) {
	if e.IsNoop() {
		return
	}
	d.Edits = append(d.Edits, e)
}

// Append links next at the end of d's chain.
func (d *Delta) Append(next *Delta) {
	d.Last().Next = next
}

// Last returns the final delta of the chain.
func (d *Delta) Last() *Delta {
	last := d
	for last.Next != nil {
		last = last.Next
	}
	return last
}

// IsEmpty returns true if no delta in the chain changed the document.
func (d *Delta) IsEmpty() bool {
	for x := d; x != nil; x = x.Next {
		if len(x.Edits) > 0 {
			return false
		}
	}
	return true
}

// UndoEdits returns the edits that reverse the whole chain, in the order
// they must be applied.
func (d *Delta) UndoEdits() []Edit {
	edits := d.RedoEdits()
	out := make([]Edit, len(edits))
	for i, e := range edits {
		out[len(edits)-1-i] = e.Invert()
	}
	return out
}

// RedoEdits returns the edits of the whole chain in application order.
func (d *Delta) RedoEdits() []Edit {
	var out []Edit
	for x := d; x != nil; x = x.Next {
		out = append(out, x.Edits...)
	}
	return out
}

// CursorsBefore returns the cursor set from before the chain was applied.
func (d *Delta) CursorsBefore() []cursor.Data {
	return d.Before
}

// CursorsAfter returns the cursor set from after the chain was applied.
func (d *Delta) CursorsAfter() []cursor.Data {
	return d.Last().After
}

// Description returns a short human-readable description.
func (d *Delta) Description() string {
	switch d.Kind {
	case RemoveSelection:
		dir := "forward"
		if d.Direction == cursor.Backward {
			dir = "backward"
		}
		return fmt.Sprintf("remove %s %s", d.Unit, dir)
	case AddText:
		if len(d.Text) > 20 {
			return fmt.Sprintf("add %q...", d.Text[:20])
		}
		return fmt.Sprintf("add %q", d.Text)
	default:
		return d.Kind.String()
	}
}

// BytesDelta returns the net change in document size over the chain.
func (d *Delta) BytesDelta() int {
	n := 0
	for _, e := range d.RedoEdits() {
		n += len(e.Inserted) - len(e.Removed)
	}
	return n
}
