package history

import (
	"errors"
	"sync"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxEntries is the undo depth used when none is configured.
const DefaultMaxEntries = 1000

// History holds the undo and redo stacks of one document. The oldest
// entries are dropped once the undo stack exceeds its depth.
type History struct {
	mu sync.Mutex

	undo []*Delta
	redo []*Delta

	// open collects the deltas of a running Transaction.
	grouping bool
	open     *Delta

	maxEntries int
}

// NewHistory creates a history keeping at most maxEntries undo steps.
func NewHistory(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{maxEntries: maxEntries}
}

// Push records an applied delta and forgets everything undone. Inside a
// Transaction the delta joins the open group instead.
func (h *History) Push(d *Delta) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.grouping {
		h.pushLocked(d)
		return
	}
	if h.open == nil {
		h.open = d
	} else {
		h.open.Append(d)
	}
}

func (h *History) pushLocked(d *Delta) {
	h.undo = append(h.undo, d)
	h.redo = nil
	if excess := len(h.undo) - h.maxEntries; excess > 0 {
		clear(h.undo[:excess])
		h.undo = h.undo[excess:]
	}
}

// Transaction runs fn with every delta it pushes chained into one undo
// step. Nested transactions join the outer one. The group is recorded
// even when fn fails, since the deltas already applied changed the
// document.
func (h *History) Transaction(fn func() error) error {
	h.mu.Lock()
	if h.grouping {
		h.mu.Unlock()
		return fn()
	}
	h.grouping, h.open = true, nil
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.grouping = false
		if h.open != nil {
			h.pushLocked(h.open)
		}
		h.open = nil
	}()
	return fn()
}

// IsGrouping reports whether a Transaction is running.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grouping
}

// Undo pops the newest delta and passes it to apply, which must reverse
// it. The delta moves to the redo stack unless apply fails. The lock is
// not held while apply runs.
func (h *History) Undo(apply func(*Delta) error) error {
	return h.transfer(&h.undo, &h.redo, apply, ErrNothingToUndo)
}

// Redo pops the newest undone delta and passes it to apply, which must
// re-apply it.
func (h *History) Redo(apply func(*Delta) error) error {
	return h.transfer(&h.redo, &h.undo, apply, ErrNothingToRedo)
}

func (h *History) transfer(from, to *[]*Delta, apply func(*Delta) error, empty error) error {
	h.mu.Lock()
	n := len(*from)
	if n == 0 {
		h.mu.Unlock()
		return empty
	}
	d := (*from)[n-1]
	*from = (*from)[:n-1]
	h.mu.Unlock()

	err := apply(d)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		*from = append(*from, d)
		return err
	}
	*to = append(*to, d)
	return nil
}

func (h *History) CanUndo() bool { return h.UndoCount() > 0 }

func (h *History) CanRedo() bool { return h.RedoCount() > 0 }

// UndoCount returns the number of undo steps available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo)
}

// RedoCount returns the number of redo steps available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo)
}

// Top returns the delta the next Undo would reverse, or nil.
func (h *History) Top() *Delta {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undo) == 0 {
		return nil
	}
	return h.undo[len(h.undo)-1]
}

// MaxEntries returns the undo depth.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}

// Clear forgets all history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo, h.redo = nil, nil
	h.grouping, h.open = false, nil
}
