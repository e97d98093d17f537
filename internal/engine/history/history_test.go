package history

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/textcore/internal/engine/cursor"
)

// applyEdits applies edits to a slice of lines, the way a document would.
func applyEdits(t *testing.T, text string, edits []Edit) string {
	t.Helper()
	for _, e := range edits {
		lines := strings.SplitAfter(text, "\n")
		off := 0
		for i := 0; i < e.Line; i++ {
			off += len(lines[i])
		}
		off += e.Col
		require.True(t, strings.HasPrefix(text[off:], e.Removed), "edit %+v does not match %q", e, text)
		text = text[:off] + e.Inserted + text[off+len(e.Removed):]
	}
	return text
}

func TestEditInvert(t *testing.T) {
	e := Edit{Line: 2, Col: 4, Removed: "ab", Inserted: "xyz"}
	assert.Equal(t, Edit{Line: 2, Col: 4, Removed: "xyz", Inserted: "ab"}, e.Invert())
	assert.Equal(t, e, e.Invert().Invert())
	assert.True(t, Edit{Line: 1}.IsNoop())
}

func TestDeltaChainInverse(t *testing.T) {
	const original = "alpha\nbeta\ngamma"

	d := New(RemoveSelection)
	d.Unit = Line
	d.Record(Edit{Line: 1, Col: 0, Removed: "beta\n"})
	d.Record(Edit{Line: 0, Col: 0}) // dropped
	next := New(AddText)
	next.Text = "X"
	next.Record(Edit{Line: 1, Col: 2, Inserted: "X"})
	next.Record(Edit{Line: 0, Col: 5, Removed: "\n", Inserted: " "})
	d.Append(next)

	require.Len(t, d.Edits, 1)
	assert.Same(t, next, d.Last())
	assert.Equal(t, 3, len(d.RedoEdits()))

	changed := applyEdits(t, original, d.RedoEdits())
	assert.Equal(t, "alpha gaXmma", changed)
	assert.Equal(t, original, applyEdits(t, changed, d.UndoEdits()))
	assert.Equal(t, len(changed)-len(original), d.BytesDelta())
}

func TestDeltaCursorsAndDescription(t *testing.T) {
	d := New(RemoveSelection)
	d.Direction = cursor.Backward
	d.Unit = Word
	d.Before = []cursor.Data{{StartLine: 1}}
	next := New(InsertLineBefore)
	next.After = []cursor.Data{{StartLine: 2}}
	d.Append(next)

	assert.Equal(t, []cursor.Data{{StartLine: 1}}, d.CursorsBefore())
	assert.Equal(t, []cursor.Data{{StartLine: 2}}, d.CursorsAfter())
	assert.Equal(t, "remove word backward", d.Description())
	assert.Equal(t, "insert line before", next.Description())
	assert.True(t, d.IsEmpty())
}

func TestHistoryUndoRedo(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, DefaultMaxEntries, h.MaxEntries())

	a, b := New(AddText), New(AddText)
	h.Push(a)
	h.Push(b)
	require.Equal(t, 2, h.UndoCount())

	var seen []*Delta
	record := func(d *Delta) error {
		seen = append(seen, d)
		return nil
	}

	require.NoError(t, h.Undo(record))
	require.NoError(t, h.Undo(record))
	assert.ErrorIs(t, h.Undo(record), ErrNothingToUndo)
	assert.Equal(t, []*Delta{b, a}, seen)
	assert.Equal(t, 2, h.RedoCount())

	seen = nil
	require.NoError(t, h.Redo(record))
	assert.Equal(t, []*Delta{a}, seen)
	assert.True(t, h.CanUndo())
	assert.True(t, h.CanRedo())

	// A new edit clears the redo stack.
	h.Push(New(RemoveText))
	assert.False(t, h.CanRedo())
	assert.ErrorIs(t, h.Redo(record), ErrNothingToRedo)
}

func TestHistoryUndoFailureKeepsEntry(t *testing.T) {
	h := NewHistory(10)
	h.Push(New(AddText))

	boom := errors.New("boom")
	err := h.Undo(func(*Delta) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, h.UndoCount())
	assert.Equal(t, 0, h.RedoCount())
}

func TestHistoryMaxEntries(t *testing.T) {
	h := NewHistory(3)
	var ds []*Delta
	for i := 0; i < 5; i++ {
		d := New(AddText)
		ds = append(ds, d)
		h.Push(d)
	}
	assert.Equal(t, 3, h.UndoCount())

	var oldest *Delta
	for h.CanUndo() {
		require.NoError(t, h.Undo(func(d *Delta) error { oldest = d; return nil }))
	}
	assert.Same(t, ds[2], oldest)
	assert.Equal(t, 3, h.MaxEntries())
}

func TestHistoryGroup(t *testing.T) {
	h := NewHistory(10)

	err := h.Transaction(func() error {
		h.Push(New(RemoveSelection))
		assert.True(t, h.IsGrouping())
		h.Push(New(AddText))
		return nil
	})
	require.NoError(t, err)
	assert.False(t, h.IsGrouping())
	require.Equal(t, 1, h.UndoCount())

	require.NotNil(t, h.Top())
	assert.Contains(t, h.Top().Description(), "remove")

	var got *Delta
	require.NoError(t, h.Undo(func(d *Delta) error { got = d; return nil }))
	require.NotNil(t, got.Next)
	assert.Equal(t, AddText, got.Next.Kind)

	assert.Nil(t, h.Top())

	// An empty group pushes nothing, and a nested one joins the outer.
	require.NoError(t, h.Transaction(func() error { return nil }))
	assert.Equal(t, 0, h.UndoCount())

	boom := errors.New("boom")
	err = h.Transaction(func() error {
		h.Push(New(AddText))
		return h.Transaction(func() error {
			h.Push(New(AddText))
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, h.UndoCount())
	assert.NotNil(t, h.Top().Next)
}
