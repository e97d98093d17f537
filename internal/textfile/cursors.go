package textfile

import (
	"github.com/dshills/textcore/internal/engine/chunk"
	"github.com/dshills/textcore/internal/engine/cursor"
)

func (f *TextFile) cursorDataLocked() []cursor.Data {
	out := make([]cursor.Data, len(f.cursors))
	for i, c := range f.cursors {
		out[i] = c.Data(f.store)
	}
	return out
}

func (f *TextFile) restoreCursorsLocked(data []cursor.Data) []cursor.Cursor {
	if len(data) == 0 {
		return []cursor.Cursor{cursor.At(f.store.Start())}
	}
	cs := make([]cursor.Cursor, len(data))
	for i, d := range data {
		cs[i] = cursor.FromData(f.store, d)
	}
	return cursor.Normalize(f.store, cs)
}

// CursorData returns the cursors in line and column form, in document
// order.
func (f *TextFile) CursorData() []cursor.Data {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cursorDataLocked()
}

// RestoreCursors replaces the cursor set, clamping each cursor to the
// document.
func (f *TextFile) RestoreCursors(data []cursor.Data) error {
	if err := f.usable(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursors = f.restoreCursorsLocked(data)
	return nil
}

// Selections returns the text selected by each cursor.
func (f *TextFile) Selections() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.cursors))
	for i, c := range f.cursors {
		out[i] = string(c.Text(f.store))
	}
	return out
}

// SetCursor replaces every cursor with one at line and col.
func (f *TextFile) SetCursor(line, col int) error {
	return f.RestoreCursors([]cursor.Data{{StartLine: line, StartPosition: col, EndLine: line, EndPosition: col}})
}

// Select replaces every cursor with a selection from the anchor to the
// active position.
func (f *TextFile) Select(anchorLine, anchorCol, line, col int) error {
	return f.RestoreCursors([]cursor.Data{{StartLine: line, StartPosition: col, EndLine: anchorLine, EndPosition: anchorCol}})
}

// AddCursor adds a cursor at line and col. It merges with any cursor it
// touches.
func (f *TextFile) AddCursor(line, col int) error {
	if err := f.usable(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursors = cursor.Normalize(f.store, append(f.cursors, cursor.At(f.store.Locate(line, col))))
	return nil
}

// moveCursors maps every cursor through fn and normalizes the result.
func (f *TextFile) moveCursors(fn func(s *chunk.Store, c cursor.Cursor) cursor.Cursor) error {
	if err := f.usable(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.cursors {
		f.cursors[i] = fn(f.store, c)
	}
	f.cursors = cursor.Normalize(f.store, f.cursors)
	return nil
}

// MoveCharacter moves every cursor by n characters.
func (f *TextFile) MoveCharacter(n int, selecting bool) error {
	return f.moveCursors(func(s *chunk.Store, c cursor.Cursor) cursor.Cursor {
		return c.OffsetCharacter(s, n, selecting)
	})
}

// MoveWord moves every cursor over one word in dir.
func (f *TextFile) MoveWord(dir cursor.Direction, selecting bool) error {
	return f.moveCursors(func(s *chunk.Store, c cursor.Cursor) cursor.Cursor {
		return c.OffsetWord(s, dir, selecting)
	})
}

// MoveLine moves every cursor n lines down, or up for negative n. With
// word wrap on, wrapped sub-lines count as lines.
func (f *TextFile) MoveLine(n int, selecting bool) error {
	f.mu.RLock()
	w := cursor.Wrap{Measurer: f.measurer}
	if f.settings.WordWrap {
		w.Width = f.wrapWidth
	}
	f.mu.RUnlock()
	return f.moveCursors(func(s *chunk.Store, c cursor.Cursor) cursor.Cursor {
		return c.OffsetLine(s, n, selecting, w)
	})
}

// MoveLineBoundary moves every cursor to the start (Backward) or end
// (Forward) of its line.
func (f *TextFile) MoveLineBoundary(dir cursor.Direction, selecting bool) error {
	return f.moveCursors(func(s *chunk.Store, c cursor.Cursor) cursor.Cursor {
		if dir == cursor.Backward {
			return c.OffsetStartOfLine(s, selecting)
		}
		return c.OffsetEndOfLine(s, selecting)
	})
}

// MoveFileBoundary moves every cursor to the start (Backward) or end
// (Forward) of the document.
func (f *TextFile) MoveFileBoundary(dir cursor.Direction, selecting bool) error {
	return f.moveCursors(func(s *chunk.Store, c cursor.Cursor) cursor.Cursor {
		if dir == cursor.Backward {
			return c.OffsetStartOfFile(s, selecting)
		}
		return c.OffsetEndOfFile(s, selecting)
	})
}

// SelectWord selects the word under every cursor.
func (f *TextFile) SelectWord() error {
	return f.moveCursors(func(s *chunk.Store, c cursor.Cursor) cursor.Cursor {
		return cursor.SelectWord(s, c.Start)
	})
}

// SelectLine selects the line of every cursor, including its newline.
func (f *TextFile) SelectLine() error {
	return f.moveCursors(func(s *chunk.Store, c cursor.Cursor) cursor.Cursor {
		line, _ := s.LineColumn(c.Start)
		return cursor.SelectLine(s, line)
	})
}

// SelectAll replaces every cursor with one selecting the whole document.
func (f *TextFile) SelectAll() error {
	if err := f.usable(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursors = []cursor.Cursor{cursor.SelectAll(f.store)}
	return nil
}
