package textfile

import (
	"fmt"
	"strings"

	"github.com/dshills/textcore/internal/engine/chunk"
	"github.com/dshills/textcore/internal/engine/cursor"
	"github.com/dshills/textcore/internal/engine/history"
)

// tx applies the edits of one operation. It is only used with mu held.
type tx struct {
	f *TextFile
	s *chunk.Store
	d *history.Delta
}

// replace replaces [start, end) with text, relocates every cursor at or
// after start and records the edit.
func (t *tx) replace(start, end chunk.Position, text string) chunk.Update {
	s := t.s
	start, end = s.Canonical(start), s.Canonical(end)
	line, col := s.LineColumn(start)
	removed := chunk.Range{Start: start, End: end}.Text(s)

	affected := make([]bool, len(t.f.cursors))
	for i, c := range t.f.cursors {
		affected[i] = s.Compare(c.Finish(s), start) >= 0
	}

	u := s.Replace(start, end, []byte(text))
	for i, c := range t.f.cursors {
		switch {
		case affected[i]:
			t.f.cursors[i] = c.Relocate(s, u)
		case len(u.Split) > 0 && (u.Touched(c.Start.Chunk) || u.Touched(c.End.Chunk)):
			// The split moved the tail of the edited chunk into new chunks.
			t.f.cursors[i] = c.Relocate(s, u)
		}
	}
	t.d.Record(history.Edit{Line: line, Col: col, Removed: string(removed), Inserted: text})
	return u
}

// perform runs apply as one undoable operation.
func (f *TextFile) perform(d *history.Delta, apply func(t *tx)) error {
	if err := f.editable(); err != nil {
		return err
	}
	f.epoch.Add(1)
	st := f.cancelFind()

	f.applyLocked(d, apply)
	if len(d.Edits) == 0 {
		f.afterChange(st)
		return nil
	}
	f.unsaved.Store(true)
	f.history.Push(d)
	f.afterChange(st)
	return nil
}

func (f *TextFile) applyLocked(d *history.Delta, apply func(t *tx)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.Before = f.cursorDataLocked()
	apply(&tx{f: f, s: f.store, d: d})
	if len(d.Edits) > 0 {
		f.revision++
	}
	f.cursors = cursor.Normalize(f.store, f.cursors)
	d.After = f.cursorDataLocked()
	if len(d.Edits) > 0 && f.hasGroupBefore {
		d.Before = f.groupBefore
		f.groupBefore, f.hasGroupBefore = nil, false
	}
}

// Group runs fn with every edit it makes undone and redone as one step.
// Undoing the group restores the cursors from before fn ran.
func (f *TextFile) Group(fn func() error) error {
	if err := f.editable(); err != nil {
		return err
	}
	nested := f.history.IsGrouping()
	if !nested {
		f.mu.Lock()
		f.groupBefore, f.hasGroupBefore = f.cursorDataLocked(), true
		f.mu.Unlock()
		defer func() {
			f.mu.Lock()
			f.groupBefore, f.hasGroupBefore = nil, false
			f.mu.Unlock()
		}()
	}
	return f.history.Transaction(fn)
}

// InsertText inserts text at every cursor, replacing selections. Text may
// span several lines.
func (f *TextFile) InsertText(text string) error {
	d := history.New(history.AddText)
	d.Text = text
	return f.perform(d, func(t *tx) {
		for i := range f.cursors {
			t.insertAt(i, text)
		}
	})
}

// InsertLines inserts lines joined by newlines at every cursor.
func (f *TextFile) InsertLines(lines []string) error {
	return f.InsertText(strings.Join(lines, "\n"))
}

// InsertTextPerCursor inserts texts[i] at the i-th cursor in document
// order. If the counts differ every cursor receives all texts, one per
// line.
func (f *TextFile) InsertTextPerCursor(texts []string) error {
	f.mu.RLock()
	n := len(f.cursors)
	f.mu.RUnlock()
	if len(texts) != n {
		return f.InsertText(strings.Join(texts, "\n"))
	}

	d := history.New(history.AddText)
	d.Texts = texts
	return f.perform(d, func(t *tx) {
		for i := range f.cursors {
			if i < len(texts) {
				t.insertAt(i, texts[i])
			}
		}
	})
}

func (t *tx) insertAt(i int, text string) {
	c := t.f.cursors[i]
	t.replace(c.Begin(t.s), c.Finish(t.s), text)
	t.f.cursors[i] = t.f.cursors[i].Collapse()
}

// DeleteSelection removes every non-empty selection.
func (f *TextFile) DeleteSelection() error {
	return f.remove(cursor.Forward, history.Character, true)
}

// DeleteCharacter removes each selection, or the character next to each
// empty cursor in dir.
func (f *TextFile) DeleteCharacter(dir cursor.Direction) error {
	return f.remove(dir, history.Character, false)
}

// DeleteWord removes each selection, or the word next to each empty
// cursor in dir.
func (f *TextFile) DeleteWord(dir cursor.Direction) error {
	return f.remove(dir, history.Word, false)
}

func (f *TextFile) remove(dir cursor.Direction, unit history.Unit, selectionsOnly bool) error {
	d := history.New(history.RemoveSelection)
	d.Direction = dir
	d.Unit = unit
	return f.perform(d, func(t *tx) {
		s := t.s
		for i := range f.cursors {
			c := f.cursors[i]
			if c.IsEmpty() {
				if selectionsOnly {
					continue
				}
				switch unit {
				case history.Word:
					c = c.OffsetWord(s, dir, true)
				default:
					c = c.OffsetCharacter(s, int(dir), true)
				}
				if c.IsEmpty() {
					continue
				}
			}
			t.replace(c.Begin(s), c.Finish(s), "")
			f.cursors[i] = f.cursors[i].Collapse()
		}
	})
}

// DeleteLine removes every line touched by a cursor. It selects the lines
// and removes the selection as one undo step.
func (f *TextFile) DeleteLine() error {
	return f.Group(func() error {
		f.selectLines()
		return f.DeleteSelection()
	})
}

// selectLines extends every cursor to cover its whole lines.
func (f *TextFile) selectLines() {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.store
	for i, c := range f.cursors {
		first, _ := s.LineColumn(c.Begin(s))
		last, _ := s.LineColumn(c.Finish(s))
		begin := s.Locate(first, 0)
		var end chunk.Position
		if last+1 < s.LineCount() {
			end = s.Locate(last+1, 0)
		} else {
			end = s.End()
			if first > 0 {
				// Take the preceding newline so no empty line is left behind.
				begin = s.Locate(first-1, s.LineLen(first-1))
			}
		}
		f.cursors[i] = cursor.Select(begin, end)
	}
	f.cursors = cursor.Normalize(s, f.cursors)
}

// AddNewLine breaks the line at every cursor, indenting each new line
// like the line it was split from.
func (f *TextFile) AddNewLine() error {
	f.mu.RLock()
	s := f.store
	indents := make([]string, len(f.cursors))
	indented := false
	for i, c := range f.cursors {
		line, col := s.LineColumn(c.Begin(s))
		indents[i] = leadingSpace(s.Line(line), col)
		indented = indented || indents[i] != ""
	}
	f.mu.RUnlock()

	return f.Group(func() error {
		if err := f.InsertText("\n"); err != nil {
			return err
		}
		if !indented {
			return nil
		}
		return f.InsertTextPerCursor(indents)
	})
}

// leadingSpace returns the indentation of line, up to col bytes.
func leadingSpace(line []byte, col int) string {
	n := 0
	for n < len(line) && n < col && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return string(line[:n])
}

// AddEmptyLine inserts an empty line above (Backward) or below (Forward)
// the line of every cursor and moves the cursor onto it.
func (f *TextFile) AddEmptyLine(dir cursor.Direction) error {
	d := history.New(history.InsertLineBefore)
	d.Direction = dir
	return f.perform(d, func(t *tx) {
		s := t.s
		for i := range f.cursors {
			line, _ := s.LineColumn(f.cursors[i].Start)
			if dir == cursor.Backward {
				p := s.Locate(line, 0)
				t.replace(p, p, "\n")
				f.cursors[i] = cursor.At(s.Locate(line, 0))
				continue
			}
			p := s.Locate(line, s.LineLen(line))
			t.replace(p, p, "\n")
			f.cursors[i] = cursor.At(s.Locate(line+1, 0))
		}
	})
}

// Undo reverts the most recent operation and restores its cursors.
func (f *TextFile) Undo() error {
	if err := f.editable(); err != nil {
		return err
	}
	return f.history.Undo(func(d *history.Delta) error {
		return f.applyEdits(d.UndoEdits(), d.CursorsBefore())
	})
}

// Redo reapplies the most recently undone operation.
func (f *TextFile) Redo() error {
	if err := f.editable(); err != nil {
		return err
	}
	return f.history.Redo(func(d *history.Delta) error {
		return f.applyEdits(d.RedoEdits(), d.CursorsAfter())
	})
}

// applyEdits replays recorded edits and then installs cursors.
func (f *TextFile) applyEdits(edits []history.Edit, cursors []cursor.Data) error {
	f.epoch.Add(1)
	st := f.cancelFind()

	if err := f.replayLocked(edits, cursors); err != nil {
		return err
	}
	f.unsaved.Store(true)
	f.afterChange(st)
	return nil
}

func (f *TextFile) replayLocked(edits []history.Edit, cursors []cursor.Data) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.store
	f.revision++
	for _, e := range edits {
		start := s.Locate(e.Line, e.Col)
		if l, c := s.LineColumn(start); l != e.Line || c != e.Col {
			return fmt.Errorf("history edit at %d:%d is outside the document", e.Line, e.Col)
		}
		end := s.Advance(start, len(e.Removed))
		if got := (chunk.Range{Start: start, End: end}).Text(s); string(got) != e.Removed {
			panic(fmt.Sprintf("textfile: history out of sync at %d:%d: want %q, have %q", e.Line, e.Col, e.Removed, got))
		}
		s.Replace(start, end, []byte(e.Inserted))
	}
	f.cursors = f.restoreCursorsLocked(cursors)
	return nil
}
