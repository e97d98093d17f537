package cursor

import (
	"unicode/utf8"

	"github.com/dshills/textcore/internal/engine/chunk"
	"github.com/dshills/textcore/internal/measure"
)

// Direction selects backward or forward motion.
type Direction int

// Motion directions.
const (
	Backward Direction = -1
	Forward  Direction = 1
)

// Wrap configures vertical motion. A zero Width disables wrapping; a nil
// Measurer measures on a monospace grid.
type Wrap struct {
	Measurer measure.Measurer
	Width    float64
}

func (w Wrap) measurer() measure.Measurer {
	if w.Measurer == nil {
		return measure.NewMonospace(0)
	}
	return w.Measurer
}

// moveTo places the active end at p, dragging the anchor along unless
// selecting.
func (c Cursor) moveTo(p chunk.Position, selecting bool) Cursor {
	if selecting {
		return Cursor{Start: p, End: c.End}
	}
	return At(p)
}

// OffsetCharacter moves the active end by n code points, negative n moving
// backward. Motion clamps at the document boundaries. Without selecting,
// a cursor with a selection collapses to the selection edge in the
// direction of motion instead of moving.
func (c Cursor) OffsetCharacter(s *chunk.Store, n int, selecting bool) Cursor {
	if n == 0 {
		return c
	}
	if !selecting && !c.IsEmpty() {
		if n < 0 {
			return At(c.Begin(s))
		}
		return At(c.Finish(s))
	}
	p := c.Start
	for ; n > 0; n-- {
		_, size := runeAfter(s, p)
		if size == 0 {
			break
		}
		p = s.Advance(p, size)
	}
	for ; n < 0; n++ {
		_, size := runeBefore(s, p)
		if size == 0 {
			break
		}
		p = s.Retreat(p, size)
	}
	return c.moveTo(p, selecting)
}

// OffsetWord moves the active end over one run of same-class characters.
// A newline is a run of its own.
func (c Cursor) OffsetWord(s *chunk.Store, dir Direction, selecting bool) Cursor {
	p := c.Start
	if dir == Forward {
		r, size := runeAfter(s, p)
		switch {
		case size == 0:
		case r == '\n':
			p = s.Advance(p, size)
		default:
			p = scanForward(s, p, CharacterClass(r))
		}
	} else {
		r, size := runeBefore(s, p)
		switch {
		case size == 0:
		case r == '\n':
			p = s.Retreat(p, size)
		default:
			p = scanBackward(s, p, CharacterClass(r))
		}
	}
	return c.moveTo(p, selecting)
}

// SelectWord selects the run of same-class characters around p. When p
// sits between two different classes the text class wins; between two
// non-text classes the character after p wins. Newlines are never
// selected.
func SelectWord(s *chunk.Store, p chunk.Position) Cursor {
	p = s.Canonical(p)
	rb, nb := runeBefore(s, p)
	ra, na := runeAfter(s, p)
	hasBefore := nb > 0 && rb != '\n'
	hasAfter := na > 0 && ra != '\n'

	var cls Class
	switch {
	case hasBefore && hasAfter && CharacterClass(rb) == CharacterClass(ra):
		cls = CharacterClass(ra)
	case hasAfter && CharacterClass(ra) == Text:
		cls = Text
	case hasBefore && CharacterClass(rb) == Text:
		cls = Text
	case hasAfter:
		cls = CharacterClass(ra)
	case hasBefore:
		cls = CharacterClass(rb)
	default:
		return At(p)
	}
	return Select(scanBackward(s, p, cls), scanForward(s, p, cls))
}

// OffsetStartOfLine moves the active end to the start of its line.
func (c Cursor) OffsetStartOfLine(s *chunk.Store, selecting bool) Cursor {
	return c.moveTo(s.LineStart(c.Start), selecting)
}

// OffsetEndOfLine moves the active end to the end of its line.
func (c Cursor) OffsetEndOfLine(s *chunk.Store, selecting bool) Cursor {
	return c.moveTo(s.LineEnd(c.Start), selecting)
}

// OffsetStartOfFile moves the active end to the start of the document.
func (c Cursor) OffsetStartOfFile(s *chunk.Store, selecting bool) Cursor {
	return c.moveTo(s.Start(), selecting)
}

// OffsetEndOfFile moves the active end to the end of the document.
func (c Cursor) OffsetEndOfFile(s *chunk.Store, selecting bool) Cursor {
	return c.moveTo(s.End(), selecting)
}

// SelectLine selects a whole line including its newline.
func SelectLine(s *chunk.Store, line int) Cursor {
	begin := s.Locate(line, 0)
	if line+1 >= s.LineCount() {
		return Select(begin, s.End())
	}
	return Select(begin, s.Locate(line+1, 0))
}

// SelectAll selects the whole document.
func SelectAll(s *chunk.Store) Cursor {
	return Select(s.Start(), s.End())
}

// OffsetLine moves the active end n rendered lines down, or up for
// negative n, keeping the cached horizontal target.
//
// With wrapping on, each logical line is split into sub-lines and the
// cursor visits them in turn; a logical line change happens only when the
// cursor is already on the first or last sub-line. A column exactly at a
// wrap break belongs to the later sub-line. Moving past the first line
// lands at the start of the document and past the last line at its end.
func (c Cursor) OffsetLine(s *chunk.Store, n int, selecting bool, w Wrap) Cursor {
	m := w.measurer()
	line, col := s.LineColumn(c.Start)
	text := s.Line(line)
	starts := measure.WrapLine(m, text, w.Width)
	sub := measure.SubLine(starts, col)

	x := c.x
	if !c.hasX {
		x = m.MeasureTextWidth(text[starts[sub]:col])
	}

	for ; n > 0; n-- {
		switch {
		case sub+1 < len(starts):
			sub++
		case line+1 < s.LineCount():
			line++
			text = s.Line(line)
			starts = measure.WrapLine(m, text, w.Width)
			sub = 0
		default:
			return c.moveTo(s.End(), selecting).withX(x)
		}
	}
	for ; n < 0; n++ {
		switch {
		case sub > 0:
			sub--
		case line > 0:
			line--
			text = s.Line(line)
			starts = measure.WrapLine(m, text, w.Width)
			sub = len(starts) - 1
		default:
			return c.moveTo(s.Start(), selecting).withX(x)
		}
	}

	begin := starts[sub]
	end := len(text)
	if sub+1 < len(starts) {
		end = starts[sub+1]
	}
	col = begin + measure.ColumnAt(m, text[begin:end], x)
	if col == end && sub+1 < len(starts) {
		// Stay on this sub-line rather than the start of the next.
		_, size := utf8.DecodeLastRune(text[begin:end])
		col -= size
	}

	return c.moveTo(s.Locate(line, col), selecting).withX(x)
}

func (c Cursor) withX(x float64) Cursor {
	c.x, c.hasX = x, true
	return c
}
