package cursor

import (
	"fmt"

	"github.com/dshills/textcore/internal/engine/chunk"
)

// Cursor is an insertion point with an optional selection.
// Cursor is a value type; motions return a new cursor.
type Cursor struct {
	// Start is the active end of the selection.
	Start chunk.Position
	// End is the anchor of the selection.
	End chunk.Position

	// x is the horizontal target kept across vertical motion.
	x    float64
	hasX bool
}

// At creates a cursor with no selection at p.
func At(p chunk.Position) Cursor {
	return Cursor{Start: p, End: p}
}

// Select creates a cursor selecting from anchor to active.
func Select(anchor, active chunk.Position) Cursor {
	return Cursor{Start: active, End: anchor}
}

// IsEmpty returns true if the cursor selects nothing.
func (c Cursor) IsEmpty() bool {
	return c.Start == c.End
}

// IsForward returns true if the anchor is not after the active end.
func (c Cursor) IsForward(s *chunk.Store) bool {
	return s.Compare(c.End, c.Start) <= 0
}

// Begin returns the earlier of the two ends.
func (c Cursor) Begin(s *chunk.Store) chunk.Position {
	if s.Compare(c.Start, c.End) <= 0 {
		return c.Start
	}
	return c.End
}

// Finish returns the later of the two ends.
func (c Cursor) Finish(s *chunk.Store) chunk.Position {
	if s.Compare(c.Start, c.End) >= 0 {
		return c.Start
	}
	return c.End
}

// Range returns the selection as an ordered range.
func (c Cursor) Range(s *chunk.Store) chunk.Range {
	return chunk.Range{Start: c.Begin(s), End: c.Finish(s)}
}

// Overlaps returns true if the closed ranges of c and o share a position.
func (c Cursor) Overlaps(s *chunk.Store, o Cursor) bool {
	return c.Range(s).Overlaps(s, o.Range(s))
}

// Merge returns the union of c and o, selecting in c's direction.
func (c Cursor) Merge(s *chunk.Store, o Cursor) Cursor {
	begin, finish := c.Begin(s), c.Finish(s)
	if ob := o.Begin(s); s.Compare(ob, begin) < 0 {
		begin = ob
	}
	if of := o.Finish(s); s.Compare(of, finish) > 0 {
		finish = of
	}
	if c.IsForward(s) {
		return Select(begin, finish)
	}
	return Select(finish, begin)
}

// Collapse drops the selection, keeping the active end.
func (c Cursor) Collapse() Cursor {
	return At(c.Start)
}

// Text returns the selected bytes.
func (c Cursor) Text(s *chunk.Store) []byte {
	return c.Range(s).Text(s)
}

// Relocate maps both ends through an edit. The horizontal target is
// dropped since the line it was measured on may have changed.
func (c Cursor) Relocate(s *chunk.Store, u chunk.Update) Cursor {
	return Cursor{Start: s.Relocate(u, c.Start), End: s.Relocate(u, c.End)}
}

// Valid returns true if both ends refer to live chunks.
func (c Cursor) Valid(s *chunk.Store) bool {
	return s.Valid(c.Start.Chunk) && s.Valid(c.End.Chunk)
}

// String returns a debug representation.
func (c Cursor) String() string {
	if c.IsEmpty() {
		return fmt.Sprintf("Cursor%v", c.Start)
	}
	return fmt.Sprintf("Cursor[%v->%v]", c.End, c.Start)
}

// Data is the line/column form of a cursor used for persistence.
type Data struct {
	StartLine     int `yaml:"start_line"`
	StartPosition int `yaml:"start_position"`
	EndLine       int `yaml:"end_line"`
	EndPosition   int `yaml:"end_position"`
}

// Data returns the persistent form of c.
func (c Cursor) Data(s *chunk.Store) Data {
	sl, sc := s.LineColumn(c.Start)
	el, ec := s.LineColumn(c.End)
	return Data{StartLine: sl, StartPosition: sc, EndLine: el, EndPosition: ec}
}

// FromData rebuilds a cursor, clamping lines and columns to the document.
func FromData(s *chunk.Store, d Data) Cursor {
	return Select(s.Locate(d.EndLine, d.EndPosition), s.Locate(d.StartLine, d.StartPosition))
}
