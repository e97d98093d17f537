package chunk

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// Position is a byte offset into a chunk.
//
// A position at the very end of a non-last chunk names the same place as
// offset zero of the next chunk; Canonical always picks the latter so two
// positions for one place compare equal field by field.
type Position struct {
	Chunk  ID
	Offset int
}

// String returns a debug representation.
func (p Position) String() string {
	return fmt.Sprintf("(%d:%d)", p.Chunk, p.Offset)
}

// Compare returns -1, 0 or 1 as a is before, at or after b. Positions in
// different chunks are ordered by the chunks' start lines.
func (s *Store) Compare(a, b Position) int {
	if a.Chunk == b.Chunk {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	}
	la, lb := s.Get(a.Chunk).startLine, s.Get(b.Chunk).startLine
	if la < lb {
		return -1
	}
	return 1
}

// Canonical returns the canonical form of p.
func (s *Store) Canonical(p Position) Position {
	return s.resolve(p.Chunk, p.Offset)
}

// resolve walks forward from id until logical falls inside a chunk.
func (s *Store) resolve(id ID, logical int) Position {
	c := s.Get(id)
	for logical >= c.Len() && c.next != Nil {
		logical -= c.Len()
		id = c.next
		c = s.slab[id]
	}
	if logical > c.Len() || logical < 0 {
		panic(fmt.Sprintf("chunk: offset %d out of range in chunk %d (len %d)", logical, id, c.Len()))
	}
	return Position{Chunk: id, Offset: logical}
}

// Start returns the position of the first byte of the document.
func (s *Store) Start() Position {
	return Position{Chunk: s.First(), Offset: 0}
}

// End returns the position just past the last byte of the document.
func (s *Store) End() Position {
	last := s.Last()
	return Position{Chunk: last, Offset: s.Get(last).Len()}
}

// Locate converts a line and byte column into a position. The line is
// clamped to the document and the column to the line's length.
func (s *Store) Locate(line, col int) Position {
	if line < 0 {
		line = 0
	}
	if line >= s.lines {
		line = s.lines - 1
	}
	id := s.ChunkForLine(line)
	c := s.Get(id)
	off := 0
	for l := c.startLine; l < line; l++ {
		i := bytes.IndexByte(c.data[off:], '\n')
		if i < 0 {
			panic(fmt.Sprintf("chunk: line %d missing from chunk %d", line, id))
		}
		off += i + 1
	}
	lineLen := bytes.IndexByte(c.data[off:], '\n')
	if lineLen < 0 {
		lineLen = c.Len() - off
	}
	if col < 0 {
		col = 0
	}
	if col > lineLen {
		col = lineLen
	}
	return s.Canonical(Position{Chunk: id, Offset: off + col})
}

// LineColumn converts a position into a document line and byte column.
func (s *Store) LineColumn(p Position) (line, col int) {
	c := s.Get(p.Chunk)
	if p.Offset > c.Len() {
		panic(fmt.Sprintf("chunk: offset %d past end of chunk %d", p.Offset, p.Chunk))
	}
	head := c.data[:p.Offset]
	line = c.startLine + bytes.Count(head, newline)
	col = p.Offset - (bytes.LastIndexByte(head, '\n') + 1)
	return line, col
}

// CharacterColumn returns the number of UTF-8 characters between the
// start of p's line and p.
func (s *Store) CharacterColumn(p Position) int {
	c := s.Get(p.Chunk)
	head := c.data[:p.Offset]
	return utf8.RuneCount(head[bytes.LastIndexByte(head, '\n')+1:])
}

// LineStart returns the position of the start of p's line.
func (s *Store) LineStart(p Position) Position {
	c := s.Get(p.Chunk)
	return Position{Chunk: p.Chunk, Offset: bytes.LastIndexByte(c.data[:p.Offset], '\n') + 1}
}

// LineEnd returns the position of the newline ending p's line, or the end
// of the document on the last line.
func (s *Store) LineEnd(p Position) Position {
	c := s.Get(p.Chunk)
	i := bytes.IndexByte(c.data[p.Offset:], '\n')
	if i < 0 {
		return Position{Chunk: p.Chunk, Offset: c.Len()}
	}
	return Position{Chunk: p.Chunk, Offset: p.Offset + i}
}

// Advance moves p forward n bytes, clamping at the end of the document.
func (s *Store) Advance(p Position, n int) Position {
	c := s.Get(p.Chunk)
	logical := p.Offset + n
	for logical > c.Len() && c.next != Nil {
		logical -= c.Len()
		p.Chunk = c.next
		c = s.slab[p.Chunk]
	}
	if logical > c.Len() {
		logical = c.Len()
	}
	return s.Canonical(Position{Chunk: p.Chunk, Offset: logical})
}

// Retreat moves p backward n bytes, clamping at the start of the document.
func (s *Store) Retreat(p Position, n int) Position {
	logical := p.Offset - n
	for logical < 0 {
		c := s.Get(p.Chunk)
		if c.prev == Nil {
			return Position{Chunk: p.Chunk, Offset: 0}
		}
		p.Chunk = c.prev
		logical += s.slab[p.Chunk].Len()
	}
	return s.Canonical(Position{Chunk: p.Chunk, Offset: logical})
}

// Distance returns the number of bytes from a to b. a must not be after b.
func (s *Store) Distance(a, b Position) int {
	if a.Chunk == b.Chunk {
		return b.Offset - a.Offset
	}
	n := s.Get(a.Chunk).Len() - a.Offset
	for id := s.slab[a.Chunk].next; id != b.Chunk; id = s.slab[id].next {
		if id == Nil {
			panic("chunk: distance end precedes start")
		}
		n += s.slab[id].Len()
	}
	return n + b.Offset
}

// Range is an ordered pair of positions, Start not after End.
type Range struct {
	Start Position
	End   Position
}

// IsEmpty reports whether the range covers no bytes.
func (r Range) IsEmpty(s *Store) bool {
	return s.Compare(r.Start, r.End) == 0
}

// Contains reports whether p lies within [Start, End].
func (r Range) Contains(s *Store, p Position) bool {
	return s.Compare(r.Start, p) <= 0 && s.Compare(p, r.End) <= 0
}

// Overlaps reports whether r and o share a position; abutting ranges overlap.
func (r Range) Overlaps(s *Store, o Range) bool {
	return s.Compare(r.Start, o.End) <= 0 && s.Compare(o.Start, r.End) <= 0
}

// Text returns the bytes covered by r, which may span several chunks.
func (r Range) Text(s *Store) []byte {
	start, end := s.Canonical(r.Start), s.Canonical(r.End)
	if s.Compare(start, end) > 0 {
		panic("chunk: range start after end")
	}
	if start.Chunk == end.Chunk {
		return append([]byte(nil), s.Get(start.Chunk).data[start.Offset:end.Offset]...)
	}
	var buf bytes.Buffer
	buf.Write(s.Get(start.Chunk).data[start.Offset:])
	for id := s.slab[start.Chunk].next; id != end.Chunk; id = s.slab[id].next {
		buf.Write(s.slab[id].data)
	}
	buf.Write(s.Get(end.Chunk).data[:end.Offset])
	return buf.Bytes()
}
