package chunk

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/dshills/textcore/internal/highlight"
)

// Update describes how an edit changed the chunk list, so holders of
// positions can relocate them with Store.Relocate.
type Update struct {
	// Chunk is the first chunk touched by the edit; it always survives.
	Chunk ID
	// Offset is where the replaced range started in Chunk.
	Offset int
	// EndChunk and EndOffset locate the end of the replaced range before the edit.
	EndChunk  ID
	EndOffset int
	// Inserted is the number of bytes inserted at Offset.
	Inserted int
	// Removed lists chunks freed because the replaced range covered them.
	Removed []ID
	// Merged is the successor chunk folded into Chunk after the edit, or Nil.
	Merged ID
	// MergeBase is the offset from Chunk's start where Merged's bytes begin.
	MergeBase int
	// Split lists chunks created after Chunk when the edited content was split.
	Split []ID
	// Lines is the net change in the document's line count.
	Lines int
}

// Insert inserts text at p.
func (s *Store) Insert(p Position, text []byte) Update {
	return s.Replace(p, p, text)
}

// InsertInLine inserts text that must not contain a newline.
func (s *Store) InsertInLine(p Position, text []byte) Update {
	if bytes.IndexByte(text, '\n') >= 0 {
		panic("chunk: InsertInLine text contains a newline")
	}
	return s.Replace(p, p, text)
}

// Delete removes the bytes between start and end.
func (s *Store) Delete(start, end Position) Update {
	return s.Replace(start, end, nil)
}

// Replace replaces the bytes between start and end with text.
//
// When the result fits the first chunk it is spliced in place. When it
// does not, a chunk holding a single line is grown, and a chunk holding
// several lines is split at line boundaries. After an edit that did not
// split, the chunk is merged with its successor if together they fill at
// most half a chunk. Start lines of every later chunk are shifted.
func (s *Store) Replace(start, end Position, text []byte) Update {
	start, end = s.Canonical(start), s.Canonical(end)
	if s.Compare(start, end) > 0 {
		panic(fmt.Sprintf("chunk: replace start %v after end %v", start, end))
	}

	u := Update{
		Chunk:     start.Chunk,
		Offset:    start.Offset,
		EndChunk:  end.Chunk,
		EndOffset: end.Offset,
		Inserted:  len(text),
		Merged:    Nil,
	}
	a := s.Get(start.Chunk)
	index := s.IndexOf(start.Chunk)
	var freed []ID

	removedLines := 0
	if start.Chunk == end.Chunk {
		if a.Len()-(end.Offset-start.Offset)+len(text) <= a.capacity {
			removedLines = a.deleteLines(start.Offset, end.Offset)
			a.insertText(start.Offset, text)
		} else {
			removedLines = bytes.Count(a.data[start.Offset:end.Offset], newline)
			a.setData(concat(a.data[:start.Offset], text, a.data[end.Offset:]))
		}
	} else {
		removedLines = bytes.Count(a.data[start.Offset:], newline)
		id := a.next
		for id != end.Chunk {
			if id == Nil {
				panic("chunk: replace end not reachable from start")
			}
			c := s.slab[id]
			removedLines += c.Newlines()
			u.Removed = append(u.Removed, id)
			freed = append(freed, id)
			id = c.next
		}
		b := s.slab[end.Chunk]
		removedLines += bytes.Count(b.data[:end.Offset], newline)
		u.Removed = append(u.Removed, end.Chunk)
		freed = append(freed, end.Chunk)

		// b is the last removed chunk; its end state becomes a's old end state.
		a.State.Release()
		a.State = b.State
		b.State = highlight.State{}
		a.setData(concat(a.data[:start.Offset], text, b.data[end.Offset:]))
		s.unlink(index+1, len(u.Removed), b.next)
	}

	u.Lines = bytes.Count(text, newline) - removedLines
	s.lines += u.Lines
	a.invalidate()

	if a.Len() > s.capacity && hasInteriorNewline(a.data) {
		s.split(&u, index)
	} else {
		s.mergeForward(&u, index)
	}

	// Shift every chunk after the edited region.
	last := index + len(u.Split)
	for i := last + 1; i < len(s.order); i++ {
		s.slab[s.order[i]].startLine += u.Lines
	}

	for _, id := range freed {
		s.release(id)
	}
	return u
}

// unlink removes n chunks from the order slice starting at i and links
// the chunk before them to next.
func (s *Store) unlink(i, n int, next ID) {
	prev := s.order[i-1]
	s.order = slices.Delete(s.order, i, i+n)
	s.slab[prev].next = next
	if next != Nil {
		s.slab[next].prev = prev
	}
}

// split breaks the chunk at order[index] into parts that each fit a chunk
// or hold a single line, inserting the new chunks after it.
func (s *Store) split(u *Update, index int) {
	a := s.slab[s.order[index]]
	parts := splitLines(a.data, s.capacity)

	oldState := a.State
	a.State = highlight.State{}
	oldNext := a.next

	// Copy the parts out before a's buffer is rewritten.
	rest := make([][]byte, len(parts)-1)
	for i, p := range parts[1:] {
		rest[i] = append([]byte(nil), p...)
	}
	a.reset(parts[0], s.capacity)

	prevID := s.order[index]
	line := a.startLine + a.Newlines()
	ids := make([]ID, 0, len(rest))
	for _, p := range rest {
		c := newChunk(p, s.capacity)
		c.startLine = line
		line += c.Newlines()
		c.prev = prevID
		id := s.alloc(c)
		s.slab[prevID].next = id
		ids = append(ids, id)
		prevID = id
	}
	s.slab[prevID].next = oldNext
	if oldNext != Nil {
		s.slab[oldNext].prev = prevID
	}
	// The last part ends where a used to end, so it inherits a's end state.
	s.slab[prevID].State = oldState

	s.order = slices.Insert(s.order, index+1, ids...)
	u.Split = ids
}

// mergeForward folds the successor of order[index] into it when the pair
// fits in half a chunk, or when the chunk was emptied.
func (s *Store) mergeForward(u *Update, index int) {
	aID := s.order[index]
	a := s.slab[aID]
	if a.next == Nil {
		return
	}
	bID := a.next
	b := s.slab[bID]
	if a.Len() != 0 && a.Len()+b.Len() > s.capacity/2 {
		return
	}

	u.Merged = bID
	u.MergeBase = a.Len()
	a.setData(concat(a.data, nil, b.data))
	a.State.Release()
	a.State = b.State
	b.State = highlight.State{}
	a.invalidate()
	s.unlink(index+1, 1, b.next)
	s.release(bID)
}

// Relocate maps a position taken before the edit described by u to the
// equivalent position after it. Positions at or after the edit point move
// past inserted text; positions inside a removed range collapse to the
// edit point.
func (s *Store) Relocate(u Update, p Position) Position {
	var logical int
	switch {
	case p.Chunk == u.Chunk:
		switch {
		case p.Offset < u.Offset:
			logical = p.Offset
		case u.EndChunk == u.Chunk && p.Offset >= u.EndOffset:
			logical = p.Offset - (u.EndOffset - u.Offset) + u.Inserted
		default:
			logical = u.Offset + u.Inserted
		}
	case p.Chunk == u.EndChunk:
		if p.Offset >= u.EndOffset {
			logical = u.Offset + u.Inserted + p.Offset - u.EndOffset
		} else {
			logical = u.Offset + u.Inserted
		}
	case slices.Contains(u.Removed, p.Chunk):
		logical = u.Offset + u.Inserted
	case p.Chunk == u.Merged:
		logical = u.MergeBase + p.Offset
	default:
		return p
	}
	return s.resolve(u.Chunk, logical)
}

// Touched reports whether id was created or rewritten by the edit.
func (u Update) Touched(id ID) bool {
	return id == u.Chunk || slices.Contains(u.Split, id)
}

// splitLines splits data at line boundaries until every part fits
// capacity or holds a single line. Each cut is made at the line boundary
// closest to the middle of the part being cut; ties go to the later one.
func splitLines(data []byte, capacity int) [][]byte {
	if len(data) <= capacity || !hasInteriorNewline(data) {
		return [][]byte{data}
	}
	mid := len(data) / 2
	best := -1
	for i := 0; i < len(data)-1; i++ {
		if data[i] != '\n' {
			continue
		}
		cut := i + 1
		if best < 0 || abs(cut-mid) <= abs(best-mid) {
			best = cut
		}
	}
	left := splitLines(data[:best], capacity)
	return append(left, splitLines(data[best:], capacity)...)
}

// hasInteriorNewline reports whether data can be cut at a line boundary
// leaving both halves non-empty.
func hasInteriorNewline(data []byte) bool {
	return len(data) > 1 && bytes.IndexByte(data[:len(data)-1], '\n') >= 0
}

func concat(a, b, c []byte) []byte {
	out := make([]byte, 0, len(a)+len(b)+len(c))
	out = append(out, a...)
	out = append(out, b...)
	return append(out, c...)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
