package chunk

import (
	"bytes"
	"fmt"
	"io"
	"sort"
)

// Store holds a document as a doubly linked list of chunks kept in an
// arena. Chunks are addressed by ID; the order slice mirrors the linked
// list so a line can be found by binary search over start lines.
//
// Store is not safe for concurrent use; the owning document serializes
// access.
type Store struct {
	slab     []*Chunk
	free     []ID
	order    []ID
	capacity int
	lines    int
}

// New creates a store holding one empty chunk.
func New(capacity int) *Store {
	s := newStore(capacity)
	id := s.alloc(newChunk(nil, s.capacity))
	s.order = []ID{id}
	s.lines = 1
	return s
}

// FromBytes creates a store holding data, packed the way a file load would.
func FromBytes(data []byte, capacity int) *Store {
	b := NewBuilder(capacity)
	b.Write(data)
	return b.Store()
}

func newStore(capacity int) *Store {
	if capacity < MinCapacity {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity}
}

func (s *Store) alloc(c *Chunk) ID {
	if n := len(s.free); n > 0 {
		id := s.free[n-1]
		s.free = s.free[:n-1]
		s.slab[id] = c
		return id
	}
	s.slab = append(s.slab, c)
	return ID(len(s.slab) - 1)
}

func (s *Store) release(id ID) {
	c := s.slab[id]
	c.State.Release()
	s.slab[id] = nil
	s.free = append(s.free, id)
}

// Capacity returns the default chunk capacity.
func (s *Store) Capacity() int {
	return s.capacity
}

// Get returns the chunk for id. It panics if id does not name a live chunk.
func (s *Store) Get(id ID) *Chunk {
	if !s.Valid(id) {
		panic(fmt.Sprintf("chunk: invalid chunk id %d", id))
	}
	return s.slab[id]
}

// Valid reports whether id names a chunk still in the list.
func (s *Store) Valid(id ID) bool {
	return id >= 0 && int(id) < len(s.slab) && s.slab[id] != nil
}

// Count returns the number of chunks.
func (s *Store) Count() int {
	return len(s.order)
}

// At returns the chunk ID at index i in document order.
func (s *Store) At(i int) ID {
	return s.order[i]
}

// IDs returns a copy of the chunk IDs in document order.
func (s *Store) IDs() []ID {
	out := make([]ID, len(s.order))
	copy(out, s.order)
	return out
}

// First returns the first chunk.
func (s *Store) First() ID {
	return s.order[0]
}

// Last returns the last chunk.
func (s *Store) Last() ID {
	return s.order[len(s.order)-1]
}

// LineCount returns the number of lines in the document.
func (s *Store) LineCount() int {
	return s.lines
}

// Size returns the total number of bytes in the document.
func (s *Store) Size() int {
	n := 0
	for _, id := range s.order {
		n += s.slab[id].Len()
	}
	return n
}

// FindLine returns the index in document order of the chunk holding line.
// Lines past the end resolve to the last chunk.
func (s *Store) FindLine(line int) int {
	if len(s.order) == 0 {
		panic("chunk: store has no chunks")
	}
	// First chunk whose start line is past line, minus one.
	i := sort.Search(len(s.order), func(i int) bool {
		return s.slab[s.order[i]].startLine > line
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

// ChunkForLine returns the chunk holding line.
func (s *Store) ChunkForLine(line int) ID {
	return s.order[s.FindLine(line)]
}

// IndexOf returns the index of id in document order.
func (s *Store) IndexOf(id ID) int {
	c := s.Get(id)
	i := sort.Search(len(s.order), func(i int) bool {
		return s.slab[s.order[i]].startLine >= c.startLine
	})
	for ; i < len(s.order); i++ {
		if s.order[i] == id {
			return i
		}
	}
	panic(fmt.Sprintf("chunk: chunk %d missing from order", id))
}

// ChunkLineCount returns the number of lines starting in chunk id.
func (s *Store) ChunkLineCount(id ID) int {
	c := s.Get(id)
	if c.next == Nil {
		return s.lines - c.startLine
	}
	return s.slab[c.next].startLine - c.startLine
}

// Lines splits chunk id into its lines, without newlines. The slices
// alias the chunk and are valid only until the next edit.
func (s *Store) Lines(id ID) [][]byte {
	c := s.Get(id)
	lines := bytes.Split(c.data, newline)
	if c.next != Nil {
		// Non-last chunks end with a newline; drop the empty remainder.
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Line returns the text of a document line without its newline.
func (s *Store) Line(line int) []byte {
	p := s.Locate(line, 0)
	c := s.Get(p.Chunk)
	end := bytes.IndexByte(c.data[p.Offset:], '\n')
	if end < 0 {
		return c.data[p.Offset:]
	}
	return c.data[p.Offset : p.Offset+end]
}

// LineLen returns the byte length of a line without its newline.
func (s *Store) LineLen(line int) int {
	return len(s.Line(line))
}

// Bytes returns the whole document.
func (s *Store) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(s.Size())
	_, _ = s.WriteTo(&buf)
	return buf.Bytes()
}

// String returns the whole document.
func (s *Store) String() string {
	return string(s.Bytes())
}

// WriteTo writes the document to w.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, id := range s.order {
		n, err := w.Write(s.slab[id].data)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Check verifies the structural invariants and returns the first violation.
func (s *Store) Check() error {
	if len(s.order) == 0 {
		return fmt.Errorf("no chunks")
	}
	lines := 0
	prev := Nil
	for i, id := range s.order {
		if !s.Valid(id) {
			return fmt.Errorf("chunk %d at index %d is not live", id, i)
		}
		c := s.slab[id]
		if c.prev != prev {
			return fmt.Errorf("chunk %d: prev is %d, want %d", id, c.prev, prev)
		}
		if prev != Nil && s.slab[prev].next != id {
			return fmt.Errorf("chunk %d: next is %d, want %d", prev, s.slab[prev].next, id)
		}
		if c.startLine != lines {
			return fmt.Errorf("chunk %d: start line %d, want %d", id, c.startLine, lines)
		}
		if len(c.data) > c.capacity {
			return fmt.Errorf("chunk %d: %d bytes exceed capacity %d", id, len(c.data), c.capacity)
		}
		last := i == len(s.order)-1
		if !last && (len(c.data) == 0 || c.data[len(c.data)-1] != '\n') {
			return fmt.Errorf("chunk %d: does not end with a newline", id)
		}
		lines += c.Newlines()
		prev = id
	}
	if s.slab[prev].next != Nil {
		return fmt.Errorf("last chunk %d has next %d", prev, s.slab[prev].next)
	}
	if s.lines != lines+1 {
		return fmt.Errorf("line count %d, want %d", s.lines, lines+1)
	}
	return nil
}
