package chunk

import "bytes"

// Builder assembles a Store from a stream of bytes, packing whole lines
// into chunks filled to three quarters of capacity. It is used when
// loading a file so the chain is built once, without repeated splits.
type Builder struct {
	capacity int
	fill     int
	cur      []byte
	chunks   [][]byte
}

// NewBuilder creates a builder for chunks of the given capacity.
func NewBuilder(capacity int) *Builder {
	if capacity < MinCapacity {
		capacity = DefaultCapacity
	}
	return &Builder{
		capacity: capacity,
		fill:     capacity * loadFillNum / loadFillDen,
	}
}

// Write appends data, which may contain any number of lines and may end
// mid-line. Line endings must already be normalized to '\n'.
func (b *Builder) Write(data []byte) {
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			b.cur = append(b.cur, data...)
			return
		}
		b.cur = append(b.cur, data[:i+1]...)
		data = data[i+1:]
		b.endLine()
	}
}

// endLine is called after a newline; it starts a new chunk when the
// current one has reached the fill level. The last line is kept in cur
// so an over-long line never shares a chunk.
func (b *Builder) endLine() {
	if len(b.cur) < b.fill {
		return
	}
	// Move any complete lines beyond the fill level into their own chunk.
	cut := len(b.cur)
	if cut > b.capacity {
		if j := bytes.LastIndexByte(b.cur[:len(b.cur)-1], '\n'); j >= 0 {
			cut = j + 1
		}
	}
	b.chunks = append(b.chunks, b.cur[:cut:cut])
	b.cur = append([]byte(nil), b.cur[cut:]...)
	if len(b.cur) >= b.fill {
		b.chunks = append(b.chunks, b.cur)
		b.cur = nil
	}
}

// Store finishes the build. The builder must not be used afterwards.
func (b *Builder) Store() *Store {
	parts := append(b.chunks, b.cur)
	if len(parts) > 1 && len(b.cur) == 0 {
		// The text ended with a newline; the final empty line lives at the
		// end of the previous chunk.
		parts = parts[:len(parts)-1]
	}

	s := newStore(b.capacity)
	line := 0
	prev := Nil
	for _, p := range parts {
		c := newChunk(p, s.capacity)
		c.startLine = line
		line += c.Newlines()
		c.prev = prev
		id := s.alloc(c)
		if prev != Nil {
			s.slab[prev].next = id
		}
		s.order = append(s.order, id)
		prev = id
	}
	s.lines = line + 1
	b.chunks, b.cur = nil, nil
	return s
}
