package chunk

import (
	"bytes"
	"fmt"

	"github.com/dshills/textcore/internal/highlight"
)

// Chunk size constants control the granularity of text storage.
const (
	// DefaultCapacity is the byte capacity of a freshly allocated chunk.
	DefaultCapacity = 4096

	// MinCapacity is the smallest capacity a store accepts.
	MinCapacity = 16

	// loadFill is the fraction of capacity filled when building from a file,
	// leaving room for typing before the first split.
	loadFillNum, loadFillDen = 3, 4
)

// ID is a stable handle to a chunk inside a Store. Handles stay valid
// until the chunk is merged away or removed by an edit.
type ID int32

// Nil is the ID of no chunk.
const Nil ID = -1

// Chunk is a bounded byte buffer holding a contiguous run of complete
// lines. Every chunk except the last ends with a newline.
//
// Parsed, State, Syntax, Errors and Widths are caches owned by the document that
// owns the store; the store only invalidates them when the bytes change.
type Chunk struct {
	data      []byte
	capacity  int
	startLine int
	prev      ID
	next      ID

	// Parsed is set once Syntax and State reflect the current bytes.
	Parsed bool

	// State is the highlighter state at the end of the chunk's last line.
	State highlight.State

	// Syntax holds the spans of each line in the chunk.
	Syntax [][]highlight.Span

	// Errors holds lexical errors found in the chunk, by document line.
	Errors []highlight.ParseError

	// Widths caches the rendered width of each line; nil when stale.
	Widths []float64
}

func newChunk(data []byte, capacity int) *Chunk {
	if len(data) > capacity {
		capacity = len(data)
	}
	buf := make([]byte, len(data), capacity)
	copy(buf, data)
	return &Chunk{data: buf, capacity: capacity, prev: Nil, next: Nil}
}

// Bytes returns the chunk's content. The slice is only valid until the
// next edit and must not be modified.
func (c *Chunk) Bytes() []byte {
	return c.data
}

// Len returns the number of bytes in use.
func (c *Chunk) Len() int {
	return len(c.data)
}

// Capacity returns the chunk's byte capacity.
func (c *Chunk) Capacity() int {
	return c.capacity
}

// StartLine returns the absolute line number of the chunk's first line.
func (c *Chunk) StartLine() int {
	return c.startLine
}

// Prev returns the previous chunk, or Nil.
func (c *Chunk) Prev() ID {
	return c.prev
}

// Next returns the next chunk, or Nil.
func (c *Chunk) Next() ID {
	return c.next
}

// Newlines returns the number of newline bytes in the chunk.
func (c *Chunk) Newlines() int {
	return bytes.Count(c.data, newline)
}

// invalidate drops every cache derived from the chunk's bytes.
func (c *Chunk) invalidate() {
	c.Parsed = false
	c.Syntax = nil
	c.Errors = nil
	c.Widths = nil
}

// insertText splices text into the chunk at offset. The caller guarantees
// the result fits the capacity.
func (c *Chunk) insertText(offset int, text []byte) {
	if offset < 0 || offset > len(c.data) {
		panic(fmt.Sprintf("chunk: insert offset %d out of range [0,%d]", offset, len(c.data)))
	}
	if len(c.data)+len(text) > c.capacity {
		panic(fmt.Sprintf("chunk: insert of %d bytes overflows capacity %d", len(text), c.capacity))
	}
	n := len(c.data)
	c.data = c.data[:n+len(text)]
	copy(c.data[offset+len(text):], c.data[offset:n])
	copy(c.data[offset:], text)
}

// deleteLines removes data[start:end] and returns how many newlines it held.
func (c *Chunk) deleteLines(start, end int) int {
	if start < 0 || end > len(c.data) || start > end {
		panic(fmt.Sprintf("chunk: delete range [%d,%d) out of range [0,%d]", start, end, len(c.data)))
	}
	removed := bytes.Count(c.data[start:end], newline)
	c.data = append(c.data[:start], c.data[end:]...)
	return removed
}

// grow extends the capacity to hold at least need bytes, by at least 20%.
func (c *Chunk) grow(need int) {
	capacity := c.capacity + c.capacity/5
	if need > capacity {
		capacity = need
	}
	buf := make([]byte, len(c.data), capacity)
	copy(buf, c.data)
	c.data = buf
	c.capacity = capacity
}

// reset replaces the content with a fresh buffer of the given capacity,
// or of len(data) when that is larger.
func (c *Chunk) reset(data []byte, capacity int) {
	if len(data) > capacity {
		capacity = len(data)
	}
	buf := make([]byte, len(data), capacity)
	copy(buf, data)
	c.data = buf
	c.capacity = capacity
}

// setData replaces the content, growing capacity when needed.
func (c *Chunk) setData(data []byte) {
	if len(data) > c.capacity {
		c.grow(len(data))
	}
	c.data = append(c.data[:0], data...)
}

var newline = []byte{'\n'}
