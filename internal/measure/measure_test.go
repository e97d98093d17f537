package measure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonospaceCells(t *testing.T) {
	m := NewMonospace(4)

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"ascii", "hello", 5},
		{"tab at start", "\tx", 5},
		{"tab mid stop", "ab\tc", 5},
		{"wide", "世界", 4},
		{"combining", "é", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Cells([]byte(tt.text)))
		})
	}
}

func TestMonospaceScale(t *testing.T) {
	m := Monospace{CellWidth: 7.5, LineHeight: 16, TabWidth: 8}
	assert.InDelta(t, 22.5, m.MeasureTextWidth([]byte("abc")), 1e-9)
	assert.Equal(t, 16.0, m.TextHeight())
}

func TestWrapLine(t *testing.T) {
	m := NewMonospace(4)

	assert.Equal(t, []int{0}, WrapLine(m, []byte("short"), 10))
	assert.Equal(t, []int{0}, WrapLine(m, []byte("anything"), 0))
	assert.Equal(t, []int{0}, WrapLine(m, nil, 10))

	// Break after the space run.
	assert.Equal(t, []int{0, 6}, WrapLine(m, []byte("hello world"), 8))

	// No space: break at the grapheme that overflows.
	assert.Equal(t, []int{0, 4, 8}, WrapLine(m, []byte("abcdefghij"), 4))

	// A grapheme wider than the limit still gets its own sub-line.
	assert.Equal(t, []int{0, 3}, WrapLine(m, []byte("世世"), 1))
}

func TestSubLine(t *testing.T) {
	starts := []int{0, 4, 8}
	assert.Equal(t, 0, SubLine(starts, 0))
	assert.Equal(t, 0, SubLine(starts, 3))
	assert.Equal(t, 1, SubLine(starts, 4))
	assert.Equal(t, 2, SubLine(starts, 10))
}

func TestColumnAt(t *testing.T) {
	m := NewMonospace(4)

	assert.Equal(t, 0, ColumnAt(m, []byte("hello"), 0))
	assert.Equal(t, 3, ColumnAt(m, []byte("hello"), 3))
	assert.Equal(t, 5, ColumnAt(m, []byte("hello"), 40))
	// 1.5 cells is equally far from 1 and 2; the earlier boundary wins.
	assert.Equal(t, 1, ColumnAt(m, []byte("hello"), 1.5))
	// Inside a wide character snaps to a grapheme boundary.
	assert.Equal(t, 3, ColumnAt(m, []byte("世界"), 2.2))
}
