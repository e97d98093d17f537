package measure

import (
	"math"

	"github.com/rivo/uniseg"
)

// WrapLine breaks line into sub-lines no wider than width and returns the
// byte offset at which each sub-line starts; the first is always 0. Breaks
// prefer the position after a run of spaces and fall back to a grapheme
// boundary. Every sub-line holds at least one grapheme, and a width of
// zero or less disables wrapping.
func WrapLine(m Measurer, line []byte, width float64) []int {
	starts := []int{0}
	if width <= 0 || len(line) == 0 {
		return starts
	}

	start := 0      // start of the current sub-line
	lastSpace := -1 // offset just after the last space run in the sub-line
	off := 0
	state := -1
	rest := line
	for len(rest) > 0 {
		var cluster []byte
		cluster, rest, _, state = uniseg.FirstGraphemeCluster(rest, state)
		end := off + len(cluster)
		if off > start && m.MeasureTextWidth(line[start:end]) > width {
			brk := off
			if lastSpace > start {
				brk = lastSpace
			}
			starts = append(starts, brk)
			start = brk
			lastSpace = -1
		}
		if cluster[0] == ' ' || cluster[0] == '\t' {
			lastSpace = end
		}
		off = end
	}
	return starts
}

// SubLine returns the index of the sub-line holding byte column col. A
// column exactly at a break belongs to the later sub-line.
func SubLine(starts []int, col int) int {
	i := 0
	for i+1 < len(starts) && starts[i+1] <= col {
		i++
	}
	return i
}

// ColumnAt returns the byte offset in text, on a grapheme boundary, whose
// prefix width is closest to x. Ties go to the earlier boundary.
func ColumnAt(m Measurer, text []byte, x float64) int {
	if x <= 0 {
		return 0
	}
	best, bestDist := 0, math.Abs(x)
	off := 0
	state := -1
	rest := text
	for len(rest) > 0 {
		var cluster []byte
		cluster, rest, _, state = uniseg.FirstGraphemeCluster(rest, state)
		off += len(cluster)
		d := math.Abs(m.MeasureTextWidth(text[:off]) - x)
		if d < bestDist {
			best, bestDist = off, d
		}
	}
	return best
}
