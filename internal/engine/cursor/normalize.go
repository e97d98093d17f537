package cursor

import (
	"slices"

	"github.com/dshills/textcore/internal/engine/chunk"
)

// Normalize sorts cursors by document order and merges overlapping or
// abutting ones. The input slice is not modified. Normalizing an already
// normalized set returns an equal set.
func Normalize(s *chunk.Store, cursors []Cursor) []Cursor {
	if len(cursors) == 0 {
		return nil
	}
	out := slices.Clone(cursors)
	if len(out) == 1 {
		return out
	}

	// Sort by begin; on ties the larger range comes first.
	slices.SortStableFunc(out, func(a, b Cursor) int {
		if c := s.Compare(a.Begin(s), b.Begin(s)); c != 0 {
			return c
		}
		return s.Compare(b.Finish(s), a.Finish(s))
	})

	merged := out[:1]
	for _, c := range out[1:] {
		last := &merged[len(merged)-1]
		if last.Overlaps(s, c) {
			*last = last.Merge(s, c)
		} else {
			merged = append(merged, c)
		}
	}
	return merged
}

// Ordered returns true if cursors are in ascending order and no two of
// them overlap.
func Ordered(s *chunk.Store, cursors []Cursor) bool {
	for i := 1; i < len(cursors); i++ {
		if s.Compare(cursors[i-1].Finish(s), cursors[i].Begin(s)) >= 0 {
			return false
		}
	}
	return true
}
