package cursor

import (
	"unicode"
	"unicode/utf8"

	"github.com/dshills/textcore/internal/engine/chunk"
)

// Class is the coarse character class used by word motion.
type Class int

// Character classes.
const (
	Whitespace Class = iota
	Punctuation
	Text
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case Whitespace:
		return "whitespace"
	case Punctuation:
		return "punctuation"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// CharacterClass classifies r. Letters, digits, marks and underscore are
// text; spaces are whitespace; everything else is punctuation.
func CharacterClass(r rune) Class {
	switch {
	case unicode.IsSpace(r):
		return Whitespace
	case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
		return Text
	default:
		return Punctuation
	}
}

// runeAfter decodes the code point starting at p. It returns size 0 at the
// end of the document.
func runeAfter(s *chunk.Store, p chunk.Position) (rune, int) {
	p = s.Canonical(p)
	data := s.Get(p.Chunk).Bytes()[p.Offset:]
	if len(data) == 0 {
		return 0, 0
	}
	return utf8.DecodeRune(data)
}

// runeBefore decodes the code point ending at p. It returns size 0 at the
// start of the document. Chunks hold whole lines, so a code point never
// straddles two chunks.
func runeBefore(s *chunk.Store, p chunk.Position) (rune, int) {
	c := s.Get(p.Chunk)
	data := c.Bytes()[:p.Offset]
	if len(data) == 0 {
		if c.Prev() == chunk.Nil {
			return 0, 0
		}
		data = s.Get(c.Prev()).Bytes()
		if len(data) == 0 {
			return 0, 0
		}
	}
	return utf8.DecodeLastRune(data)
}

// scanForward advances from p over code points of class cls, stopping at
// a newline or the end of the document.
func scanForward(s *chunk.Store, p chunk.Position, cls Class) chunk.Position {
	for {
		r, size := runeAfter(s, p)
		if size == 0 || r == '\n' || CharacterClass(r) != cls {
			return p
		}
		p = s.Advance(p, size)
	}
}

// scanBackward is scanForward in the other direction.
func scanBackward(s *chunk.Store, p chunk.Position, cls Class) chunk.Position {
	for {
		r, size := runeBefore(s, p)
		if size == 0 || r == '\n' || CharacterClass(r) != cls {
			return p
		}
		p = s.Retreat(p, size)
	}
}
