package search

import (
	"bytes"
	"unicode"
	"unicode/utf8"
)

// Plain matches a literal string. When case-insensitive, both the needle
// and the text are lowercased before comparing; characters whose
// lowercase form has a different encoded length are compared as is, so
// offsets into the lowered text are offsets into the original.
type Plain struct {
	pattern         string
	needle          []byte
	caseInsensitive bool
	wholeWord       bool
}

// NewPlain creates a literal matcher.
func NewPlain(pattern string, opts Options) *Plain {
	p := &Plain{
		pattern:         pattern,
		needle:          []byte(pattern),
		caseInsensitive: opts.CaseInsensitive,
		wholeWord:       opts.WholeWord,
	}
	if p.caseInsensitive {
		p.needle = lower(p.needle)
	}
	return p
}

// Pattern returns the source pattern.
func (p *Plain) Pattern() string {
	return p.pattern
}

func (p *Plain) prepare(text []byte) []byte {
	if p.caseInsensitive {
		return lower(text)
	}
	return text
}

// Find returns the leftmost match starting at or after from.
func (p *Plain) Find(text []byte, from int) (Match, bool) {
	if len(p.needle) == 0 || from > len(text) {
		return Match{}, false
	}
	from = max(from, 0)
	hay := p.prepare(text)
	for from <= len(hay) {
		i := bytes.Index(hay[from:], p.needle)
		if i < 0 {
			return Match{}, false
		}
		start := from + i
		end := start + len(p.needle)
		if p.accept(text, start, end) {
			return wholeMatch(start, end), true
		}
		from = start + 1
	}
	return Match{}, false
}

// FindLast returns the rightmost match ending at or before before.
func (p *Plain) FindLast(text []byte, before int) (Match, bool) {
	if len(p.needle) == 0 {
		return Match{}, false
	}
	before = min(before, len(text))
	hay := p.prepare(text)
	for before >= len(p.needle) {
		i := bytes.LastIndex(hay[:before], p.needle)
		if i < 0 {
			return Match{}, false
		}
		end := i + len(p.needle)
		if p.accept(text, i, end) {
			return wholeMatch(i, end), true
		}
		before = end - 1
	}
	return Match{}, false
}

// FindAll returns every non-overlapping match in order.
func (p *Plain) FindAll(text []byte) []Match {
	if len(p.needle) == 0 {
		return nil
	}
	hay := p.prepare(text)
	var out []Match
	for from := 0; from <= len(hay); {
		i := bytes.Index(hay[from:], p.needle)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(p.needle)
		if p.accept(text, start, end) {
			out = append(out, wholeMatch(start, end))
			from = end
		} else {
			from = start + 1
		}
	}
	return out
}

// accept applies the whole-word restriction.
func (p *Plain) accept(text []byte, start, end int) bool {
	if !p.wholeWord {
		return true
	}
	if start > 0 {
		r, _ := utf8.DecodeLastRune(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRune(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// lower lowercases b without changing any character's encoded length.
func lower(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r < utf8.RuneSelf {
			if 'A' <= r && r <= 'Z' {
				r += 'a' - 'A'
			}
			out = append(out, byte(r))
		} else if l := unicode.ToLower(r); r != utf8.RuneError && utf8.RuneLen(l) == size {
			out = utf8.AppendRune(out, l)
		} else {
			out = append(out, b[i:i+size]...)
		}
		i += size
	}
	return out
}

var _ Matcher = (*Plain)(nil)
