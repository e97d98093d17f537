package search

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Regex is a compiled regular expression. It holds a left-to-right and a
// right-to-left program so Find and FindLast each scan in their own
// direction. A Regex is safe for concurrent use.
//
// A match attempt that exceeds the timeout counts as no match.
type Regex struct {
	pattern string
	forward *regexp2.Regexp
	reverse *regexp2.Regexp
}

// Compile compiles pattern. ^ and $ match at line boundaries.
func Compile(pattern string, opts Options) (*Regex, error) {
	if pattern == "" {
		return nil, ErrEmptyPattern
	}
	expr := pattern
	if opts.WholeWord {
		expr = `\b(?:` + expr + `)\b`
	}
	flags := regexp2.RegexOptions(regexp2.Multiline)
	if opts.CaseInsensitive {
		flags |= regexp2.IgnoreCase
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	forward, err := regexp2.Compile(expr, flags)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	reverse, err := regexp2.Compile(expr, flags|regexp2.RightToLeft)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	forward.MatchTimeout = timeout
	reverse.MatchTimeout = timeout
	return &Regex{pattern: pattern, forward: forward, reverse: reverse}, nil
}

// Pattern returns the source pattern.
func (r *Regex) Pattern() string {
	return r.pattern
}

// GroupNames returns the names of the capturing groups, "0" first.
func (r *Regex) GroupNames() []string {
	return r.forward.GetGroupNames()
}

// Find returns the leftmost match starting at or after from.
func (r *Regex) Find(text []byte, from int) (Match, bool) {
	rt := decode(text)
	m, err := r.forward.FindRunesMatchStartingAt(rt.runes, rt.runeIndex(from))
	if err != nil || m == nil {
		return Match{}, false
	}
	return rt.convert(m), true
}

// FindLast returns the match found scanning leftward from before; its end
// is at or before before.
func (r *Regex) FindLast(text []byte, before int) (Match, bool) {
	rt := decode(text)
	i := rt.runeIndex(before)
	if i > 0 && rt.offsets[i] > before {
		i--
	}
	m, err := r.reverse.FindRunesMatchStartingAt(rt.runes, i)
	if err != nil || m == nil {
		return Match{}, false
	}
	return rt.convert(m), true
}

// FindAll returns every non-overlapping match in order.
func (r *Regex) FindAll(text []byte) []Match {
	rt := decode(text)
	var out []Match
	m, err := r.forward.FindRunesMatch(rt.runes)
	for err == nil && m != nil {
		out = append(out, rt.convert(m))
		m, err = r.forward.FindNextMatch(m)
	}
	return out
}

// runeText is a text decoded for regexp2, which indexes by rune.
type runeText struct {
	runes []rune
	// offsets[i] is the byte offset of rune i; the final entry is len(text).
	offsets []int
}

func decode(text []byte) runeText {
	rt := runeText{
		runes:   make([]rune, 0, len(text)),
		offsets: make([]int, 0, len(text)+1),
	}
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRune(text[i:])
		rt.runes = append(rt.runes, r)
		rt.offsets = append(rt.offsets, i)
		i += size
	}
	rt.offsets = append(rt.offsets, len(text))
	return rt
}

// runeIndex returns the index of the first rune at or after byte offset off.
func (rt runeText) runeIndex(off int) int {
	if off <= 0 {
		return 0
	}
	return min(sort.SearchInts(rt.offsets, off), len(rt.runes))
}

func (rt runeText) convert(m *regexp2.Match) Match {
	out := Match{
		Start: rt.offsets[m.Index],
		End:   rt.offsets[m.Index+m.Length],
	}
	for _, g := range m.Groups() {
		grp := Group{Name: g.Name}
		if len(g.Captures) > 0 {
			grp.Matched = true
			grp.Start = rt.offsets[g.Index]
			grp.End = rt.offsets[g.Index+g.Length]
		}
		out.Groups = append(out.Groups, grp)
	}
	return out
}

var _ Matcher = (*Regex)(nil)
