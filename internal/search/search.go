// Package search finds text in byte slices for the document engine.
//
// Two matchers are provided: Regex, backed by regexp2 so both leftmost
// and rightmost matches can be found and named groups expanded, and
// Plain, a literal matcher. Offsets are byte offsets into the searched
// text in both cases.
package search

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTimeout bounds a single regex match attempt.
const DefaultTimeout = 5 * time.Second

// Options configures matching.
type Options struct {
	// CaseInsensitive ignores letter case.
	CaseInsensitive bool

	// Regex treats the pattern as a regular expression.
	Regex bool

	// WholeWord only accepts matches bounded by non-word characters.
	WholeWord bool

	// Timeout bounds a single regex match attempt; zero means DefaultTimeout.
	Timeout time.Duration
}

// Group is one capturing group of a match.
type Group struct {
	Name    string
	Start   int
	End     int
	Matched bool
}

// Match is a match located in a text. Groups[0] is the whole match.
type Match struct {
	Start  int
	End    int
	Groups []Group
}

// Len returns the byte length of the match.
func (m Match) Len() int {
	return m.End - m.Start
}

// Group returns the group with the given name or number.
func (m Match) Group(name string) (Group, bool) {
	for _, g := range m.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// Matcher locates matches within a text.
type Matcher interface {
	// Find returns the leftmost match starting at or after from.
	Find(text []byte, from int) (Match, bool)

	// FindLast returns the rightmost match ending at or before before.
	FindLast(text []byte, before int) (Match, bool)

	// FindAll returns every non-overlapping match in order.
	FindAll(text []byte) []Match

	// Pattern returns the source pattern.
	Pattern() string
}

// New compiles pattern into a Matcher according to opts.
func New(pattern string, opts Options) (Matcher, error) {
	if pattern == "" {
		return nil, ErrEmptyPattern
	}
	if opts.Regex {
		return Compile(pattern, opts)
	}
	return NewPlain(pattern, opts), nil
}

// Expand renders template for m. "$n" and "${n}" insert numbered groups,
// "${name}" a named group and "$$" a literal dollar sign. Unknown or
// unmatched groups expand to nothing.
func Expand(m Match, text []byte, template string) string {
	out := make([]byte, 0, len(template))
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '$' || i+1 == len(template) {
			out = append(out, c)
			continue
		}
		rest := template[i+1:]
		switch {
		case rest[0] == '$':
			out = append(out, '$')
			i++
		case rest[0] == '{':
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				out = append(out, c)
				continue
			}
			out = appendGroup(out, m, text, rest[1:end])
			i += end + 1
		case isDigit(rest[0]):
			n := 0
			for n < len(rest) && isDigit(rest[n]) {
				n++
			}
			out = appendGroup(out, m, text, rest[:n])
			i += n
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func appendGroup(out []byte, m Match, text []byte, name string) []byte {
	g, ok := m.Group(name)
	if !ok || !g.Matched {
		return out
	}
	return append(out, text[g.Start:g.End]...)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// wholeMatch builds a match without sub-groups.
func wholeMatch(start, end int) Match {
	return Match{
		Start:  start,
		End:    end,
		Groups: []Group{{Name: "0", Start: start, End: end, Matched: true}},
	}
}

func (m Match) String() string {
	return fmt.Sprintf("[%d,%d)", m.Start, m.End)
}
