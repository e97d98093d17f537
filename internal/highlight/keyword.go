package highlight

import (
	"bytes"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
)

// TokenRule describes a delimited token such as a string or comment.
type TokenRule struct {
	// Start is the marker that opens the token.
	Start string

	// End is the marker that closes the token. An empty End closes the
	// token at the end of the line (line comments).
	End string

	// Class is the token class assigned to the whole token, markers included.
	Class chroma.TokenType

	// Escape, when non-zero, makes the byte following it part of the token
	// even if it would start End.
	Escape byte

	// MultiLine lets the token continue onto following lines. A token that
	// is not MultiLine and reaches the end of the line without its End
	// marker is closed there and reported as a parse error.
	MultiLine bool
}

// keywordState is the state carried between lines. A zero rule index
// below zero means the lexer is in its default state.
type keywordState struct {
	rule   int
	end    string
	escape byte
}

var defaultKeywordState = keywordState{rule: -1}

var keywordStateOps = StateOps{
	Equal: func(a, b any) bool {
		sa, ok1 := a.(keywordState)
		sb, ok2 := b.(keywordState)
		return ok1 && ok2 && sa == sb
	},
}

// KeywordHighlighter is a table driven highlighter: runs of identifier
// bytes are looked up in a keyword table, and delimited tokens are
// recognised from a set of TokenRules. It holds no per-document state
// and is safe for concurrent use once configured.
type KeywordHighlighter struct {
	language string
	keywords map[string]chroma.TokenType
	rules    []TokenRule
	numbers  bool
}

// NewKeywordHighlighter creates an empty highlighter for language.
func NewKeywordHighlighter(language string) *KeywordHighlighter {
	return &KeywordHighlighter{
		language: language,
		keywords: make(map[string]chroma.TokenType),
	}
}

// AddKeywords adds keywords with a specific token class.
func (h *KeywordHighlighter) AddKeywords(class chroma.TokenType, keywords ...string) *KeywordHighlighter {
	for _, kw := range keywords {
		h.keywords[kw] = class
	}
	return h
}

// AddToken registers a delimited token rule.
func (h *KeywordHighlighter) AddToken(rule TokenRule) *KeywordHighlighter {
	if rule.Start == "" {
		panic("highlight: token rule with empty start marker")
	}
	h.rules = append(h.rules, rule)
	return h
}

// WithNumbers classifies identifier runs that begin with a digit as numbers.
func (h *KeywordHighlighter) WithNumbers() *KeywordHighlighter {
	h.numbers = true
	return h
}

// Language returns the language name.
func (h *KeywordHighlighter) Language() string {
	return h.language
}

// DefaultState returns the state at the start of a document.
func (h *KeywordHighlighter) DefaultState() State {
	return NewState(defaultKeywordState, keywordStateOps)
}

// CopyState returns a copy of s.
func (h *KeywordHighlighter) CopyState(s State) State {
	return s.Clone()
}

// DeleteState is a no-op; keyword states are plain values.
func (h *KeywordHighlighter) DeleteState(State) {}

// StateEquivalent compares the active token, its end marker and escape byte.
func (h *KeywordHighlighter) StateEquivalent(a, b State) bool {
	return a.Equivalent(b)
}

// Factory returns a Factory sharing this configured highlighter.
func (h *KeywordHighlighter) Factory() Factory {
	return func() Highlighter { return h }
}

// ParseLine tokenizes a single line.
func (h *KeywordHighlighter) ParseLine(line []byte, lineNumber int, in State) (State, []Span, []ParseError) {
	st := defaultKeywordState
	if v, ok := in.Value().(keywordState); ok {
		st = v
	}

	var (
		b    spanBuilder
		errs []ParseError
		i    int
	)

	if st.rule >= 0 {
		end, closed := scanTokenEnd(line, 0, st.end, st.escape)
		b.add(h.rules[st.rule].Class, 0, end)
		if !closed {
			return NewState(st, keywordStateOps), b.spans, nil
		}
		i = end
		st = defaultKeywordState
	}

	for i < len(line) {
		if r := h.matchRule(line, i); r >= 0 {
			rule := h.rules[r]
			start := i
			i += len(rule.Start)
			if rule.End == "" {
				b.add(rule.Class, start, len(line))
				i = len(line)
				continue
			}
			end, closed := scanTokenEnd(line, i, rule.End, rule.Escape)
			b.add(rule.Class, start, end)
			i = end
			if !closed {
				if rule.MultiLine {
					st = keywordState{rule: r, end: rule.End, escape: rule.Escape}
				} else {
					errs = append(errs, ParseError{
						Line:    lineNumber,
						Column:  start,
						Message: "unterminated " + rule.Class.String(),
					})
				}
			}
			continue
		}

		c := line[i]
		switch {
		case c >= utf8.RuneSelf:
			_, size := utf8.DecodeRune(line[i:])
			b.add(chroma.Text, i, i+size)
			i += size
		case isWordByte(c):
			j := i + 1
			for j < len(line) && isWordByte(line[j]) {
				j++
			}
			class := chroma.Text
			if kw, ok := h.keywords[string(line[i:j])]; ok {
				class = kw
			} else if h.numbers && c >= '0' && c <= '9' {
				class = chroma.LiteralNumber
			}
			b.add(class, i, j)
			i = j
		default:
			b.add(chroma.Text, i, i+1)
			i++
		}
	}

	return NewState(st, keywordStateOps), b.spans, errs
}

// matchRule returns the index of the rule with the longest start marker
// beginning at line[i], or -1.
func (h *KeywordHighlighter) matchRule(line []byte, i int) int {
	best, bestLen := -1, 0
	for r, rule := range h.rules {
		if len(rule.Start) > bestLen && bytes.HasPrefix(line[i:], []byte(rule.Start)) {
			best, bestLen = r, len(rule.Start)
		}
	}
	return best
}

// scanTokenEnd finds the end of a token opened before from. It returns
// the offset just past the end marker and true, or len(line) and false.
func scanTokenEnd(line []byte, from int, end string, escape byte) (int, bool) {
	marker := []byte(end)
	for j := from; j < len(line); {
		if escape != 0 && line[j] == escape {
			j += 2
			continue
		}
		if bytes.HasPrefix(line[j:], marker) {
			return j + len(marker), true
		}
		j++
	}
	return len(line), false
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// spanBuilder accumulates spans, coalescing adjacent runs of one class.
type spanBuilder struct {
	spans []Span
}

func (b *spanBuilder) add(class chroma.TokenType, start, end int) {
	if end <= start {
		return
	}
	if n := len(b.spans); n > 0 {
		last := &b.spans[n-1]
		if last.Class == class && last.End == start {
			last.End = end
			return
		}
	}
	b.spans = append(b.spans, Span{Class: class, Start: start, End: end})
}
