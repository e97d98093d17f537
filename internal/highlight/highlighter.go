package highlight

import (
	"fmt"

	"github.com/alecthomas/chroma/v2"
)

// Span is a run of bytes within one line sharing a token class.
// Start and End are byte offsets into the line, End exclusive.
type Span struct {
	Class chroma.TokenType
	Start int
	End   int
}

// Len returns the byte length of the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// ParseError reports a lexical problem found while parsing a line.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line+1, e.Column+1, e.Message)
}

// Highlighter defines the interface for incremental syntax highlighters.
//
// ParseLine must be a pure function of the line text and the incoming state:
// it may not look at any other line. That property lets a chunk be re-lexed
// on its own once the end state of the previous chunk is known.
type Highlighter interface {
	// ParseLine tokenizes one line (without its newline) starting from in.
	// It returns the state at the end of the line, the spans covering the
	// line, and any lexical errors.
	ParseLine(line []byte, lineNumber int, in State) (State, []Span, []ParseError)

	// DefaultState returns the state at the start of a document.
	DefaultState() State

	// CopyState returns an independent copy of s.
	CopyState(s State) State

	// DeleteState releases s.
	DeleteState(s State)

	// StateEquivalent reports whether a and b would lex subsequent lines identically.
	StateEquivalent(a, b State) bool

	// Language returns the language this highlighter supports.
	Language() string
}

// Factory creates a fresh highlighter instance for one document.
type Factory func() Highlighter

// ParseLines runs h over every line in lines starting from in. It returns
// the final state and per-line spans.
func ParseLines(h Highlighter, lines [][]byte, firstLine int, in State) (State, [][]Span, []ParseError) {
	state := h.CopyState(in)
	spans := make([][]Span, len(lines))
	var errs []ParseError
	for i, line := range lines {
		next, lineSpans, lineErrs := h.ParseLine(line, firstLine+i, state)
		h.DeleteState(state)
		state = next
		spans[i] = lineSpans
		errs = append(errs, lineErrs...)
	}
	return state, spans, errs
}
