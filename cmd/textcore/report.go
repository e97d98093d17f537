package main

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"

	"github.com/dshills/textcore/internal/highlight"
	"github.com/dshills/textcore/internal/textfile"
)

// maxMatchLines caps how many matches a report lists.
const maxMatchLines = 50

type report struct {
	File     *textfile.TextFile
	Theme    *highlight.Theme
	Matches  []textfile.Match
	Selected int
}

type classCount struct {
	class chroma.TokenType
	spans int
	bytes int
}

func (r report) Write(w io.Writer) {
	f := r.File
	st := f.Settings()
	lang := st.Language
	if lang == "" {
		lang = "plain text"
	}
	fmt.Fprintf(w, "%s\n", f.Path())
	fmt.Fprintf(w, "  language:    %s\n", lang)
	fmt.Fprintf(w, "  encoding:    %s, %s line endings\n", st.Encoding, st.LineEnding)
	fmt.Fprintf(w, "  size:        %d bytes, %d lines, %d chunks\n", f.Size(), f.LineCount(), f.ChunkCount())

	if counts := r.classes(); len(counts) > 0 {
		fmt.Fprintf(w, "  tokens (%s):\n", r.Theme.Name())
		for _, c := range counts {
			attrs := r.Theme.Colour(c.class)
			if r.Theme.Bold(c.class) {
				attrs = strings.TrimSpace(attrs + " bold")
			}
			if r.Theme.Italic(c.class) {
				attrs = strings.TrimSpace(attrs + " italic")
			}
			fmt.Fprintf(w, "    %-24s %6d spans %8d bytes  %s\n", c.class, c.spans, c.bytes, attrs)
		}
	}

	for _, e := range f.ParseErrors() {
		fmt.Fprintf(w, "  error: %d:%d: %s\n", e.Line+1, e.Column+1, e.Message)
	}

	if r.Matches == nil {
		return
	}
	fmt.Fprintf(w, "  matches:     %d (%d selected)\n", len(r.Matches), r.Selected)
	for i, m := range r.Matches {
		if i == maxMatchLines {
			fmt.Fprintf(w, "    ... %d more\n", len(r.Matches)-i)
			break
		}
		line := f.Line(m.StartLine)
		end := len(line)
		if m.EndLine == m.StartLine {
			end = m.EndCol
		}
		fmt.Fprintf(w, "    %d:%d: %s\n", m.StartLine+1, m.StartCol+1, line[m.StartCol:end])
	}
}

// classes tallies the highlighted spans of every line by token class,
// most frequent first.
func (r report) classes() []classCount {
	byClass := make(map[chroma.TokenType]*classCount)
	for n := range r.File.LineCount() {
		for _, sp := range r.File.Syntax(n) {
			c, ok := byClass[sp.Class]
			if !ok {
				c = &classCount{class: sp.Class}
				byClass[sp.Class] = c
			}
			c.spans++
			c.bytes += sp.Len()
		}
	}
	out := make([]classCount, 0, len(byClass))
	for _, c := range byClass {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b classCount) int {
		if a.spans != b.spans {
			return cmp.Compare(b.spans, a.spans)
		}
		return cmp.Compare(a.class, b.class)
	})
	return out
}
