package textfile

import (
	"context"
	"slices"

	"github.com/dshills/textcore/internal/highlight"
	"github.com/dshills/textcore/internal/scheduler"
)

// scheduleHighlight queues a background pass over every unparsed chunk.
// Without a scheduler the pass runs now.
func (f *TextFile) scheduleHighlight() {
	f.mu.RLock()
	h := f.highlighter
	f.mu.RUnlock()
	if h == nil || f.closed.Load() {
		return
	}

	epoch := f.epoch.Load()
	if f.sched == nil {
		f.highlightChunks(context.Background(), epoch, -1)
		return
	}
	err := f.sched.Schedule(scheduler.Background, "highlight", func(ctx context.Context) {
		f.highlightChunks(ctx, epoch, -1)
	})
	if err != nil {
		f.logger.Warn("highlighting not scheduled", "err", err)
	}
}

// highlightChunks re-lexes unparsed chunks in document order, at most
// limit of them when limit is not negative. A chunk whose end state
// changed marks its successor unparsed, so changes propagate until the
// state converges. It returns false if an edit superseded the pass.
func (f *TextFile) highlightChunks(ctx context.Context, epoch uint64, limit int) bool {
	done := 0
	for i := 0; ; i++ {
		if limit >= 0 && done >= limit {
			return true
		}
		if f.beforeChunk != nil {
			f.beforeChunk(i)
		}
		if ctx.Err() != nil || f.epoch.Load() != epoch {
			f.logger.Debug("highlighting superseded", "chunk", i)
			return false
		}

		f.mu.Lock()
		// Edits bump the epoch before taking the lock, so an unchanged
		// epoch here means the text is the one this pass started on.
		if f.epoch.Load() != epoch || f.closed.Load() {
			f.mu.Unlock()
			return false
		}
		h, s := f.highlighter, f.store
		if h == nil || i >= s.Count() {
			f.mu.Unlock()
			return true
		}
		id := s.At(i)
		c := s.Get(id)
		if c.Parsed {
			f.mu.Unlock()
			continue
		}

		var in highlight.State
		if i > 0 {
			in = s.Get(s.At(i - 1)).State.Clone()
		}
		if in.IsZero() {
			in = h.DefaultState()
		}
		out, spans, errs := highlight.ParseLines(h, s.Lines(id), c.StartLine(), in)
		in.Release()
		converged := out.Equivalent(c.State)
		c.State.Release()
		c.State = out
		c.Syntax = spans
		c.Errors = errs
		c.Parsed = true
		if !converged && i+1 < s.Count() {
			next := s.Get(s.At(i + 1))
			next.Parsed = false
		}
		f.mu.Unlock()
		done++
	}
}

// Syntax returns the highlighting spans of line n, or nil while the
// line's chunk waits to be highlighted.
func (f *TextFile) Syntax(n int) []highlight.Span {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if n < 0 || n >= f.store.LineCount() {
		return nil
	}
	c := f.store.Get(f.store.ChunkForLine(n))
	if !c.Parsed || c.Syntax == nil {
		return nil
	}
	return slices.Clone(c.Syntax[n-c.StartLine()])
}

// ParseErrors returns the lexical errors of every highlighted chunk in
// line order.
func (f *TextFile) ParseErrors() []highlight.ParseError {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []highlight.ParseError
	for _, id := range f.store.IDs() {
		if c := f.store.Get(id); c.Parsed {
			out = append(out, c.Errors...)
		}
	}
	return out
}

// Highlighted reports whether every chunk is highlighted. A document
// without a language is always highlighted.
func (f *TextFile) Highlighted() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.highlighter == nil {
		return true
	}
	for _, id := range f.store.IDs() {
		if !f.store.Get(id).Parsed {
			return false
		}
	}
	return true
}
