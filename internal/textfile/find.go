package textfile

import (
	"context"
	"errors"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/textcore/internal/engine/chunk"
	"github.com/dshills/textcore/internal/engine/cursor"
	"github.com/dshills/textcore/internal/engine/history"
	"github.com/dshills/textcore/internal/scheduler"
	"github.com/dshills/textcore/internal/search"
)

// Match is a search result in line and byte column form.
type Match struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// found is a match inside one chunk. Matches never span chunks.
type found struct {
	index int
	chunk chunk.ID
	start int
	end   int
}

func compareFound(a, b found) int {
	if a.index != b.index {
		return a.index - b.index
	}
	return a.start - b.start
}

// findState is one find-all search.
type findState struct {
	matcher  search.Matcher
	results  []found
	selected bool
	done     bool
	// epoch is the find epoch the results were gathered under.
	epoch uint64
}

var errSuperseded = errors.New("search superseded")

// FindMatch selects the next match of pattern after the cursors
// (Forward) or the previous one before them (Backward), wrapping around
// the document. It reports whether a match was found.
func (f *TextFile) FindMatch(pattern string, opts search.Options, dir cursor.Direction) (bool, error) {
	if err := f.usable(); err != nil {
		return false, err
	}
	m, err := search.New(pattern, opts)
	if err != nil {
		return false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.findFromLocked(m, dir)
	if ok {
		f.cursors = []cursor.Cursor{cursor.Select(r.Start, r.End)}
	}
	return ok, nil
}

// findFromLocked searches chunk by chunk from the cursors in dir.
func (f *TextFile) findFromLocked(m search.Matcher, dir cursor.Direction) (chunk.Range, bool) {
	s := f.store
	n := s.Count()
	var origin chunk.Position
	if dir == cursor.Backward {
		origin = f.cursors[0].Begin(s)
	} else {
		origin = f.cursors[len(f.cursors)-1].Finish(s)
	}
	idx := s.IndexOf(origin.Chunk)

	for k := 0; k <= n; k++ {
		step := k
		if dir == cursor.Backward {
			step = -k
		}
		i := ((idx+step)%n + n) % n
		id := s.At(i)
		text := s.Get(id).Bytes()

		var (
			mt search.Match
			ok bool
		)
		switch {
		case dir == cursor.Forward && k == 0:
			mt, ok = m.Find(text, origin.Offset)
		case dir == cursor.Forward && k == n:
			// Back at the origin chunk: only what precedes the origin is new.
			mt, ok = m.Find(text, 0)
			ok = ok && mt.Start < origin.Offset
		case dir == cursor.Forward:
			mt, ok = m.Find(text, 0)
		case k == 0:
			mt, ok = m.FindLast(text, origin.Offset)
		case k == n:
			mt, ok = m.FindLast(text, len(text))
			ok = ok && mt.Start >= origin.Offset
		default:
			mt, ok = m.FindLast(text, len(text))
		}
		if ok {
			return chunk.Range{
				Start: s.Canonical(chunk.Position{Chunk: id, Offset: mt.Start}),
				End:   s.Canonical(chunk.Position{Chunk: id, Offset: mt.End}),
			}, true
		}
	}
	return chunk.Range{}, false
}

// FindAll starts a background search for every match of pattern. Chunks
// are scanned outward from the first cursor in both directions at once,
// and the first match at or after the cursor is selected as soon as it is
// found. Results stay current: edits restart the search.
func (f *TextFile) FindAll(pattern string, opts search.Options) error {
	if err := f.usable(); err != nil {
		return err
	}
	m, err := search.New(pattern, opts)
	if err != nil {
		return err
	}
	f.startFind(&findState{matcher: m})
	return nil
}

// startFind installs st as the active search and runs it.
func (f *TextFile) startFind(st *findState) {
	f.findMu.Lock()
	epoch := f.findEpoch.Add(1)
	st.epoch = epoch
	f.find = st
	f.findMu.Unlock()

	if f.sched == nil {
		f.runFind(context.Background(), st, epoch)
		return
	}
	err := f.sched.Schedule(scheduler.Background, "find-all", func(ctx context.Context) {
		f.runFind(ctx, st, epoch)
	})
	if err != nil {
		f.logger.Warn("find-all not scheduled", "err", err)
	}
}

// cancelFind stops the running find-all ahead of an edit and returns the
// active search so it can be restarted once the edit is done.
func (f *TextFile) cancelFind() *findState {
	f.findMu.Lock()
	defer f.findMu.Unlock()
	if f.find == nil {
		return nil
	}
	f.findEpoch.Add(1)
	return f.find
}

// stopFind ends find-all and drops its results.
func (f *TextFile) stopFind() {
	f.findMu.Lock()
	defer f.findMu.Unlock()
	f.findEpoch.Add(1)
	f.find = nil
}

// ClearFind ends find-all and drops its results.
func (f *TextFile) ClearFind() {
	f.stopFind()
}

// afterChange refreshes derived state once an edit has been applied.
func (f *TextFile) afterChange(st *findState) {
	f.scheduleHighlight()
	if st == nil {
		return
	}
	f.findMu.Lock()
	current := f.find == st
	f.findMu.Unlock()
	if current {
		// The cursor belongs to the user again; a refresh never selects.
		f.startFind(&findState{matcher: st.matcher, selected: true})
	}
}

func (f *TextFile) current(st *findState, epoch uint64) bool {
	return f.find == st && f.findEpoch.Load() == epoch
}

func (f *TextFile) runFind(ctx context.Context, st *findState, epoch uint64) {
	f.mu.RLock()
	if f.findEpoch.Load() != epoch {
		f.mu.RUnlock()
		return
	}
	s := f.store
	origin := f.cursors[0].Begin(s)
	start := s.IndexOf(origin.Chunk)
	count := s.Count()
	f.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	scan := func(from, step int) error {
		for i := from; i >= 0 && i < count; i += step {
			if err := gctx.Err(); err != nil {
				return err
			}
			ms, ok := f.searchChunk(st.matcher, i, epoch)
			if !ok {
				return errSuperseded
			}
			// Only the forward scan selects, from the cursor onward.
			first := -1
			switch {
			case step > 0 && i == start:
				first = origin.Offset
			case step > 0:
				first = 0
			}
			f.publish(st, epoch, ms, first)
		}
		return nil
	}
	g.Go(func() error { return scan(start, 1) })
	g.Go(func() error { return scan(start-1, -1) })
	if err := g.Wait(); err != nil {
		f.logger.Debug("find-all stopped", "err", err)
		return
	}

	f.findMu.Lock()
	defer f.findMu.Unlock()
	if !f.current(st, epoch) {
		return
	}
	slices.SortFunc(st.results, compareFound)
	st.done = true
	if !st.selected && len(st.results) > 0 {
		st.selected = f.selectFound(epoch, st.results[0])
	}
	f.logger.Debug("find-all done", "pattern", st.matcher.Pattern(), "matches", len(st.results))
}

// searchChunk returns the matches in chunk i, or false once the search
// is superseded.
func (f *TextFile) searchChunk(m search.Matcher, i int, epoch uint64) ([]found, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.findEpoch.Load() != epoch || f.closed.Load() {
		return nil, false
	}
	id := f.store.At(i)
	var out []found
	for _, mt := range m.FindAll(f.store.Get(id).Bytes()) {
		out = append(out, found{index: i, chunk: id, start: mt.Start, end: mt.End})
	}
	return out, true
}

// publish adds results and selects the first one at or after from when
// from is not negative and nothing is selected yet.
func (f *TextFile) publish(st *findState, epoch uint64, ms []found, from int) {
	f.findMu.Lock()
	defer f.findMu.Unlock()
	if !f.current(st, epoch) {
		return
	}
	st.results = append(st.results, ms...)
	if st.selected || from < 0 {
		return
	}
	for _, m := range ms {
		if m.start >= from {
			st.selected = f.selectFound(epoch, m)
			return
		}
	}
}

// selectFound makes m the only cursor. Called with findMu held.
func (f *TextFile) selectFound(epoch uint64, m found) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findEpoch.Load() != epoch {
		return false
	}
	r := f.foundRange(m)
	f.cursors = []cursor.Cursor{cursor.Select(r.Start, r.End)}
	return true
}

func (f *TextFile) foundRange(m found) chunk.Range {
	s := f.store
	return chunk.Range{
		Start: s.Canonical(chunk.Position{Chunk: m.chunk, Offset: m.start}),
		End:   s.Canonical(chunk.Position{Chunk: m.chunk, Offset: m.end}),
	}
}

// FindRunning reports whether a find-all is still scanning.
func (f *TextFile) FindRunning() bool {
	f.findMu.Lock()
	defer f.findMu.Unlock()
	return f.find != nil && !f.find.done
}

// Matches returns the find-all results found so far in document order.
func (f *TextFile) Matches() []Match {
	f.findMu.Lock()
	defer f.findMu.Unlock()
	// Results from before an edit refer to chunks that may be gone.
	if f.find == nil || f.find.epoch != f.findEpoch.Load() {
		return nil
	}
	results := slices.Clone(f.find.results)
	slices.SortFunc(results, compareFound)

	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Match, 0, len(results))
	for _, m := range results {
		r := f.foundRange(m)
		sl, sc := f.store.LineColumn(r.Start)
		el, ec := f.store.LineColumn(r.End)
		out = append(out, Match{StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec})
	}
	return out
}

// SelectAllMatches waits for find-all to finish and puts a cursor on
// every match.
func (f *TextFile) SelectAllMatches(ctx context.Context) (int, error) {
	if err := f.usable(); err != nil {
		return 0, err
	}
	for {
		f.findMu.Lock()
		st := f.find
		if st == nil {
			f.findMu.Unlock()
			return 0, ErrNoSearch
		}
		if st.done && st.epoch == f.findEpoch.Load() {
			n := f.selectAllLocked(st, st.epoch)
			f.findMu.Unlock()
			return n, nil
		}
		f.findMu.Unlock()

		if err := ctx.Err(); err != nil {
			return 0, err
		}
		runtime.Gosched()
	}
}

// selectAllLocked puts a cursor on each result. Called with findMu held.
func (f *TextFile) selectAllLocked(st *findState, epoch uint64) int {
	if len(st.results) == 0 {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findEpoch.Load() != epoch {
		return 0
	}
	cs := make([]cursor.Cursor, len(st.results))
	for i, m := range st.results {
		r := f.foundRange(m)
		cs[i] = cursor.Select(r.Start, r.End)
	}
	f.cursors = cursor.Normalize(f.store, cs)
	return len(f.cursors)
}

// ReplaceMatch replaces the selection with the expansion of replacement
// if it is exactly a match of pattern, then selects the next match. If the
// selection is not a match, the next match is selected and nothing is
// replaced. Replacement may refer to groups as $1 or ${name}.
func (f *TextFile) ReplaceMatch(pattern string, opts search.Options, replacement string) (bool, error) {
	if err := f.editable(); err != nil {
		return false, err
	}
	m, err := search.New(pattern, opts)
	if err != nil {
		return false, err
	}

	f.mu.RLock()
	sel := f.cursors[len(f.cursors)-1].Text(f.store)
	single := len(f.cursors) == 1
	f.mu.RUnlock()

	mt, ok := m.Find(sel, 0)
	if !single || !ok || mt.Start != 0 || mt.End != len(sel) || len(sel) == 0 {
		_, err := f.FindMatch(pattern, opts, cursor.Forward)
		return false, err
	}
	if err := f.InsertText(search.Expand(mt, sel, replacement)); err != nil {
		return false, err
	}
	_, err = f.FindMatch(pattern, opts, cursor.Forward)
	return true, err
}

// ReplaceAll replaces every match of pattern with the expansion of
// replacement as one undo step and returns the number of replacements.
func (f *TextFile) ReplaceAll(pattern string, opts search.Options, replacement string) (int, error) {
	m, err := search.New(pattern, opts)
	if err != nil {
		return 0, err
	}
	n := 0
	d := history.New(history.AddText)
	d.Text = replacement
	err = f.perform(d, func(t *tx) {
		s := t.s
		ids := s.IDs()
		for i := len(ids) - 1; i >= 0; i-- {
			id := ids[i]
			text := s.Get(id).Bytes()
			ms := m.FindAll(text)
			repl := make([]string, len(ms))
			for j, mt := range ms {
				repl[j] = search.Expand(mt, text, replacement)
			}
			// Later matches first, so earlier offsets in the chunk stay put.
			for j := len(ms) - 1; j >= 0; j-- {
				t.replace(chunk.Position{Chunk: id, Offset: ms[j].Start}, chunk.Position{Chunk: id, Offset: ms[j].End}, repl[j])
				n++
			}
		}
	})
	if err == nil && n > 0 {
		f.logger.Debug("replaced all", "pattern", pattern, "count", n)
	}
	return n, err
}
