package textfile

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/textcore/internal/engine/chunk"
	"github.com/dshills/textcore/internal/engine/cursor"
	"github.com/dshills/textcore/internal/engine/history"
	"github.com/dshills/textcore/internal/highlight"
	"github.com/dshills/textcore/internal/measure"
	"github.com/dshills/textcore/internal/scheduler"
	"github.com/dshills/textcore/internal/vfs"
)

// State is the load state of a document.
type State int32

// Load states.
const (
	Loading State = iota
	Loaded
	LoadFailed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadFailed:
		return "load failed"
	default:
		return "unknown"
	}
}

// TextFile is an open document.
type TextFile struct {
	id uuid.UUID

	fs       vfs.FS
	sched    *scheduler.Scheduler
	logger   *slog.Logger
	registry *highlight.Registry
	measurer measure.Measurer

	chunkSize         int
	maxUndo           int
	syncHighlight     int
	syncLoadThreshold int64
	readOnly          bool

	// mu guards everything below it up to history, and the chunk caches.
	mu          sync.RWMutex
	path        string
	store       *chunk.Store
	cursors     []cursor.Cursor
	settings    Settings
	highlighter highlight.Highlighter
	flags       vfs.FileFlags
	wrapWidth   float64
	loadErr     error
	// revision counts changes to the text.
	revision uint64

	// groupBefore is the cursor set at the start of the open group; the
	// first delta pushed in the group records it as its Before set.
	groupBefore    []cursor.Data
	hasGroupBefore bool

	history *history.History

	state    atomic.Int32
	progress atomic.Uint64
	loaded   chan struct{}
	closed   atomic.Bool
	unsaved  atomic.Bool
	external atomic.Bool

	// epoch is bumped before every change to the text. Background tasks
	// stop once it differs from the value they started with.
	epoch atomic.Uint64

	findMu    sync.Mutex
	find      *findState
	findEpoch atomic.Uint64

	// beforeChunk is called before each step of a highlighting pass.
	beforeChunk func(i int)
}

func newFile(opts []Option) *TextFile {
	f := &TextFile{
		id:                uuid.New(),
		fs:                vfs.OS{},
		logger:            slog.Default(),
		registry:          highlight.DefaultRegistry(),
		measurer:          measure.NewMonospace(0),
		chunkSize:         DefaultChunkSize,
		maxUndo:           DefaultMaxUndo,
		syncHighlight:     DefaultSyncHighlightChunks,
		syncLoadThreshold: DefaultSyncLoadThreshold,
		settings:          DefaultSettings(),
		loaded:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	if m, ok := f.measurer.(measure.Monospace); ok && f.settings.TabWidth > 0 {
		m.TabWidth = f.settings.TabWidth
		f.measurer = m
	}
	f.logger = f.logger.With("doc", f.id.String())
	f.store = chunk.New(f.chunkSize)
	f.cursors = []cursor.Cursor{cursor.At(f.store.Start())}
	f.history = history.NewHistory(f.maxUndo)
	if f.settings.Language != "" {
		if err := f.useLanguage(f.settings.Language); err != nil {
			f.logger.Warn("unknown language", "language", f.settings.Language)
			f.settings.Language = ""
		}
	}
	return f
}

// New creates an empty, untitled document.
func New(opts ...Option) *TextFile {
	f := newFile(opts)
	f.finishLoad(Loaded, nil)
	return f
}

// FromText creates an untitled document holding text.
func FromText(text string, opts ...Option) *TextFile {
	f := newFile(opts)
	f.store = chunk.FromBytes([]byte(text), f.chunkSize)
	f.cursors = []cursor.Cursor{cursor.At(f.store.Start())}
	f.highlightChunks(context.Background(), f.epoch.Load(), f.syncHighlight)
	f.finishLoad(Loaded, nil)
	f.scheduleHighlight()
	return f
}

// ID returns the document's unique identifier.
func (f *TextFile) ID() uuid.UUID {
	return f.id
}

// Path returns the file path, or "" for an untitled document.
func (f *TextFile) Path() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.path
}

// State returns the load state.
func (f *TextFile) State() State {
	return State(f.state.Load())
}

// LoadError returns why loading failed, or nil.
func (f *TextFile) LoadError() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loadErr
}

// LoadProgress returns the fraction of the file read so far, from 0 to 1.
func (f *TextFile) LoadProgress() float64 {
	return math.Float64frombits(f.progress.Load())
}

func (f *TextFile) setProgress(p float64) {
	f.progress.Store(math.Float64bits(p))
}

// WaitLoaded blocks until loading has finished and returns the load error.
func (f *TextFile) WaitLoaded(ctx context.Context) error {
	select {
	case <-f.loaded:
		return f.LoadError()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *TextFile) finishLoad(st State, err error) {
	f.mu.Lock()
	f.loadErr = err
	f.mu.Unlock()
	if st == Loaded {
		f.setProgress(1)
	}
	f.state.Store(int32(st))
	close(f.loaded)
}

// usable returns an error unless the document is loaded and open.
func (f *TextFile) usable() error {
	if f.closed.Load() {
		return ErrClosed
	}
	if f.State() != Loaded {
		return ErrNotLoaded
	}
	return nil
}

// editable returns an error unless the document can be edited.
func (f *TextFile) editable() error {
	if err := f.usable(); err != nil {
		return err
	}
	if f.readOnly {
		return ErrReadOnly
	}
	return nil
}

// ReadOnly reports whether edits are rejected.
func (f *TextFile) ReadOnly() bool {
	return f.readOnly
}

// HasUnsavedChanges reports whether the document was edited since it was
// last loaded or saved.
func (f *TextFile) HasUnsavedChanges() bool {
	return f.unsaved.Load()
}

// Text returns the whole document.
func (f *TextFile) Text() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.store.String()
}

// Size returns the document size in bytes.
func (f *TextFile) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.store.Size()
}

// LineCount returns the number of lines; an empty document has one.
func (f *TextFile) LineCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.store.LineCount()
}

// Line returns the text of line n without its newline. Out of range
// lines are empty.
func (f *TextFile) Line(n int) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if n < 0 || n >= f.store.LineCount() {
		return ""
	}
	return string(f.store.Line(n))
}

// ChunkCount returns the number of chunks holding the text.
func (f *TextFile) ChunkCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.store.Count()
}

// LineWidth returns the rendered width of line n, caching widths per chunk.
func (f *TextFile) LineWidth(n int) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n < 0 || n >= f.store.LineCount() {
		return 0
	}
	id := f.store.ChunkForLine(n)
	c := f.store.Get(id)
	if c.Widths == nil {
		lines := f.store.Lines(id)
		c.Widths = make([]float64, len(lines))
		for i, line := range lines {
			c.Widths[i] = f.measurer.MeasureTextWidth(line)
		}
	}
	return c.Widths[n-c.StartLine()]
}

// CanUndo reports whether there is an edit to undo.
func (f *TextFile) CanUndo() bool {
	return f.history.CanUndo()
}

// CanRedo reports whether there is an undone edit to redo.
func (f *TextFile) CanRedo() bool {
	return f.history.CanRedo()
}

// Close cancels background work and releases the document. It waits for
// readers to finish. Closing twice is a no-op.
func (f *TextFile) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	f.epoch.Add(1)
	f.stopFind()

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.store.IDs() {
		c := f.store.Get(id)
		c.State.Release()
		c.State = highlight.State{}
	}
	f.logger.Debug("document closed", "path", f.path)
	return nil
}
