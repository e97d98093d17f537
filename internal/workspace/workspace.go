// Package workspace manages the set of open documents: it opens each path
// once, restores and captures per-file cursors and settings across
// sessions, and routes file watcher events to the affected document.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/textcore/internal/textfile"
	"github.com/dshills/textcore/internal/vfs"
	"github.com/dshills/textcore/internal/watcher"
)

// Workspace tracks open documents. It is safe for concurrent use.
type Workspace struct {
	mu      sync.RWMutex
	files   map[uuid.UUID]*textfile.TextFile
	byPath  map[string]uuid.UUID
	session *Session
	active  string

	fs       vfs.FS
	fileOpts []textfile.Option
	watcher  *watcher.Watcher
	logger   *slog.Logger

	onExternal []func(f *textfile.TextFile)

	// ctx ends when the workspace shuts down; it bounds the waits for
	// background loads.
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithFS sets the file system documents are read from.
func WithFS(fsys vfs.FS) Option {
	return func(w *Workspace) {
		if fsys != nil {
			w.fs = fsys
		}
	}
}

// WithFileOptions sets options applied to every opened document.
func WithFileOptions(opts ...textfile.Option) Option {
	return func(w *Workspace) {
		w.fileOpts = append(w.fileOpts, opts...)
	}
}

// WithWatcher watches every opened file for external changes.
func WithWatcher(fw *watcher.Watcher) Option {
	return func(w *Workspace) {
		w.watcher = fw
	}
}

// WithSession restores cursors and settings from s as files open.
func WithSession(s *Session) Option {
	return func(w *Workspace) {
		if s != nil {
			w.session = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates an empty workspace.
func New(opts ...Option) *Workspace {
	w := &Workspace{
		files:   make(map[uuid.UUID]*textfile.TextFile),
		byPath:  make(map[string]uuid.UUID),
		session: NewSession(),
		fs:      vfs.OS{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.active = w.session.Active
	return w
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Open returns the document for path, opening it if needed. A path that
// is already open returns the existing document.
func (w *Workspace) Open(path string) (*textfile.TextFile, error) {
	path = absPath(path)

	w.mu.RLock()
	if id, ok := w.byPath[path]; ok {
		f := w.files[id]
		w.mu.RUnlock()
		return f, nil
	}
	w.mu.RUnlock()

	opts := append(slices.Clone(w.fileOpts), textfile.WithFS(w.fs), textfile.WithLogger(w.logger))
	f, err := textfile.Open(path, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	w.mu.Lock()
	if id, ok := w.byPath[path]; ok {
		existing := w.files[id]
		w.mu.Unlock()
		_ = f.Close()
		return existing, nil
	}
	w.files[f.ID()] = f
	w.byPath[path] = f.ID()
	st, restore := w.session.Files[path]
	w.mu.Unlock()

	if w.watcher != nil {
		if err := w.watcher.Add(path); err != nil && !errors.Is(err, watcher.ErrAlreadyWatching) {
			w.logger.Warn("watching file", "path", path, "err", err)
		}
	}
	if restore {
		w.restore(f, st)
	}
	w.logger.Debug("file opened", "path", path, "id", f.ID())
	return f, nil
}

// restore applies saved state once f has loaded. Encoding and line
// ending always come from the file itself.
func (w *Workspace) restore(f *textfile.TextFile, st FileState) {
	apply := func() {
		cur := f.Settings()
		s := st.Settings
		s.Encoding, s.LineEnding = cur.Encoding, cur.LineEnding
		if err := f.ApplySettings(s); err != nil {
			w.logger.Warn("restoring settings", "path", f.Path(), "err", err)
		}
		if err := f.RestoreCursors(st.Cursors); err != nil {
			w.logger.Warn("restoring cursors", "path", f.Path(), "err", err)
		}
	}
	if f.State() == textfile.Loaded {
		apply()
		return
	}
	go func() {
		if f.WaitLoaded(w.ctx) == nil {
			apply()
		}
	}()
}

// Get returns the open document with the given id.
func (w *Workspace) Get(id uuid.UUID) (*textfile.TextFile, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	f, ok := w.files[id]
	return f, ok
}

// Lookup returns the open document for path.
func (w *Workspace) Lookup(path string) (*textfile.TextFile, bool) {
	path = absPath(path)
	w.mu.RLock()
	defer w.mu.RUnlock()
	id, ok := w.byPath[path]
	if !ok {
		return nil, false
	}
	return w.files[id], true
}

// Files returns the open documents ordered by path.
func (w *Workspace) Files() []*textfile.TextFile {
	w.mu.RLock()
	out := make([]*textfile.TextFile, 0, len(w.files))
	for _, f := range w.files {
		out = append(out, f)
	}
	w.mu.RUnlock()
	slices.SortFunc(out, func(a, b *textfile.TextFile) int {
		switch pa, pb := a.Path(), b.Path(); {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		}
		return 0
	})
	return out
}

// SetActive records the focused file.
func (w *Workspace) SetActive(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = absPath(path)
}

// Close captures the document's state into the session and closes it.
func (w *Workspace) Close(id uuid.UUID) error {
	w.mu.Lock()
	f, ok := w.files[id]
	if !ok {
		w.mu.Unlock()
		return nil
	}
	path := f.Path()
	w.captureLocked(f)
	delete(w.files, id)
	delete(w.byPath, path)
	w.mu.Unlock()

	if w.watcher != nil {
		if err := w.watcher.Remove(path); err != nil && !errors.Is(err, watcher.ErrNotWatching) {
			w.logger.Warn("unwatching file", "path", path, "err", err)
		}
	}
	return f.Close()
}

func (w *Workspace) captureLocked(f *textfile.TextFile) {
	if f.State() != textfile.Loaded {
		return
	}
	w.session.Files[f.Path()] = FileState{Cursors: f.CursorData(), Settings: f.Settings()}
}

// Session captures every open document and returns a copy of the
// session. Files closed earlier keep the state they had when closed.
func (w *Workspace) Session() *Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, f := range w.files {
		w.captureLocked(f)
	}
	s := NewSession()
	s.Active = w.active
	for path, st := range w.session.Files {
		s.Files[path] = st
	}
	return s
}

// SaveSession writes the captured session to path.
func (w *Workspace) SaveSession(path string) error {
	return SaveSession(w.fs, path, w.Session())
}

// OnExternalChange registers fn to be called when a watched document
// changes on disk.
func (w *Workspace) OnExternalChange(fn func(f *textfile.TextFile)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onExternal = append(w.onExternal, fn)
}

// HandleEvent marks the document ev refers to as externally changed.
// Events for files that are not open are ignored.
func (w *Workspace) HandleEvent(ev watcher.Event) {
	f, ok := w.Lookup(ev.Path)
	if !ok {
		return
	}
	f.NotifyExternalChange()
	w.logger.Info("file changed on disk", "path", ev.Path, "op", ev.Op)

	w.mu.RLock()
	handlers := slices.Clone(w.onExternal)
	w.mu.RUnlock()
	for _, fn := range handlers {
		fn(f)
	}
}

// Run routes watcher events to documents until ctx ends or the watcher
// closes. Without a watcher it returns immediately.
func (w *Workspace) Run(ctx context.Context) error {
	if w.watcher == nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.watcher.Events():
			if !ok {
				return nil
			}
			w.HandleEvent(ev)
		case err, ok := <-w.watcher.Errors():
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "err", err)
		}
	}
}

// Shutdown closes every document. The workspace must not be used
// afterwards.
func (w *Workspace) Shutdown() error {
	w.cancel()
	var errs []error
	for _, f := range w.Files() {
		errs = append(errs, w.Close(f.ID()))
	}
	return errors.Join(errs...)
}
