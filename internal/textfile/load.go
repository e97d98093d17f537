package textfile

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dshills/textcore/internal/engine/chunk"
	"github.com/dshills/textcore/internal/engine/cursor"
	"github.com/dshills/textcore/internal/scheduler"
	"github.com/dshills/textcore/internal/vfs"
)

// Open opens the document at path.
//
// Files up to the sync load threshold, and every file when no scheduler
// is configured, are read before Open returns. Larger files are read by
// an urgent scheduler task: Open returns a document in the Loading state
// and WaitLoaded reports the outcome. A document whose load fails stays
// empty and rejects edits with ErrNotLoaded.
func Open(path string, opts ...Option) (*TextFile, error) {
	f := newFile(opts)
	f.path = path
	if f.settings.Language == "" {
		f.detectLanguage(path)
	}

	info, err := f.fs.Stat(path)
	if err != nil {
		err = &vfs.FileError{Op: "open", Path: path, Kind: vfs.KindOf(err), Err: err}
		f.fail(err)
		return f, err
	}
	if info.IsDir {
		err = &vfs.FileError{Op: "open", Path: path, Err: errors.New("is a directory")}
		f.fail(err)
		return f, err
	}

	if f.sched == nil || info.Size <= f.syncLoadThreshold {
		err := f.load(context.Background())
		return f, err
	}

	f.logger.Debug("loading in background", "path", path, "size", info.Size)
	err = f.sched.Schedule(scheduler.Urgent, "load", func(ctx context.Context) {
		if err := f.load(ctx); err != nil {
			f.logger.Error("load failed", "path", path, "err", err)
		}
	})
	if err != nil {
		f.fail(err)
		return f, fmt.Errorf("scheduling load of %s: %w", path, err)
	}
	return f, nil
}

// load streams the file into a new chunk store, highlights its first
// chunks and installs it.
func (f *TextFile) load(ctx context.Context) error {
	r, err := vfs.OpenText(f.fs, f.path)
	if err != nil {
		f.fail(err)
		return err
	}
	defer r.Close()

	b := chunk.NewBuilder(f.chunkSize)
	for {
		if ctx.Err() != nil || f.closed.Load() {
			f.fail(ErrLoadCancelled)
			return ErrLoadCancelled
		}
		block, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			f.fail(err)
			return err
		}
		b.Write(block)
		f.setProgress(r.Progress())
	}

	flags, err := vfs.GetFileFlags(f.fs, f.path)
	if err != nil {
		f.logger.Warn("reading file flags", "path", f.path, "err", err)
	}

	f.mu.Lock()
	f.store = b.Store()
	f.cursors = []cursor.Cursor{cursor.At(f.store.Start())}
	f.settings.Encoding = r.Encoding()
	f.settings.LineEnding = r.LineEnding()
	f.flags = flags
	f.mu.Unlock()

	f.highlightChunks(ctx, f.epoch.Load(), f.syncHighlight)
	f.finishLoad(Loaded, nil)
	f.logger.Info("document loaded",
		"path", f.path,
		"lines", f.LineCount(),
		"chunks", f.ChunkCount(),
		"encoding", r.Encoding(),
		"line_ending", r.LineEnding(),
	)
	f.scheduleHighlight()
	return nil
}

// fail marks the load as failed. The document keeps its empty store.
func (f *TextFile) fail(err error) {
	f.finishLoad(LoadFailed, err)
}

// Reload replaces the text with the file's current content. Cursors keep
// their line and column where the new text allows, and the undo history
// is cleared.
func (f *TextFile) Reload() error {
	if err := f.usable(); err != nil {
		return err
	}
	path := f.Path()
	if path == "" {
		return ErrNoPath
	}
	text, enc, le, err := vfs.ReadText(f.fs, path)
	if err != nil {
		return err
	}
	flags, err := vfs.GetFileFlags(f.fs, path)
	if err != nil {
		return err
	}

	f.epoch.Add(1)
	st := f.cancelFind()

	f.mu.Lock()
	data := f.cursorDataLocked()
	for _, id := range f.store.IDs() {
		f.store.Get(id).State.Release()
	}
	f.store = chunk.FromBytes(text, f.chunkSize)
	f.cursors = f.restoreCursorsLocked(data)
	f.settings.Encoding = enc
	f.settings.LineEnding = le
	f.flags = flags
	f.mu.Unlock()

	f.history.Clear()
	f.unsaved.Store(false)
	f.external.Store(false)
	f.logger.Info("document reloaded", "path", path)
	f.afterChange(st)
	return nil
}
