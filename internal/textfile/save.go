package textfile

import (
	"github.com/dshills/textcore/internal/vfs"
)

// Save writes the document to its path in its encoding and line ending.
// On failure the document keeps its unsaved changes.
func (f *TextFile) Save() error {
	path := f.Path()
	if path == "" {
		return ErrNoPath
	}
	return f.SaveAs(path)
}

// SaveAs writes the document to path and makes path the document's
// path. A new extension may change the highlighting language.
func (f *TextFile) SaveAs(path string) error {
	if err := f.usable(); err != nil {
		return err
	}
	if path == "" {
		return ErrNoPath
	}

	f.mu.RLock()
	text := f.store.Bytes()
	enc, le := f.settings.Encoding, f.settings.LineEnding
	oldPath := f.path
	rev := f.revision
	f.mu.RUnlock()

	if err := vfs.WriteText(f.fs, path, text, enc, le); err != nil {
		f.logger.Error("save failed", "path", path, "err", err)
		return err
	}
	flags, err := vfs.GetFileFlags(f.fs, path)
	if err != nil {
		f.logger.Warn("reading file flags", "path", path, "err", err)
	}

	relang := false
	f.mu.Lock()
	f.flags = flags
	if path != oldPath {
		f.path = path
		old := f.settings.Language
		f.epoch.Add(1)
		f.detectLanguage(path)
		relang = f.settings.Language != old
	}
	// Edits made while writing were not saved.
	current := f.revision == rev
	if current {
		f.unsaved.Store(false)
	}
	f.mu.Unlock()

	f.external.Store(false)
	f.logger.Info("document saved", "path", path, "bytes", len(text), "encoding", enc, "line_ending", le, "current", current)
	if relang {
		f.scheduleHighlight()
	}
	return nil
}

// NotifyExternalChange records that another program changed the file,
// as reported by a file watcher.
func (f *TextFile) NotifyExternalChange() {
	f.external.Store(true)
}

// HasExternalChange reports whether the file changed on disk since the
// document last loaded or saved it.
func (f *TextFile) HasExternalChange() bool {
	if f.external.Load() {
		return true
	}
	f.mu.RLock()
	path, recorded := f.path, f.flags
	f.mu.RUnlock()
	if path == "" {
		return false
	}
	now, err := vfs.GetFileFlags(f.fs, path)
	if err != nil {
		return false
	}
	return now.Changed(recorded)
}
