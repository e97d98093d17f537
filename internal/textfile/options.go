package textfile

import (
	"log/slog"

	"github.com/dshills/textcore/internal/highlight"
	"github.com/dshills/textcore/internal/measure"
	"github.com/dshills/textcore/internal/scheduler"
	"github.com/dshills/textcore/internal/vfs"
)

// Defaults for document tunables.
const (
	DefaultChunkSize           = 4096
	DefaultMaxUndo             = 1000
	DefaultSyncHighlightChunks = 10
	DefaultSyncLoadThreshold   = 1 << 20
)

// Option configures a TextFile.
type Option func(*TextFile)

// WithFS sets the file system documents load from and save to.
func WithFS(fsys vfs.FS) Option {
	return func(f *TextFile) {
		if fsys != nil {
			f.fs = fsys
		}
	}
}

// WithScheduler runs loading, highlighting and find-all on s. Without a
// scheduler that work runs synchronously on the calling goroutine.
func WithScheduler(s *scheduler.Scheduler) Option {
	return func(f *TextFile) {
		f.sched = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *TextFile) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithRegistry sets the highlighter registry used to pick a language
// from the file name.
func WithRegistry(r *highlight.Registry) Option {
	return func(f *TextFile) {
		f.registry = r
	}
}

// WithMeasurer sets the text measurer used for line widths and wrapped
// vertical motion.
func WithMeasurer(m measure.Measurer) Option {
	return func(f *TextFile) {
		if m != nil {
			f.measurer = m
		}
	}
}

// WithChunkSize sets the chunk capacity in bytes.
func WithChunkSize(n int) Option {
	return func(f *TextFile) {
		if n > 0 {
			f.chunkSize = n
		}
	}
}

// WithMaxUndo bounds the undo history.
func WithMaxUndo(n int) Option {
	return func(f *TextFile) {
		if n > 0 {
			f.maxUndo = n
		}
	}
}

// WithSyncHighlightChunks sets how many chunks are highlighted before a
// load completes.
func WithSyncHighlightChunks(n int) Option {
	return func(f *TextFile) {
		if n >= 0 {
			f.syncHighlight = n
		}
	}
}

// WithSyncLoadThreshold sets the file size up to which a document is
// loaded on the calling goroutine.
func WithSyncLoadThreshold(n int64) Option {
	return func(f *TextFile) {
		if n >= 0 {
			f.syncLoadThreshold = n
		}
	}
}

// WithTabWidth sets the tab width recorded in the document settings.
func WithTabWidth(n int) Option {
	return func(f *TextFile) {
		if n > 0 {
			f.settings.TabWidth = n
		}
	}
}

// WithWordWrap enables word wrap in the document settings.
func WithWordWrap(on bool) Option {
	return func(f *TextFile) {
		f.settings.WordWrap = on
	}
}

// WithReadOnly rejects every edit with ErrReadOnly.
func WithReadOnly(ro bool) Option {
	return func(f *TextFile) {
		f.readOnly = ro
	}
}

// WithLanguage selects the highlighting language instead of detecting it
// from the file name.
func WithLanguage(name string) Option {
	return func(f *TextFile) {
		f.settings.Language = name
	}
}
