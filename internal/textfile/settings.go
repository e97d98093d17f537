package textfile

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dshills/textcore/internal/highlight"
	"github.com/dshills/textcore/internal/measure"
	"github.com/dshills/textcore/internal/vfs"
)

// ErrUnknownLanguage is returned when no highlighter is registered for a
// language.
var ErrUnknownLanguage = errors.New("unknown language")

// Settings are the per-document preferences persisted with a session.
type Settings struct {
	Language   string           `yaml:"language,omitempty"`
	Encoding   vfs.TextEncoding `yaml:"encoding"`
	LineEnding vfs.LineEnding   `yaml:"line_ending"`
	TabWidth   int              `yaml:"tab_width"`
	WordWrap   bool             `yaml:"word_wrap"`
	ScrollX    float64          `yaml:"scroll_x"`
	ScrollY    float64          `yaml:"scroll_y"`
}

// DefaultSettings returns the settings of a new document.
func DefaultSettings() Settings {
	return Settings{
		Encoding:   vfs.UTF8,
		LineEnding: vfs.Unix,
		TabWidth:   measure.DefaultTabWidth,
	}
}

// Settings returns the document settings.
func (f *TextFile) Settings() Settings {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.settings
}

// ApplySettings replaces the document settings. A changed language
// re-highlights the document; a changed tab width drops cached widths.
func (f *TextFile) ApplySettings(s Settings) error {
	if err := f.usable(); err != nil {
		return err
	}
	if s.TabWidth <= 0 {
		s.TabWidth = measure.DefaultTabWidth
	}
	if _, err := vfs.ParseEncoding(string(s.Encoding)); err != nil {
		return err
	}

	f.mu.Lock()
	old := f.settings
	f.settings = s
	if s.TabWidth != old.TabWidth {
		if m, ok := f.measurer.(measure.Monospace); ok {
			m.TabWidth = s.TabWidth
			f.measurer = m
		}
		for _, id := range f.store.IDs() {
			f.store.Get(id).Widths = nil
		}
	}
	var err error
	if s.Language != old.Language {
		f.epoch.Add(1)
		err = f.useLanguage(s.Language)
		if err != nil {
			f.settings.Language = old.Language
		}
	}
	f.mu.Unlock()

	if s.Language != old.Language && err == nil {
		f.scheduleHighlight()
	}
	return err
}

// Language returns the highlighting language, or "" for plain text.
func (f *TextFile) Language() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.settings.Language
}

// SetLanguage switches the highlighting language. An empty name turns
// highlighting off.
func (f *TextFile) SetLanguage(name string) error {
	s := f.Settings()
	s.Language = name
	return f.ApplySettings(s)
}

// SetWrapWidth sets the width vertical motion wraps lines at when word
// wrap is on.
func (f *TextFile) SetWrapWidth(w float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wrapWidth = w
}

// detectLanguage picks a language from path. Called with mu held.
func (f *TextFile) detectLanguage(path string) {
	if f.registry == nil {
		return
	}
	lang, _, ok := f.registry.ByPath(path)
	if !ok {
		lang = ""
	}
	if lang == f.settings.Language && (lang == "") == (f.highlighter == nil) {
		return
	}
	if err := f.useLanguage(lang); err == nil {
		f.settings.Language = lang
		f.logger.Debug("language detected", "path", filepath.Base(path), "language", lang)
	}
}

// useLanguage installs the highlighter for name and drops every cached
// highlighting result. Called with mu held, or before the document is
// shared.
func (f *TextFile) useLanguage(name string) error {
	var h highlight.Highlighter
	if name != "" {
		if f.registry == nil {
			return fmt.Errorf("%w: %s", ErrUnknownLanguage, name)
		}
		factory, ok := f.registry.ByLanguage(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownLanguage, name)
		}
		h = factory()
	}
	f.highlighter = h
	f.settings.Language = name
	for _, id := range f.store.IDs() {
		c := f.store.Get(id)
		c.State.Release()
		c.State = highlight.State{}
		c.Parsed = false
		c.Syntax = nil
		c.Errors = nil
	}
	return nil
}
