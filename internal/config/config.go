package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/textcore/internal/engine/chunk"
	"github.com/dshills/textcore/internal/scheduler"
	"github.com/dshills/textcore/internal/textfile"
	"github.com/dshills/textcore/internal/vfs"
)

// Config holds every tunable of the editing core.
type Config struct {
	Editor    EditorConfig    `toml:"editor"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Languages LanguagesConfig `toml:"languages"`
}

// EditorConfig configures documents.
type EditorConfig struct {
	// ChunkSize is the chunk capacity in bytes.
	ChunkSize int `toml:"chunk_size"`

	// TabWidth is the tab stop distance in cells.
	TabWidth int `toml:"tab_width"`

	// WordWrap turns on word wrap for new documents.
	WordWrap bool `toml:"word_wrap"`

	// MaxUndo bounds the undo history of each document.
	MaxUndo int `toml:"max_undo"`

	// SyncHighlightChunks is how many chunks are highlighted before a
	// load completes.
	SyncHighlightChunks int `toml:"sync_highlight_chunks"`

	// SyncLoadThreshold is the largest file size in bytes read before
	// Open returns. Larger files load in the background.
	SyncLoadThreshold int64 `toml:"sync_load_threshold"`
}

// SchedulerConfig configures the background worker pool.
type SchedulerConfig struct {
	Workers       int      `toml:"workers"`
	UrgentTimeout Duration `toml:"urgent_timeout"`
	QueueSize     int      `toml:"queue_size"`
}

// LanguagesConfig lists where language definitions are loaded from.
type LanguagesConfig struct {
	// Dirs are directories holding *.toml and *.lua language definitions.
	Dirs []string `toml:"dirs"`
}

// Duration is a time.Duration written as a string such as "10ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			ChunkSize:           textfile.DefaultChunkSize,
			TabWidth:            4,
			MaxUndo:             textfile.DefaultMaxUndo,
			SyncHighlightChunks: textfile.DefaultSyncHighlightChunks,
			SyncLoadThreshold:   textfile.DefaultSyncLoadThreshold,
		},
		Scheduler: SchedulerConfig{
			Workers:       max(2, runtime.NumCPU()-1),
			UrgentTimeout: Duration{scheduler.DefaultUrgentTimeout},
			QueueSize:     scheduler.DefaultQueueSize,
		},
	}
}

// Load reads the configuration file at path. A missing file is not an
// error: Load returns Default.
func Load(fsys vfs.FS, path string) (*Config, error) {
	data, err := fsys.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse decodes TOML data over the defaults and validates the result.
// Syntax errors and unknown keys are returned as *ParseError, values out
// of range as *ValidationError. source names the data in errors.
func Parse(source string, data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, parseError(source, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseError(source string, err error) *ParseError {
	pe := &ParseError{Path: source, Message: err.Error(), Err: err}
	var de *toml.DecodeError
	var se *toml.StrictMissingError
	switch {
	case errors.As(err, &de):
		pe.Line, pe.Column = de.Position()
	case errors.As(err, &se) && len(se.Errors) > 0:
		pe.Line, pe.Column = se.Errors[0].Position()
		pe.Message = fmt.Sprintf("unknown key %q", se.Errors[0].Key())
	}
	return pe
}

// Validate checks every value is in range.
func (c *Config) Validate() error {
	checks := []struct {
		key string
		ok  bool
		msg string
		val any
	}{
		{"editor.chunk_size", c.Editor.ChunkSize >= chunk.MinCapacity, fmt.Sprintf("must be at least %d", chunk.MinCapacity), c.Editor.ChunkSize},
		{"editor.tab_width", c.Editor.TabWidth >= 1 && c.Editor.TabWidth <= 16, "must be between 1 and 16", c.Editor.TabWidth},
		{"editor.max_undo", c.Editor.MaxUndo >= 1, "must be positive", c.Editor.MaxUndo},
		{"editor.sync_highlight_chunks", c.Editor.SyncHighlightChunks >= 0, "must not be negative", c.Editor.SyncHighlightChunks},
		{"editor.sync_load_threshold", c.Editor.SyncLoadThreshold >= 0, "must not be negative", c.Editor.SyncLoadThreshold},
		{"scheduler.workers", c.Scheduler.Workers >= 1, "must be positive", c.Scheduler.Workers},
		{"scheduler.urgent_timeout", c.Scheduler.UrgentTimeout.Duration > 0, "must be positive", c.Scheduler.UrgentTimeout},
		{"scheduler.queue_size", c.Scheduler.QueueSize >= 1, "must be positive", c.Scheduler.QueueSize},
	}
	for _, ch := range checks {
		if !ch.ok {
			return &ValidationError{Key: ch.key, Message: ch.msg, Value: ch.val}
		}
	}
	return nil
}

// Encode returns the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// TextFileOptions returns the document options the configuration sets.
func (c *Config) TextFileOptions() []textfile.Option {
	return []textfile.Option{
		textfile.WithChunkSize(c.Editor.ChunkSize),
		textfile.WithTabWidth(c.Editor.TabWidth),
		textfile.WithWordWrap(c.Editor.WordWrap),
		textfile.WithMaxUndo(c.Editor.MaxUndo),
		textfile.WithSyncHighlightChunks(c.Editor.SyncHighlightChunks),
		textfile.WithSyncLoadThreshold(c.Editor.SyncLoadThreshold),
	}
}

// SchedulerOptions returns the scheduler options the configuration sets.
func (c *Config) SchedulerOptions() []scheduler.Option {
	return []scheduler.Option{
		scheduler.WithWorkers(c.Scheduler.Workers),
		scheduler.WithUrgentTimeout(c.Scheduler.UrgentTimeout.Duration),
		scheduler.WithQueueSize(c.Scheduler.QueueSize),
	}
}
