package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable ApplyEnv reads.
const EnvPrefix = "TEXTCORE_"

// envSetters maps environment variables (without prefix) to the setting
// they override.
var envSetters = map[string]func(c *Config, v string) error{
	"CHUNK_SIZE": func(c *Config, v string) error { return setInt(&c.Editor.ChunkSize, v) },
	"TAB_WIDTH":  func(c *Config, v string) error { return setInt(&c.Editor.TabWidth, v) },
	"WORD_WRAP": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		c.Editor.WordWrap = b
		return err
	},
	"MAX_UNDO":              func(c *Config, v string) error { return setInt(&c.Editor.MaxUndo, v) },
	"SYNC_HIGHLIGHT_CHUNKS": func(c *Config, v string) error { return setInt(&c.Editor.SyncHighlightChunks, v) },
	"SYNC_LOAD_THRESHOLD": func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		c.Editor.SyncLoadThreshold = n
		return err
	},
	"WORKERS": func(c *Config, v string) error { return setInt(&c.Scheduler.Workers, v) },
	"URGENT_TIMEOUT": func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		c.Scheduler.UrgentTimeout.Duration = d
		return err
	},
	"QUEUE_SIZE": func(c *Config, v string) error { return setInt(&c.Scheduler.QueueSize, v) },
	"LANGUAGE_DIRS": func(c *Config, v string) error {
		c.Languages.Dirs = filepath.SplitList(v)
		return nil
	},
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

// ApplyEnv overrides settings from TEXTCORE_* environment variables,
// e.g. TEXTCORE_TAB_WIDTH=8 or TEXTCORE_LANGUAGE_DIRS=/a:/b, and
// validates the result. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for name, set := range envSetters {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := set(c, v); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
	}
	return c.Validate()
}
