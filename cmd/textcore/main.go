// Package main is the entry point for textcore, a command that opens
// files with the editing core, highlights them, optionally searches them
// and prints a report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dshills/textcore/internal/config"
	"github.com/dshills/textcore/internal/highlight"
	"github.com/dshills/textcore/internal/scheduler"
	"github.com/dshills/textcore/internal/search"
	"github.com/dshills/textcore/internal/textfile"
	"github.com/dshills/textcore/internal/vfs"
	"github.com/dshills/textcore/internal/watcher"
	"github.com/dshills/textcore/internal/workspace"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	ConfigPath  string
	SessionPath string
	Find        string
	Search      search.Options
	Theme       string
	LogLevel    string
	ReadOnly    bool
	Watch       bool
	PrintConfig bool
	Files       []string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()
	logger := newLogger(opts.LogLevel)

	cfg, err := config.Load(vfs.OS{}, opts.ConfigPath)
	if err == nil {
		err = cfg.ApplyEnv(os.LookupEnv)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.PrintConfig {
		data, err := cfg.Encode()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		os.Stdout.Write(data)
		return 0
	}
	if len(opts.Files) == 0 {
		flag.Usage()
		return 2
	}

	registry := highlight.DefaultRegistry()
	for _, dir := range cfg.Languages.Dirs {
		if err := registry.LoadDir(dir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading languages from %s: %v\n", dir, err)
			return 1
		}
	}

	sched := scheduler.New(append(cfg.SchedulerOptions(), scheduler.WithLogger(logger))...)
	if err := sched.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start scheduler: %v\n", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sched.Stop(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := workspace.NewSession()
	if opts.SessionPath != "" {
		if session, err = workspace.LoadSession(vfs.OS{}, opts.SessionPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	wsOpts := []workspace.Option{
		workspace.WithLogger(logger),
		workspace.WithSession(session),
		workspace.WithFileOptions(append(cfg.TextFileOptions(),
			textfile.WithScheduler(sched),
			textfile.WithRegistry(registry),
			textfile.WithReadOnly(opts.ReadOnly),
		)...),
	}
	if opts.Watch {
		fw, err := watcher.New(watcher.WithLogger(logger))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create watcher: %v\n", err)
			return 1
		}
		defer fw.Close()
		wsOpts = append(wsOpts, workspace.WithWatcher(fw))
	}
	ws := workspace.New(wsOpts...)
	defer ws.Shutdown()

	theme := highlight.NewTheme(opts.Theme)
	status := 0
	for _, path := range opts.Files {
		f, err := ws.Open(path)
		if err == nil {
			err = f.WaitLoaded(ctx)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			status = 1
			continue
		}
		if err := waitHighlighted(ctx, f); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			return 1
		}
		r := report{File: f, Theme: theme}
		if opts.Find != "" {
			if err := f.FindAll(opts.Find, opts.Search); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return 1
			}
			if r.Selected, err = f.SelectAllMatches(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
				return 1
			}
			r.Matches = f.Matches()
		}
		r.Write(os.Stdout)
	}

	if opts.Watch {
		ws.OnExternalChange(func(f *textfile.TextFile) {
			fmt.Printf("%s changed on disk\n", f.Path())
			if f.HasUnsavedChanges() {
				return
			}
			if err := f.Reload(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: reloading %s: %v\n", f.Path(), err)
				return
			}
			if err := waitHighlighted(ctx, f); err == nil {
				report{File: f, Theme: theme}.Write(os.Stdout)
			}
		})
		fmt.Println("watching for changes, press Ctrl-C to stop")
		if err := ws.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			status = 1
		}
	}

	if opts.SessionPath != "" {
		if err := ws.SaveSession(opts.SessionPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			status = 1
		}
	}
	return status
}

// waitHighlighted waits for background highlighting of f to finish.
func waitHighlighted(ctx context.Context, f *textfile.TextFile) error {
	t := time.NewTicker(5 * time.Millisecond)
	defer t.Stop()
	for !f.Highlighted() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "textcore", "config.toml")
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", defaultConfigPath(), "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", defaultConfigPath(), "Path to configuration file (shorthand)")
	flag.StringVar(&opts.SessionPath, "session", "", "Restore and save cursors and settings in this session file")
	flag.StringVar(&opts.Find, "find", "", "Find every match of a pattern")
	flag.StringVar(&opts.Find, "f", "", "Find every match of a pattern (shorthand)")
	flag.BoolVar(&opts.Search.Regex, "regex", false, "Treat the pattern as a regular expression")
	flag.BoolVar(&opts.Search.CaseInsensitive, "ignore-case", false, "Ignore letter case when searching")
	flag.BoolVar(&opts.Search.WholeWord, "word", false, "Match whole words only")
	flag.StringVar(&opts.Theme, "theme", highlight.DefaultThemeName, "Chroma style used to describe token colours")
	flag.StringVar(&opts.LogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.ReadOnly, "readonly", false, "Open files in read-only mode")
	flag.BoolVar(&opts.Watch, "watch", false, "Keep running and report files changed on disk")
	flag.BoolVar(&opts.PrintConfig, "print-config", false, "Print the effective configuration and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "textcore - open, highlight and search text files\n\n")
		fmt.Fprintf(os.Stderr, "Usage: textcore [options] files...\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  textcore main.go                      Report on a file\n")
		fmt.Fprintf(os.Stderr, "  textcore -f 'TODO' *.go               Find every TODO\n")
		fmt.Fprintf(os.Stderr, "  textcore -regex -f 'func (\\w+)' x.go  Find with a regular expression\n")
		fmt.Fprintf(os.Stderr, "  textcore -watch notes.txt             Report again when the file changes\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("textcore %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	opts.Files = flag.Args()
	return opts
}
