// Package vfs is the file I/O layer of the document engine.
//
// The FS interface lets documents load and save through the operating
// system or, in tests, through an in-memory file system. Text helpers
// detect and convert character encodings and line endings so the engine
// only ever sees UTF-8 with '\n' line endings.
package vfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FS is the file system a document loads from and saves to.
type FS interface {
	// Open opens a file for reading.
	Open(path string) (io.ReadCloser, error)

	// ReadFile reads the entire file content.
	ReadFile(path string) ([]byte, error)

	// Stat returns file information.
	Stat(path string) (FileInfo, error)

	// WriteFile replaces the file with data. Implementations must not
	// leave a partially written file behind on failure.
	WriteFile(path string, data []byte, perm fs.FileMode) error
}

// FileInfo describes a file.
type FileInfo struct {
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
	IsDir   bool
}

// FileFlags is what a document records to notice external changes.
type FileFlags struct {
	Exists  bool
	Size    int64
	ModTime time.Time
}

// Changed reports whether f differs from o.
func (f FileFlags) Changed(o FileFlags) bool {
	return f.Exists != o.Exists || f.Size != o.Size || !f.ModTime.Equal(o.ModTime)
}

// GetFileFlags returns the flags of path. A missing file is not an error.
func GetFileFlags(fsys FS, path string) (FileFlags, error) {
	info, err := fsys.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return FileFlags{}, nil
	}
	if err != nil {
		return FileFlags{}, wrap("stat", path, err)
	}
	return FileFlags{Exists: true, Size: info.Size, ModTime: info.ModTime}, nil
}

// OS implements FS on the operating system's file system.
type OS struct{}

var _ FS = OS{}

// Open opens a file for reading.
func (OS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// ReadFile reads the entire file content.
func (OS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file information.
func (OS) Stat(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Size: info.Size(), Mode: info.Mode(), ModTime: info.ModTime(), IsDir: info.IsDir()}, nil
}

// WriteFile writes data to a temporary file in the target directory and
// renames it over path. An existing file keeps its permissions.
func (OS) WriteFile(path string, data []byte, perm fs.FileMode) error {
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}

// ReadText reads path and decodes it to UTF-8 text with '\n' newlines.
// Errors are *FileError values.
func ReadText(fsys FS, path string) ([]byte, TextEncoding, LineEnding, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, UTF8, Unix, wrap("read", path, err)
	}
	text, enc, le, err := Decode(data)
	if err != nil {
		return nil, enc, le, &FileError{Op: "read", Path: path, Kind: Encoding, Err: err}
	}
	return text, enc, le, nil
}

// WriteText encodes text and replaces path with it. Errors are
// *FileError values.
func WriteText(fsys FS, path string, text []byte, enc TextEncoding, le LineEnding) error {
	data, err := Encode(text, enc, le)
	if err != nil {
		return wrap("write", path, err)
	}
	return wrap("write", path, fsys.WriteFile(path, data, 0o644))
}
