package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// ErrorKind classifies file errors for the user.
type ErrorKind int

// Error kinds.
const (
	Other ErrorKind = iota
	NotFound
	AccessDenied
	DiskFull
	Encoding
	NameTooLong
	ReadOnlyFS
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "file not found"
	case AccessDenied:
		return "access denied"
	case DiskFull:
		return "disk full"
	case Encoding:
		return "encoding error"
	case NameTooLong:
		return "file name too long"
	case ReadOnlyFS:
		return "read-only file system"
	default:
		return "file error"
	}
}

// ErrUnencodable is returned when text cannot be represented in the
// target encoding.
var ErrUnencodable = errors.New("text cannot be represented in encoding")

// FileError is the error returned by load and save operations.
type FileError struct {
	Op   string
	Path string
	Kind ErrorKind
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// wrap converts err into a *FileError, classifying it. It returns nil for
// a nil err and leaves an existing *FileError untouched.
func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FileError
	if errors.As(err, &fe) {
		return err
	}
	return &FileError{Op: op, Path: path, Kind: classify(err), Err: err}
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NotFound
	case errors.Is(err, fs.ErrPermission):
		return AccessDenied
	case errors.Is(err, syscall.ENOSPC):
		return DiskFull
	case errors.Is(err, syscall.ENAMETOOLONG):
		return NameTooLong
	case errors.Is(err, syscall.EROFS):
		return ReadOnlyFS
	case errors.Is(err, ErrUnencodable):
		return Encoding
	default:
		return Other
	}
}

// KindOf returns the kind of a file error, or Other.
func KindOf(err error) ErrorKind {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if err == nil {
		return Other
	}
	return classify(err)
}
