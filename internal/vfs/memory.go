package vfs

import (
	"bytes"
	"io"
	"io/fs"
	"path"
	"sync"
	"time"
)

// MemFS implements FS in memory. It is used by tests and for scratch
// documents. Paths are cleaned with path.Clean; directories are implicit.
//
// MemFS is safe for concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	files map[string]*memFile
	now   func() time.Time

	// WriteErr, when set, is returned by every WriteFile call.
	WriteErr error
}

type memFile struct {
	content []byte
	mode    fs.FileMode
	modTime time.Time
}

var _ FS = (*MemFS)(nil)

// NewMemFS creates an empty in-memory file system.
func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string]*memFile), now: time.Now}
}

func (m *MemFS) lookup(op, name string) (*memFile, error) {
	f, ok := m.files[path.Clean(name)]
	if !ok {
		return nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return f, nil
}

// Open opens a file for reading.
func (m *MemFS) Open(name string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, err := m.lookup("open", name)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(f.content))), nil
}

// ReadFile reads the entire file content.
func (m *MemFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, err := m.lookup("read", name)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(f.content), nil
}

// Stat returns file information.
func (m *MemFS) Stat(name string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, err := m.lookup("stat", name)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Size: int64(len(f.content)), Mode: f.mode, ModTime: f.modTime}, nil
}

// WriteFile replaces the file with data.
func (m *MemFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteErr != nil {
		return &fs.PathError{Op: "write", Path: name, Err: m.WriteErr}
	}
	name = path.Clean(name)
	if old, ok := m.files[name]; ok {
		perm = old.mode
	}
	m.files[name] = &memFile{content: bytes.Clone(data), mode: perm, modTime: m.now()}
	return nil
}

// Remove deletes a file.
func (m *MemFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.lookup("remove", name); err != nil {
		return err
	}
	delete(m.files, path.Clean(name))
	return nil
}

// Touch sets a file's modification time.
func (m *MemFS) Touch(name string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.lookup("touch", name)
	if err != nil {
		return err
	}
	f.modTime = t
	return nil
}
