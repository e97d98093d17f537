package workspace

import (
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/dshills/textcore/internal/engine/cursor"
	"github.com/dshills/textcore/internal/textfile"
	"github.com/dshills/textcore/internal/vfs"
)

// SessionVersion is the session format written by SaveSession.
const SessionVersion = 1

// ErrUnsupportedVersion is returned for sessions written by a newer
// format.
var ErrUnsupportedVersion = errors.New("unsupported session version")

// Session is the persisted state of a workspace: the cursors and
// settings of every file that was open.
type Session struct {
	Version int `yaml:"version"`

	// Active is the path of the focused file, if any.
	Active string `yaml:"active,omitempty"`

	// Files is keyed by absolute path.
	Files map[string]FileState `yaml:"files"`
}

// FileState is the persisted state of one file.
type FileState struct {
	Cursors  []cursor.Data     `yaml:"cursors"`
	Settings textfile.Settings `yaml:"settings"`
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{Version: SessionVersion, Files: make(map[string]FileState)}
}

// LoadSession reads the session at path. A missing file yields an empty
// session.
func LoadSession(fsys vfs.FS, path string) (*Session, error) {
	data, err := fsys.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSession(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", path, err)
	}

	s := NewSession()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", path, err)
	}
	if s.Version > SessionVersion {
		return nil, fmt.Errorf("session %s: %w %d", path, ErrUnsupportedVersion, s.Version)
	}
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}
	return s, nil
}

// SaveSession writes s to path. The file system replaces path
// atomically, so a failed save leaves the previous session intact.
func SaveSession(fsys vfs.FS, path string, s *Session) error {
	s.Version = SessionVersion
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := fsys.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session %s: %w", path, err)
	}
	return nil
}
