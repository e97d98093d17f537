package workspace

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/textcore/internal/engine/cursor"
	"github.com/dshills/textcore/internal/scheduler"
	"github.com/dshills/textcore/internal/textfile"
	"github.com/dshills/textcore/internal/vfs"
	"github.com/dshills/textcore/internal/watcher"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFS(t *testing.T, files map[string]string) *vfs.MemFS {
	t.Helper()
	fsys := vfs.NewMemFS()
	for path, text := range files {
		require.NoError(t, fsys.WriteFile(path, []byte(text), 0o644))
	}
	return fsys
}

func newWorkspace(t *testing.T, fsys vfs.FS, opts ...Option) *Workspace {
	t.Helper()
	w := New(append([]Option{WithFS(fsys), WithLogger(discard())}, opts...)...)
	t.Cleanup(func() { _ = w.Shutdown() })
	return w
}

func TestOpenReturnsExistingDocument(t *testing.T) {
	fsys := newFS(t, map[string]string{"/b.txt": "bee", "/a.txt": "ay"})
	w := newWorkspace(t, fsys)

	a, err := w.Open("/a.txt")
	require.NoError(t, err)
	again, err := w.Open("/a.txt")
	require.NoError(t, err)
	assert.Same(t, a, again)

	b, err := w.Open("/b.txt")
	require.NoError(t, err)
	assert.Equal(t, []*textfile.TextFile{a, b}, w.Files())

	got, ok := w.Get(b.ID())
	require.True(t, ok)
	assert.Same(t, b, got)
	got, ok = w.Lookup("/b.txt")
	require.True(t, ok)
	assert.Same(t, b, got)

	require.NoError(t, w.Close(a.ID()))
	_, ok = w.Lookup("/a.txt")
	assert.False(t, ok)
	assert.ErrorIs(t, a.InsertText("x"), textfile.ErrClosed)
}

func TestOpenMissingFile(t *testing.T) {
	w := newWorkspace(t, vfs.NewMemFS())
	_, err := w.Open("/nope.txt")
	assert.Equal(t, vfs.NotFound, vfs.KindOf(err))
	assert.Empty(t, w.Files())
}

func TestSessionRoundTrip(t *testing.T) {
	fsys := newFS(t, map[string]string{"/src/main.go": "package main\r\n\r\nfunc main() {}\r\n"})
	w := newWorkspace(t, fsys)

	f, err := w.Open("/src/main.go")
	require.NoError(t, err)
	require.NoError(t, f.Select(0, 0, 0, 7))
	require.NoError(t, f.AddCursor(2, 5))
	st := f.Settings()
	st.WordWrap = true
	st.TabWidth = 8
	st.ScrollY = 40
	require.NoError(t, f.ApplySettings(st))
	w.SetActive("/src/main.go")
	require.NoError(t, w.SaveSession("/session.yaml"))

	data, err := fsys.ReadFile("/session.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "/src/main.go")
	assert.Contains(t, string(data), "line_ending: windows")

	s, err := LoadSession(fsys, "/session.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/src/main.go", s.Active)
	require.Contains(t, s.Files, "/src/main.go")

	w2 := newWorkspace(t, fsys, WithSession(s))
	g, err := w2.Open("/src/main.go")
	require.NoError(t, err)
	// Start is the active end, End the anchor.
	assert.Equal(t, []cursor.Data{
		{StartLine: 0, StartPosition: 7, EndLine: 0, EndPosition: 0},
		{StartLine: 2, StartPosition: 5, EndLine: 2, EndPosition: 5},
	}, g.CursorData())
	assert.True(t, g.Settings().WordWrap)
	assert.Equal(t, 8, g.Settings().TabWidth)
	assert.Equal(t, 40.0, g.Settings().ScrollY)
	assert.Equal(t, vfs.Windows, g.Settings().LineEnding)
	assert.Equal(t, "go", g.Language())
}

func TestRestoreKeepsDetectedFormat(t *testing.T) {
	fsys := newFS(t, map[string]string{"/a.txt": "one\ntwo"})
	s := NewSession()
	s.Files["/a.txt"] = FileState{
		Cursors: []cursor.Data{{StartLine: 5, StartPosition: 9, EndLine: 5, EndPosition: 9}},
		Settings: textfile.Settings{
			Encoding:   vfs.UTF16LE,
			LineEnding: vfs.MacOS,
			TabWidth:   2,
		},
	}
	w := newWorkspace(t, fsys, WithSession(s))

	f, err := w.Open("/a.txt")
	require.NoError(t, err)
	assert.Equal(t, vfs.UTF8, f.Settings().Encoding)
	assert.Equal(t, vfs.Unix, f.Settings().LineEnding)
	assert.Equal(t, 2, f.Settings().TabWidth)
	// Out-of-range cursors clamp to the end of the document.
	assert.Equal(t, []cursor.Data{{StartLine: 1, StartPosition: 3, EndLine: 1, EndPosition: 3}}, f.CursorData())
}

func TestRestoreAfterBackgroundLoad(t *testing.T) {
	s := scheduler.New(scheduler.WithWorkers(1), scheduler.WithLogger(discard()))
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})

	fsys := newFS(t, map[string]string{"/big.txt": "line\nline\nline\nline\n"})
	sess := NewSession()
	sess.Files["/big.txt"] = FileState{Cursors: []cursor.Data{{StartLine: 2, StartPosition: 1, EndLine: 2, EndPosition: 3}}}
	w := newWorkspace(t, fsys, WithSession(sess),
		WithFileOptions(textfile.WithScheduler(s), textfile.WithSyncLoadThreshold(1)))

	f, err := w.Open("/big.txt")
	require.NoError(t, err)
	want := []cursor.Data{{StartLine: 2, StartPosition: 1, EndLine: 2, EndPosition: 3}}
	require.Eventually(t, func() bool {
		return f.State() == textfile.Loaded && assert.ObjectsAreEqual(want, f.CursorData())
	}, 5*time.Second, 5*time.Millisecond)
}

func TestCloseCapturesState(t *testing.T) {
	fsys := newFS(t, map[string]string{"/a.txt": "hello"})
	w := newWorkspace(t, fsys)
	f, err := w.Open("/a.txt")
	require.NoError(t, err)
	require.NoError(t, f.SetCursor(0, 4))
	require.NoError(t, w.Close(f.ID()))

	s := w.Session()
	require.Contains(t, s.Files, "/a.txt")
	assert.Equal(t, []cursor.Data{{StartLine: 0, StartPosition: 4, EndLine: 0, EndPosition: 4}}, s.Files["/a.txt"].Cursors)
}

func TestHandleEvent(t *testing.T) {
	fsys := newFS(t, map[string]string{"/a.txt": "hello"})
	w := newWorkspace(t, fsys)
	f, err := w.Open("/a.txt")
	require.NoError(t, err)

	var changed []*textfile.TextFile
	w.OnExternalChange(func(f *textfile.TextFile) { changed = append(changed, f) })

	w.HandleEvent(watcher.Event{Path: "/other.txt", Op: watcher.OpWrite})
	assert.Empty(t, changed)
	assert.False(t, f.HasExternalChange())

	w.HandleEvent(watcher.Event{Path: "/a.txt", Op: watcher.OpWrite})
	assert.Equal(t, []*textfile.TextFile{f}, changed)
	assert.True(t, f.HasExternalChange())
}

func TestRunWithoutWatcher(t *testing.T) {
	w := newWorkspace(t, vfs.NewMemFS())
	assert.NoError(t, w.Run(context.Background()))
}

func TestLoadSession(t *testing.T) {
	fsys := vfs.NewMemFS()
	s, err := LoadSession(fsys, "/session.yaml")
	require.NoError(t, err)
	assert.Equal(t, NewSession(), s)

	require.NoError(t, fsys.WriteFile("/session.yaml", []byte("version: 99\n"), 0o644))
	_, err = LoadSession(fsys, "/session.yaml")
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	require.NoError(t, fsys.WriteFile("/session.yaml", []byte("files: [\n"), 0o644))
	_, err = LoadSession(fsys, "/session.yaml")
	assert.Error(t, err)

	require.NoError(t, fsys.WriteFile("/session.yaml", []byte("version: 1\n"), 0o644))
	s, err = LoadSession(fsys, "/session.yaml")
	require.NoError(t, err)
	assert.NotNil(t, s.Files)
}
