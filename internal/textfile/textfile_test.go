package textfile

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/textcore/internal/engine/cursor"
	"github.com/dshills/textcore/internal/scheduler"
	"github.com/dshills/textcore/internal/vfs"
)

func openDoc(t *testing.T, fsys vfs.FS, path string, opts ...Option) *TextFile {
	t.Helper()
	f, err := Open(path, append([]Option{quiet(), WithFS(fsys), WithChunkSize(64)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestOpenDetectsFormat(t *testing.T) {
	fsys := vfs.NewMemFS()
	require.NoError(t, fsys.WriteFile("/src/main.go", []byte("package main\r\n\r\nfunc main() {}\r\n"), 0o644))

	f := openDoc(t, fsys, "/src/main.go")
	assert.Equal(t, Loaded, f.State())
	assert.Equal(t, 1.0, f.LoadProgress())
	assert.Equal(t, "package main\n\nfunc main() {}\n", f.Text())
	assert.Equal(t, 4, f.LineCount())
	assert.Equal(t, "go", f.Language())
	assert.Equal(t, vfs.Windows, f.Settings().LineEnding)
	assert.Equal(t, vfs.UTF8, f.Settings().Encoding)
	assert.False(t, f.HasUnsavedChanges())
	assert.NotEmpty(t, f.Syntax(0))
	assert.NotEqual(t, f.ID(), New().ID())
}

func TestLoadSaveRoundTrip(t *testing.T) {
	for _, enc := range []vfs.TextEncoding{vfs.UTF8, vfs.UTF8BOM, vfs.UTF16LE, vfs.Latin1} {
		for _, le := range []vfs.LineEnding{vfs.Unix, vfs.Windows, vfs.MacOS} {
			data, err := vfs.Encode([]byte(strings.Repeat("ligne à éditer\n", 40)), enc, le)
			require.NoError(t, err)
			fsys := vfs.NewMemFS()
			require.NoError(t, fsys.WriteFile("/doc.txt", data, 0o644))

			f := openDoc(t, fsys, "/doc.txt")
			require.NoError(t, f.Save())

			saved, err := fsys.ReadFile("/doc.txt")
			require.NoError(t, err)
			assert.Equal(t, data, saved, "%s/%s", enc, le)
		}
	}
}

func TestOpenMissingFile(t *testing.T) {
	f, err := Open("/missing.txt", quiet(), WithFS(vfs.NewMemFS()))
	require.Error(t, err)
	assert.Equal(t, vfs.NotFound, vfs.KindOf(err))
	assert.Equal(t, LoadFailed, f.State())
	assert.Equal(t, err, f.LoadError())
	assert.Equal(t, "", f.Text())
	assert.ErrorIs(t, f.InsertText("x"), ErrNotLoaded)
	assert.ErrorIs(t, f.FindAll("x", regex), ErrNotLoaded)
}

// blockedScheduler returns a running one-worker scheduler whose worker is
// busy until release is called.
func blockedScheduler(t *testing.T) (*scheduler.Scheduler, func()) {
	t.Helper()
	s := scheduler.New(scheduler.WithWorkers(1), scheduler.WithLogger(discard()))
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})

	gate := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, s.Schedule(scheduler.Urgent, "block", func(context.Context) {
		close(started)
		<-gate
	}))
	<-started
	return s, func() { close(gate) }
}

func TestOpenLargeFileInBackground(t *testing.T) {
	text := strings.Repeat("some text on a line\n", 5000)
	fsys := vfs.NewMemFS()
	require.NoError(t, fsys.WriteFile("/big.txt", []byte(text), 0o644))

	s, release := blockedScheduler(t)
	f := openDoc(t, fsys, "/big.txt", WithScheduler(s), WithSyncLoadThreshold(1024))

	assert.Equal(t, Loading, f.State())
	assert.Zero(t, f.LoadProgress())
	assert.ErrorIs(t, f.InsertText("x"), ErrNotLoaded)

	release()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.WaitLoaded(ctx))
	assert.Equal(t, Loaded, f.State())
	assert.Equal(t, 1.0, f.LoadProgress())
	assert.Equal(t, text, f.Text())
	assert.Equal(t, 5001, f.LineCount())
	require.NoError(t, f.InsertText("x"))
}

func TestCloseWhileLoading(t *testing.T) {
	fsys := vfs.NewMemFS()
	require.NoError(t, fsys.WriteFile("/big.txt", []byte(strings.Repeat("x\n", 2000)), 0o644))

	s, release := blockedScheduler(t)
	f := openDoc(t, fsys, "/big.txt", WithScheduler(s), WithSyncLoadThreshold(1))
	require.NoError(t, f.Close())
	release()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.ErrorIs(t, f.WaitLoaded(ctx), ErrLoadCancelled)
	assert.Equal(t, LoadFailed, f.State())
}

func TestSaveFailureKeepsChanges(t *testing.T) {
	fsys := vfs.NewMemFS()
	require.NoError(t, fsys.WriteFile("/doc.txt", []byte("one"), 0o644))
	f := openDoc(t, fsys, "/doc.txt")
	require.NoError(t, f.InsertText("zero "))

	fsys.WriteErr = os.ErrPermission
	err := f.Save()
	require.Error(t, err)
	assert.Equal(t, vfs.AccessDenied, vfs.KindOf(err))
	assert.True(t, f.HasUnsavedChanges())

	fsys.WriteErr = nil
	require.NoError(t, f.Save())
	assert.False(t, f.HasUnsavedChanges())
	data, err := fsys.ReadFile("/doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "zero one", string(data))
}

// editingFS runs edit before each write, as if the user typed while the
// file was being saved.
type editingFS struct {
	*vfs.MemFS
	edit func()
}

func (e editingFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	if e.edit != nil {
		e.edit()
	}
	return e.MemFS.WriteFile(path, data, perm)
}

func TestSaveKeepsEditsMadeWhileWriting(t *testing.T) {
	mem := vfs.NewMemFS()
	require.NoError(t, mem.WriteFile("/doc.txt", []byte("one"), 0o644))
	fsys := &editingFS{MemFS: mem}
	f := openDoc(t, fsys, "/doc.txt")
	require.NoError(t, f.InsertText("zero "))

	fsys.edit = func() { require.NoError(t, f.InsertText("half ")) }
	require.NoError(t, f.Save())
	assert.True(t, f.HasUnsavedChanges())
	data, err := mem.ReadFile("/doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "zero one", string(data))

	fsys.edit = nil
	require.NoError(t, f.Save())
	assert.False(t, f.HasUnsavedChanges())
	data, err = mem.ReadFile("/doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "zero half one", string(data))
}

func TestOpenWithExplicitLanguage(t *testing.T) {
	fsys := vfs.NewMemFS()
	require.NoError(t, fsys.WriteFile("/notes.txt", []byte("package main\n"), 0o644))
	require.NoError(t, fsys.WriteFile("/tool.py", []byte("package main\n"), 0o644))

	assert.Equal(t, "go", openDoc(t, fsys, "/notes.txt", WithLanguage("go")).Language())
	assert.Equal(t, "go", openDoc(t, fsys, "/tool.py", WithLanguage("go")).Language())
	assert.Equal(t, "python", openDoc(t, fsys, "/tool.py").Language())
}

func TestSaveUnencodableText(t *testing.T) {
	fsys := vfs.NewMemFS()
	require.NoError(t, fsys.WriteFile("/doc.txt", []byte{'c', 'a', 'f', 0xE9}, 0o644))
	f := openDoc(t, fsys, "/doc.txt")
	require.Equal(t, vfs.Latin1, f.Settings().Encoding)

	require.NoError(t, f.InsertText("世界"))
	assert.Equal(t, vfs.Encoding, vfs.KindOf(f.Save()))
	assert.True(t, f.HasUnsavedChanges())
}

func TestSaveAsUntitled(t *testing.T) {
	fsys := vfs.NewMemFS()
	f := New(quiet(), WithFS(fsys))
	require.NoError(t, f.InsertText("package x\n"))
	assert.ErrorIs(t, f.Save(), ErrNoPath)

	require.NoError(t, f.SaveAs("/x.go"))
	assert.Equal(t, "/x.go", f.Path())
	assert.Equal(t, "go", f.Language())
	assert.True(t, f.Highlighted())
	assert.NotEmpty(t, f.Syntax(0))
	assert.False(t, f.HasUnsavedChanges())
}

func TestExternalChangeAndReload(t *testing.T) {
	fsys := vfs.NewMemFS()
	require.NoError(t, fsys.WriteFile("/doc.txt", []byte("one\ntwo\nthree"), 0o644))
	f := openDoc(t, fsys, "/doc.txt")
	require.NoError(t, f.SetCursor(2, 3))
	require.NoError(t, f.InsertText("!"))
	assert.False(t, f.HasExternalChange())

	require.NoError(t, fsys.WriteFile("/doc.txt", []byte("uno\ndos"), 0o644))
	require.NoError(t, fsys.Touch("/doc.txt", time.Now().Add(time.Minute)))
	assert.True(t, f.HasExternalChange())

	require.NoError(t, f.Reload())
	assert.Equal(t, "uno\ndos", f.Text())
	assert.Equal(t, []cursor.Data{at(1, 3)}, f.CursorData())
	assert.False(t, f.CanUndo())
	assert.False(t, f.HasUnsavedChanges())
	assert.False(t, f.HasExternalChange())

	f.NotifyExternalChange()
	assert.True(t, f.HasExternalChange())
}

func TestApplySettings(t *testing.T) {
	f := newDoc(t, "\tab")
	assert.Equal(t, 6.0, f.LineWidth(0))

	st := f.Settings()
	st.TabWidth = 8
	st.WordWrap = true
	st.ScrollY = 12
	require.NoError(t, f.ApplySettings(st))
	assert.Equal(t, 10.0, f.LineWidth(0))
	assert.True(t, f.Settings().WordWrap)
	assert.Equal(t, 12.0, f.Settings().ScrollY)

	st.Encoding = "ebcdic"
	assert.Error(t, f.ApplySettings(st))
}

func TestWrappedLineMotion(t *testing.T) {
	f := newDoc(t, "abcdefghij\nxy", WithWordWrap(true))
	f.SetWrapWidth(4)

	require.NoError(t, f.SetCursor(0, 1))
	require.NoError(t, f.MoveLine(1, false))
	assert.Equal(t, []cursor.Data{at(0, 5)}, f.CursorData())
}
