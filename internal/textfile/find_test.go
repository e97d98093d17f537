package textfile

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/textcore/internal/engine/cursor"
	"github.com/dshills/textcore/internal/search"
)

var regex = search.Options{Regex: true}

// threeChunks has matches in its first and last chunk only.
func threeChunks(t *testing.T, opts ...Option) *TextFile {
	t.Helper()
	lines := []string{
		"match01", "xxxxxxx", "xxxxxxx",
		"xxxxxxx", "xxxxxxx", "xxxxxxx",
		"xxxxxxx", "match02", "xxxxxxx",
	}
	f := newDoc(t, strings.Join(lines, "\n"), opts...)
	require.Equal(t, 3, f.ChunkCount())
	return f
}

func TestFindAllOrdersResults(t *testing.T) {
	f := threeChunks(t)
	require.NoError(t, f.SetCursor(8, 0))

	require.NoError(t, f.FindAll(`match\d+`, regex))
	assert.False(t, f.FindRunning())
	assert.Equal(t, []Match{
		{StartLine: 0, StartCol: 0, EndLine: 0, EndCol: 7},
		{StartLine: 7, StartCol: 0, EndLine: 7, EndCol: 7},
	}, f.Matches())

	// Nothing follows the cursor, so the search wraps to the first match.
	assert.Equal(t, []string{"match01"}, f.Selections())
	assert.Equal(t, []cursor.Data{sel(0, 0, 0, 7)}, f.CursorData())
}

func TestFindAllSelectsMatchAfterCursor(t *testing.T) {
	f := threeChunks(t)
	require.NoError(t, f.SetCursor(0, 3))

	require.NoError(t, f.FindAll("match", search.Options{}))
	assert.Equal(t, []cursor.Data{sel(7, 0, 7, 5)}, f.CursorData())
}

func TestFindAllRefreshesAfterEdit(t *testing.T) {
	f := threeChunks(t)
	require.NoError(t, f.FindAll("match", search.Options{}))
	require.Len(t, f.Matches(), 2)

	require.NoError(t, f.SetCursor(4, 0))
	require.NoError(t, f.InsertText("match03 "))
	assert.Len(t, f.Matches(), 3)
	assert.Equal(t, []cursor.Data{at(4, 8)}, f.CursorData(), "a refresh must not move the cursor")

	f.ClearFind()
	assert.Nil(t, f.Matches())
	_, err := f.SelectAllMatches(context.Background())
	assert.ErrorIs(t, err, ErrNoSearch)
}

func TestFindAllInBackground(t *testing.T) {
	s := newScheduler(t)
	f := threeChunks(t, WithScheduler(s))

	require.NoError(t, f.FindAll(`match\d+`, regex))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := f.SelectAllMatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"match01", "match02"}, f.Selections())
	assert.Len(t, f.Matches(), 2)
}

func TestFindAllInvalidPattern(t *testing.T) {
	f := newDoc(t, "abc")
	assert.ErrorIs(t, f.FindAll("(", regex), search.ErrInvalidPattern)
	assert.ErrorIs(t, f.FindAll("", search.Options{}), search.ErrEmptyPattern)
}

func TestFindMatchWraps(t *testing.T) {
	f := threeChunks(t)
	require.NoError(t, f.SetCursor(3, 0))

	ok, err := f.FindMatch("match", search.Options{}, cursor.Forward)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []cursor.Data{sel(7, 0, 7, 5)}, f.CursorData())

	ok, err = f.FindMatch("match", search.Options{}, cursor.Forward)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []cursor.Data{sel(0, 0, 0, 5)}, f.CursorData())

	ok, err = f.FindMatch("match", search.Options{}, cursor.Backward)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []cursor.Data{sel(7, 0, 7, 5)}, f.CursorData())

	ok, err = f.FindMatch("nothing", search.Options{}, cursor.Forward)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindMatchSingleChunk(t *testing.T) {
	f := newDoc(t, "ab ab")
	require.NoError(t, f.SetCursor(0, 4))

	ok, err := f.FindMatch("ab", search.Options{}, cursor.Forward)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []cursor.Data{sel(0, 0, 0, 2)}, f.CursorData())
}

func TestReplaceMatch(t *testing.T) {
	f := newDoc(t, "x=1; y=2")

	// The first call only selects the next match.
	replaced, err := f.ReplaceMatch(`(\w)=(\d)`, regex, "$2=$1")
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Equal(t, []string{"x=1"}, f.Selections())

	replaced, err = f.ReplaceMatch(`(\w)=(\d)`, regex, "$2=$1")
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, "1=x; y=2", f.Text())
	assert.Equal(t, []string{"y=2"}, f.Selections())
}

func TestReplaceAll(t *testing.T) {
	f := threeChunks(t)
	n, err := f.ReplaceAll(`match(?<n>\d+)`, regex, "hit-${n}")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "hit-01", f.Line(0))
	assert.Equal(t, "hit-02", f.Line(7))
	checkStore(t, f)

	require.NoError(t, f.Undo())
	assert.Equal(t, "match01", f.Line(0))
	assert.Equal(t, "match02", f.Line(7))
	assert.False(t, f.CanUndo())

	n, err = f.ReplaceAll("nothing", search.Options{}, "x")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, f.CanUndo())
}
