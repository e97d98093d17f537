package vfs

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    TextEncoding
	}{
		{"empty", nil, UTF8},
		{"ascii", []byte("hello"), UTF8},
		{"utf8", []byte("héllo"), UTF8},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "hi"...), UTF8BOM},
		{"utf16le", []byte{0xFF, 0xFE, 'h', 0}, UTF16LE},
		{"utf16be", []byte{0xFE, 0xFF, 0, 'h'}, UTF16BE},
		{"latin1", []byte{'c', 'a', 'f', 0xE9}, Latin1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectEncoding(tt.content))
		})
	}
}

func TestDetectEncodingIgnoresRuneCutBySample(t *testing.T) {
	content := append(bytes.Repeat([]byte("a"), sniffSize-1), "é and more"...)
	assert.Equal(t, UTF8, DetectEncoding(content))
}

func TestDetectLineEnding(t *testing.T) {
	tests := []struct {
		content string
		want    LineEnding
	}{
		{"", Unix},
		{"one line", Unix},
		{"a\nb\n", Unix},
		{"a\r\nb\r\n", Windows},
		{"a\rb\r", MacOS},
		{"a\r\nb\n", Mixed},
		{"a\rb\n", Mixed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLineEnding([]byte(tt.content)), "%q", tt.content)
	}
}

func TestLineEndingText(t *testing.T) {
	for _, le := range []LineEnding{Unix, Windows, MacOS, Mixed} {
		b, err := le.MarshalText()
		require.NoError(t, err)
		var got LineEnding
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, le, got)
	}
	var le LineEnding
	require.NoError(t, le.UnmarshalText([]byte("crlf")))
	assert.Equal(t, Windows, le)
	assert.Error(t, le.UnmarshalText([]byte("nope")))
}

func TestDecode(t *testing.T) {
	// "a\r\nb" in UTF-16LE with a byte order mark.
	content := []byte{0xFF, 0xFE, 'a', 0, '\r', 0, '\n', 0, 'b', 0}
	text, enc, le, err := Decode(content)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", string(text))
	assert.Equal(t, UTF16LE, enc)
	assert.Equal(t, Windows, le)

	text, enc, le, err = Decode([]byte{'c', 'a', 'f', 0xE9, '\r'})
	require.NoError(t, err)
	assert.Equal(t, "café\n", string(text))
	assert.Equal(t, Latin1, enc)
	assert.Equal(t, MacOS, le)
}

func TestEncodeRoundTrip(t *testing.T) {
	const text = "first é\nsecond\n"
	for _, enc := range []TextEncoding{UTF8, UTF8BOM, UTF16LE, UTF16BE, Latin1} {
		for _, le := range []LineEnding{Unix, Windows, MacOS} {
			data, err := Encode([]byte(text), enc, le)
			require.NoError(t, err)

			got, gotEnc, gotLE, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, text, string(got), "%s/%s", enc, le)
			assert.Equal(t, enc, gotEnc)
			assert.Equal(t, le, gotLE)
		}
	}
}

func TestEncodeMixedSavesUnix(t *testing.T) {
	data, err := Encode([]byte("a\nb"), UTF8, Mixed)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", string(data))
}

func TestEncodeUnrepresentable(t *testing.T) {
	_, err := Encode([]byte("世界"), Latin1, Unix)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnencodable)
	assert.Equal(t, Encoding, KindOf(err))
}

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("utf-16be")
	require.NoError(t, err)
	assert.Equal(t, UTF16BE, enc)

	enc, err = ParseEncoding("")
	require.NoError(t, err)
	assert.Equal(t, UTF8, enc)

	_, err = ParseEncoding("ebcdic")
	assert.Error(t, err)
}

func TestOSWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	require.NoError(t, WriteText(OS{}, path, []byte("new\ntext"), UTF8, Windows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\r\ntext", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestWriteTextErrors(t *testing.T) {
	dir := t.TempDir()
	err := WriteText(OS{}, filepath.Join(dir, "missing", "doc.txt"), []byte("x"), UTF8, Unix)
	require.Error(t, err)

	var fe *FileError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, NotFound, fe.Kind)
	assert.Equal(t, "write", fe.Op)
	assert.Contains(t, fe.Error(), "file not found")

	err = WriteText(OS{}, filepath.Join(dir, "doc.txt"), []byte("世"), Latin1, Unix)
	assert.Equal(t, Encoding, KindOf(err))
}

func TestReadText(t *testing.T) {
	fsys := NewMemFS()
	_, _, _, err := ReadText(fsys, "/nope")
	assert.Equal(t, NotFound, KindOf(err))

	require.NoError(t, fsys.WriteFile("/a.txt", []byte("x\r\ny"), 0o644))
	text, enc, le, err := ReadText(fsys, "/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "x\ny", string(text))
	assert.Equal(t, UTF8, enc)
	assert.Equal(t, Windows, le)
}

func TestGetFileFlags(t *testing.T) {
	fsys := NewMemFS()
	flags, err := GetFileFlags(fsys, "/doc")
	require.NoError(t, err)
	assert.False(t, flags.Exists)

	require.NoError(t, fsys.WriteFile("/doc", []byte("abc"), 0o644))
	flags, err = GetFileFlags(fsys, "/doc")
	require.NoError(t, err)
	assert.True(t, flags.Exists)
	assert.Equal(t, int64(3), flags.Size)

	later := flags.ModTime.Add(time.Second)
	require.NoError(t, fsys.Touch("/doc", later))
	again, err := GetFileFlags(fsys, "/doc")
	require.NoError(t, err)
	assert.True(t, again.Changed(flags))
	assert.False(t, again.Changed(again))
}

func TestMemFSWriteErr(t *testing.T) {
	fsys := NewMemFS()
	fsys.WriteErr = os.ErrPermission
	err := WriteText(fsys, "/doc", []byte("x"), UTF8, Unix)
	assert.Equal(t, AccessDenied, KindOf(err))
	assert.Error(t, fsys.Remove("/doc"))
}

func TestTextReaderStreams(t *testing.T) {
	// The first block ends on the '\r' of a "\r\n" pair.
	content := strings.Repeat("x", DefaultBlockSize-1) + "\r\nmiddle\r\ntail\r"
	fsys := NewMemFS()
	require.NoError(t, fsys.WriteFile("/big", []byte(content), 0o644))

	r, err := OpenText(fsys, "/big")
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, UTF8, r.Encoding())

	var out []byte
	blocks := 0
	for {
		b, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		out = append(out, b...)
		blocks++
	}
	assert.GreaterOrEqual(t, blocks, 2)

	want, _, _, err := Decode([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(out))
	assert.Equal(t, Mixed, r.LineEnding())
	assert.Equal(t, 1.0, r.Progress())
}

func TestTextReaderUTF16(t *testing.T) {
	data, err := Encode([]byte("héllo\nwörld"), UTF16BE, Windows)
	require.NoError(t, err)
	fsys := NewMemFS()
	require.NoError(t, fsys.WriteFile("/u16", data, 0o644))

	r, err := OpenText(fsys, "/u16")
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, UTF16BE, r.Encoding())

	var out []byte
	for {
		b, err := r.Next()
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
		out = append(out, b...)
	}
	assert.Equal(t, "héllo\nwörld", string(out))
	assert.Equal(t, Windows, r.LineEnding())
}

func TestOpenTextMissing(t *testing.T) {
	_, err := OpenText(NewMemFS(), "/missing")
	assert.Equal(t, NotFound, KindOf(err))
}
