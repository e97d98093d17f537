package vfs

import (
	"bufio"
	"errors"
	"io"
	"sync/atomic"

	"golang.org/x/text/transform"
)

// DefaultBlockSize is the number of raw bytes a TextReader reads per block.
const DefaultBlockSize = 64 * 1024

// TextReader streams a file as UTF-8 text with '\n' newlines, so a large
// file can be loaded block by block while progress is reported.
type TextReader struct {
	path  string
	file  io.ReadCloser
	src   io.Reader
	total int64
	read  atomic.Int64
	enc   TextEncoding
	nl    newlineNormalizer
	buf   []byte
	done  bool
}

// countingReader counts the raw bytes read from the file.
type countingReader struct {
	r io.Reader
	n *atomic.Int64
}

func (c countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// OpenText opens path for streaming. The encoding is detected from the
// first block of the file.
func OpenText(fsys FS, path string) (*TextReader, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, wrap("open", path, err)
	}
	f, err := fsys.Open(path)
	if err != nil {
		return nil, wrap("open", path, err)
	}

	t := &TextReader{path: path, file: f, total: info.Size, buf: make([]byte, DefaultBlockSize)}
	br := bufio.NewReaderSize(countingReader{r: f, n: &t.read}, sniffSize)
	head, err := br.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		_ = f.Close()
		return nil, wrap("read", path, err)
	}
	t.enc = DetectEncoding(head)
	if _, err := br.Discard(len(bomFor(t.enc))); err != nil {
		_ = f.Close()
		return nil, wrap("read", path, err)
	}

	t.src = br
	if c := codec(t.enc); c != nil {
		t.src = transform.NewReader(br, c.NewDecoder())
	}
	return t, nil
}

// Next returns the next block of text. It returns io.EOF after the last
// block. The returned slice is owned by the caller.
func (t *TextReader) Next() ([]byte, error) {
	if t.done {
		return nil, io.EOF
	}
	n, err := t.src.Read(t.buf)
	out := t.nl.normalize(make([]byte, 0, n+1), t.buf[:n])
	if errors.Is(err, io.EOF) {
		t.done = true
		out = t.nl.flush(out)
		if len(out) == 0 {
			return nil, io.EOF
		}
		return out, nil
	}
	if err != nil {
		return nil, wrap("read", t.path, err)
	}
	return out, nil
}

// Progress returns the fraction of the file read so far, from 0 to 1.
func (t *TextReader) Progress() float64 {
	if t.total <= 0 {
		if t.done {
			return 1
		}
		return 0
	}
	return min(1, float64(t.read.Load())/float64(t.total))
}

// Encoding returns the detected encoding.
func (t *TextReader) Encoding() TextEncoding {
	return t.enc
}

// LineEnding returns the line ending seen so far; it is final once Next
// has returned io.EOF.
func (t *TextReader) LineEnding() LineEnding {
	return t.nl.lineEnding()
}

// Close closes the file.
func (t *TextReader) Close() error {
	return t.file.Close()
}
