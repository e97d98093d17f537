package vfs

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// TextEncoding is a character encoding a document can be stored in.
type TextEncoding string

const (
	// UTF8 is UTF-8 without a byte order mark (default).
	UTF8 TextEncoding = "utf-8"

	// UTF8BOM is UTF-8 with a byte order mark.
	UTF8BOM TextEncoding = "utf-8-bom"

	// UTF16LE is UTF-16 little endian with a byte order mark.
	UTF16LE TextEncoding = "utf-16le"

	// UTF16BE is UTF-16 big endian with a byte order mark.
	UTF16BE TextEncoding = "utf-16be"

	// Latin1 is ISO-8859-1.
	Latin1 TextEncoding = "iso-8859-1"
)

// ParseEncoding returns the encoding with the given name.
func ParseEncoding(name string) (TextEncoding, error) {
	switch e := TextEncoding(name); e {
	case UTF8, UTF8BOM, UTF16LE, UTF16BE, Latin1:
		return e, nil
	case "", "utf8":
		return UTF8, nil
	}
	return "", fmt.Errorf("unknown encoding %q", name)
}

// LineEnding is the newline convention of a file.
type LineEnding int

// Line endings.
const (
	Unix LineEnding = iota
	Windows
	MacOS
	Mixed
)

func (l LineEnding) String() string {
	switch l {
	case Windows:
		return "windows"
	case MacOS:
		return "macos"
	case Mixed:
		return "mixed"
	default:
		return "unix"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l LineEnding) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *LineEnding) UnmarshalText(b []byte) error {
	switch string(b) {
	case "unix", "lf", "":
		*l = Unix
	case "windows", "crlf":
		*l = Windows
	case "macos", "cr":
		*l = MacOS
	case "mixed":
		*l = Mixed
	default:
		return fmt.Errorf("unknown line ending %q", b)
	}
	return nil
}

// Newline returns the bytes written for each '\n' when saving. Mixed
// files are saved with Unix newlines.
func (l LineEnding) Newline() []byte {
	switch l {
	case Windows:
		return []byte("\r\n")
	case MacOS:
		return []byte("\r")
	default:
		return []byte("\n")
	}
}

// Byte order marks.
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// sniffSize is how much of a file is examined to tell UTF-8 from Latin-1.
const sniffSize = 64 * 1024

// DetectEncoding detects the encoding of content from its byte order
// mark, then by validating UTF-8 over a prefix. Content that is not valid
// UTF-8 is taken to be Latin-1, which accepts every byte sequence.
func DetectEncoding(content []byte) TextEncoding {
	switch {
	case bytes.HasPrefix(content, bomUTF8):
		return UTF8BOM
	case bytes.HasPrefix(content, bomUTF16LE):
		return UTF16LE
	case bytes.HasPrefix(content, bomUTF16BE):
		return UTF16BE
	}
	sample := content
	if len(sample) >= sniffSize {
		sample = trimPartialRune(sample[:sniffSize])
	}
	if utf8.Valid(sample) {
		return UTF8
	}
	return Latin1
}

// trimPartialRune drops an incomplete UTF-8 sequence from the end of b.
func trimPartialRune(b []byte) []byte {
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if utf8.RuneStart(c) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			return b
		}
	}
	return b
}

func bomFor(enc TextEncoding) []byte {
	switch enc {
	case UTF8BOM:
		return bomUTF8
	case UTF16LE:
		return bomUTF16LE
	case UTF16BE:
		return bomUTF16BE
	}
	return nil
}

// codec returns the x/text encoding for enc, or nil for plain UTF-8.
// Byte order marks are handled separately.
func codec(enc TextEncoding) encoding.Encoding {
	switch enc {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case Latin1:
		return charmap.ISO8859_1
	}
	return nil
}

// DetectLineEnding classifies the newlines of content. Content without
// newlines is Unix.
func DetectLineEnding(content []byte) LineEnding {
	var n newlineNormalizer
	n.count(content)
	return n.lineEnding()
}

// Decode converts raw file content to UTF-8 text with '\n' newlines and
// reports the detected encoding and line ending.
func Decode(content []byte) ([]byte, TextEncoding, LineEnding, error) {
	enc := DetectEncoding(content)
	raw := content[len(bomFor(enc)):]
	if c := codec(enc); c != nil {
		var err error
		raw, err = c.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, enc, Unix, fmt.Errorf("decoding %s: %w", enc, err)
		}
	}
	var n newlineNormalizer
	text := n.normalize(make([]byte, 0, len(raw)), raw)
	text = n.flush(text)
	return text, enc, n.lineEnding(), nil
}

// Encode converts UTF-8 text with '\n' newlines to file content in enc
// with the given line ending. Characters enc cannot represent produce an
// error wrapping ErrUnencodable.
func Encode(text []byte, enc TextEncoding, le LineEnding) ([]byte, error) {
	if nl := le.Newline(); !bytes.Equal(nl, []byte{'\n'}) {
		text = bytes.ReplaceAll(text, []byte{'\n'}, nl)
	}
	if c := codec(enc); c != nil {
		var err error
		text, err = c.NewEncoder().Bytes(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnencodable, enc, err)
		}
	}
	if bom := bomFor(enc); bom != nil {
		out := make([]byte, 0, len(bom)+len(text))
		out = append(out, bom...)
		return append(out, text...), nil
	}
	return text, nil
}

// newlineNormalizer rewrites "\r\n" and "\r" to "\n" across a stream of
// blocks, counting each style.
type newlineNormalizer struct {
	pendingCR bool
	unix      int
	windows   int
	mac       int
}

func (n *newlineNormalizer) normalize(dst, src []byte) []byte {
	for _, c := range src {
		if n.pendingCR {
			n.pendingCR = false
			if c == '\n' {
				n.windows++
				dst = append(dst, '\n')
				continue
			}
			n.mac++
			dst = append(dst, '\n')
		}
		switch c {
		case '\r':
			n.pendingCR = true
		case '\n':
			n.unix++
			dst = append(dst, '\n')
		default:
			dst = append(dst, c)
		}
	}
	return dst
}

// count tallies newline styles without producing output.
func (n *newlineNormalizer) count(src []byte) {
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\r':
			if i+1 < len(src) && src[i+1] == '\n' {
				n.windows++
				i++
			} else {
				n.mac++
			}
		case '\n':
			n.unix++
		}
	}
}

// flush terminates the stream.
func (n *newlineNormalizer) flush(dst []byte) []byte {
	if n.pendingCR {
		n.pendingCR = false
		n.mac++
		dst = append(dst, '\n')
	}
	return dst
}

func (n *newlineNormalizer) lineEnding() LineEnding {
	styles := 0
	le := Unix
	if n.unix > 0 {
		styles++
	}
	if n.windows > 0 {
		styles++
		le = Windows
	}
	if n.mac > 0 {
		styles++
		le = MacOS
	}
	if styles > 1 {
		return Mixed
	}
	return le
}
