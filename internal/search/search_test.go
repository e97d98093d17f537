package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spans(ms []Match) [][2]int {
	out := make([][2]int, len(ms))
	for i, m := range ms {
		out[i] = [2]int{m.Start, m.End}
	}
	return out
}

func TestNew(t *testing.T) {
	_, err := New("", Options{})
	assert.ErrorIs(t, err, ErrEmptyPattern)

	_, err = New("a(b", Options{Regex: true})
	assert.ErrorIs(t, err, ErrInvalidPattern)

	m, err := New("a(b", Options{})
	require.NoError(t, err)
	assert.IsType(t, &Plain{}, m)
	assert.Equal(t, "a(b", m.Pattern())

	m, err = New(`a\d`, Options{Regex: true})
	require.NoError(t, err)
	assert.IsType(t, &Regex{}, m)
}

func TestRegexFind(t *testing.T) {
	re, err := Compile(`b\w+`, Options{})
	require.NoError(t, err)

	text := []byte("foo bar baz")
	m, ok := re.Find(text, 0)
	require.True(t, ok)
	assert.Equal(t, [2]int{4, 7}, [2]int{m.Start, m.End})

	m, ok = re.Find(text, 5)
	require.True(t, ok)
	assert.Equal(t, [2]int{8, 11}, [2]int{m.Start, m.End})

	_, ok = re.Find(text, 9)
	assert.False(t, ok)
}

func TestRegexFindLast(t *testing.T) {
	re, err := Compile(`b\w+`, Options{})
	require.NoError(t, err)

	text := []byte("foo bar baz")
	m, ok := re.FindLast(text, len(text))
	require.True(t, ok)
	assert.Equal(t, [2]int{8, 11}, [2]int{m.Start, m.End})

	m, ok = re.FindLast(text, 8)
	require.True(t, ok)
	assert.Equal(t, [2]int{4, 7}, [2]int{m.Start, m.End})

	_, ok = re.FindLast(text, 3)
	assert.False(t, ok)
}

func TestRegexByteOffsetsWithMultibyteText(t *testing.T) {
	re, err := Compile(`ö+`, Options{})
	require.NoError(t, err)

	// "größe öö": 'ö' is two bytes and 'ß' is two bytes.
	text := []byte("größe öö")
	all := re.FindAll(text)
	assert.Equal(t, [][2]int{{2, 4}, {8, 12}}, spans(all))
	assert.Equal(t, "öö", string(text[all[1].Start:all[1].End]))

	// A start offset inside a character moves to the next one.
	m, ok := re.Find(text, 3)
	require.True(t, ok)
	assert.Equal(t, 8, m.Start)

	// A limit inside a character cuts the match before that character.
	m, ok = re.FindLast(text, 11)
	require.True(t, ok)
	assert.Equal(t, [2]int{8, 10}, [2]int{m.Start, m.End})
}

func TestRegexCaseInsensitiveAndLines(t *testing.T) {
	re, err := Compile(`^foo`, Options{CaseInsensitive: true})
	require.NoError(t, err)

	text := []byte("FOO\nbar foo\nFoo")
	assert.Equal(t, [][2]int{{0, 3}, {12, 15}}, spans(re.FindAll(text)))
}

func TestRegexWholeWord(t *testing.T) {
	re, err := Compile(`cat|dog`, Options{WholeWord: true})
	require.NoError(t, err)

	text := []byte("cats dog hotdog cat")
	assert.Equal(t, [][2]int{{5, 8}, {16, 19}}, spans(re.FindAll(text)))
}

func TestRegexGroupsAndExpand(t *testing.T) {
	re, err := Compile(`(?<key>\w+)=(\d+)`, Options{})
	require.NoError(t, err)
	assert.Contains(t, re.GroupNames(), "key")

	text := []byte("x: width=42;")
	m, ok := re.Find(text, 0)
	require.True(t, ok)

	key, ok := m.Group("key")
	require.True(t, ok)
	assert.Equal(t, "width", string(text[key.Start:key.End]))

	tests := []struct {
		template string
		want     string
	}{
		{"${key}:$1", "width:42"},
		{"$0", "width=42"},
		{"$$${1}", "$42"},
		{"$9-$nope-${missing", "-$nope-${missing"},
		{"end$", "end$"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Expand(m, text, tt.template), tt.template)
	}
}

func TestRegexUnmatchedGroup(t *testing.T) {
	re, err := Compile(`a(x)?b`, Options{})
	require.NoError(t, err)

	text := []byte("ab")
	m, ok := re.Find(text, 0)
	require.True(t, ok)
	g, ok := m.Group("1")
	require.True(t, ok)
	assert.False(t, g.Matched)
	assert.Equal(t, "[]", Expand(m, text, "[$1]"))
}

func TestPlainFind(t *testing.T) {
	p := NewPlain("ab", Options{})
	text := []byte("abxab")

	m, ok := p.Find(text, 0)
	require.True(t, ok)
	assert.Equal(t, 0, m.Start)

	m, ok = p.Find(text, 1)
	require.True(t, ok)
	assert.Equal(t, [2]int{3, 5}, [2]int{m.Start, m.End})

	m, ok = p.FindLast(text, 4)
	require.True(t, ok)
	assert.Equal(t, 0, m.Start)

	_, ok = p.Find(text, 6)
	assert.False(t, ok)
	assert.Equal(t, [][2]int{{0, 2}, {3, 5}}, spans(p.FindAll(text)))
}

func TestPlainCaseInsensitive(t *testing.T) {
	p := NewPlain("ÄBC", Options{CaseInsensitive: true})
	text := []byte("xx äbc ÄBc abc")
	assert.Equal(t, [][2]int{{3, 7}, {8, 12}}, spans(p.FindAll(text)))

	// Case matters without the option.
	assert.Empty(t, NewPlain("ABC", Options{}).FindAll([]byte("abc")))
}

func TestPlainWholeWord(t *testing.T) {
	p := NewPlain("id", Options{WholeWord: true})
	text := []byte("id ids _id (id)")
	assert.Equal(t, [][2]int{{0, 2}, {12, 14}}, spans(p.FindAll(text)))

	m, ok := p.FindLast(text, len(text))
	require.True(t, ok)
	assert.Equal(t, 12, m.Start)
}

func TestPlainOverlappingNeedle(t *testing.T) {
	p := NewPlain("aa", Options{})
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}}, spans(p.FindAll([]byte("aaaaa"))))

	m, ok := p.FindLast([]byte("aaaaa"), 5)
	require.True(t, ok)
	assert.Equal(t, 3, m.Start)
}
