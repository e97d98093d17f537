package highlight

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, []string{"c", "go", "lua", "python"}, r.Languages())

	tests := []struct {
		path string
		lang string
	}{
		{"main.go", "go"},
		{"x.H", "c"},
		{"script.py", "python"},
		{"init.lua", "lua"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			lang, f, ok := r.ByPath(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.lang, lang)
			assert.Equal(t, tt.lang, f().Language())
		})
	}
}

func TestRegistryChromaFallback(t *testing.T) {
	r := DefaultRegistry()

	// .pyi is not in the python definition but chroma maps it to Python.
	lang, f, ok := r.ByExtension("pyi")
	require.True(t, ok)
	assert.Equal(t, "python", lang)
	assert.NotNil(t, f)

	_, _, ok = r.ByExtension(".definitely-not-a-language")
	assert.False(t, ok)
	_, _, ok = r.ByExtension("")
	assert.False(t, ok)
}

func TestParseLanguage(t *testing.T) {
	data := []byte(`
name = "ini"
extensions = [".ini"]

[keywords]
"keyword.constant" = ["true", "false"]

[[tokens]]
start = ";"
class = "comment"
`)
	lang, err := ParseLanguage(data)
	require.NoError(t, err)
	assert.Equal(t, "ini", lang.Name)

	h, err := lang.Build()
	require.NoError(t, err)
	_, spans, _ := h.ParseLine([]byte("true ; note"), 0, h.DefaultState())
	assert.Equal(t, chroma.KeywordConstant, spans[0].Class)
	assert.Equal(t, chroma.Comment, spans[len(spans)-1].Class)
}

func TestParseLanguageErrors(t *testing.T) {
	_, err := ParseLanguage([]byte(`extensions = [".x"]`))
	assert.ErrorIs(t, err, ErrNoName)

	_, err = ParseLanguage([]byte(`name = `))
	assert.Error(t, err)

	lang := &Language{Name: "bad", Keywords: map[string][]string{"sparkly": {"x"}}}
	_, err = lang.Build()
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestParseClass(t *testing.T) {
	c, err := ParseClass("Comment.Single")
	require.NoError(t, err)
	assert.Equal(t, chroma.CommentSingle, c)

	c, err = ParseClass("LiteralStringDouble")
	require.NoError(t, err)
	assert.Equal(t, chroma.LiteralStringDouble, c)
}

func TestLuaLanguage(t *testing.T) {
	lang, err := LoadLuaLanguageString("ini.lua", `
return {
  name = "ini",
  extensions = { ".ini", ".cfg" },
  keywords = { ["keyword.constant"] = { "true", "false" } },
  tokens = {
    { start = ";", class = "comment" },
    { start = '"', ["end"] = '"', escape = "\\", class = "string" },
  },
}`)
	require.NoError(t, err)
	assert.Equal(t, []string{".ini", ".cfg"}, lang.Extensions)
	require.Len(t, lang.Tokens, 2)
	assert.Equal(t, `\`, lang.Tokens[1].Escape)

	r := NewRegistry()
	require.NoError(t, r.RegisterLanguage(lang))
	_, f, ok := r.ByExtension(".cfg")
	require.True(t, ok)

	h := f()
	_, spans, _ := h.ParseLine([]byte(`"a\"b" ; x`), 0, h.DefaultState())
	assert.Equal(t, Span{Class: chroma.LiteralString, Start: 0, End: 6}, spans[0])
}

func TestLuaLanguageSandbox(t *testing.T) {
	_, err := LoadLuaLanguageString("evil.lua", `os.execute("true") return {}`)
	assert.Error(t, err)

	_, err = LoadLuaLanguageString("notable.lua", `return 42`)
	assert.Error(t, err)

	_, err = LoadLuaLanguageString("noname.lua", `return { extensions = { ".x" } }`)
	assert.ErrorIs(t, err, ErrNoName)
}

func TestRegistryLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ini.toml"), []byte("name = \"ini\"\nextensions = [\".ini\"]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conf.lua"), []byte(`return { name = "conf", extensions = { "conf" } }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("ignored"), 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadDir(dir))
	assert.Equal(t, []string{"conf", "ini"}, r.Languages())

	lang, _, ok := r.ByExtension(".conf")
	require.True(t, ok)
	assert.Equal(t, "conf", lang)

	assert.NoError(t, r.LoadDir(filepath.Join(dir, "missing")))
}

func TestTheme(t *testing.T) {
	th := NewTheme("")
	assert.Equal(t, DefaultThemeName, th.Name())
	assert.Equal(t, "#66d9ef", th.Colour(chroma.Keyword))

	fallback := NewTheme("no-such-theme")
	assert.Equal(t, styles.Fallback.Name, fallback.Name())
}
