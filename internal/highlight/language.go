package highlight

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/pelletier/go-toml/v2"
)

//go:embed languages/*.toml
var builtinLanguages embed.FS

// Errors returned while loading language definitions.
var (
	ErrNoName       = errors.New("language definition has no name")
	ErrUnknownClass = errors.New("unknown token class")
)

// Language is a declarative KeywordHighlighter definition, loaded from
// TOML files or Lua scripts.
type Language struct {
	Name       string              `toml:"name"`
	Extensions []string            `toml:"extensions"`
	Numbers    bool                `toml:"numbers"`
	Keywords   map[string][]string `toml:"keywords"`
	Tokens     []TokenDef          `toml:"tokens"`
}

// TokenDef is the declarative form of a TokenRule.
type TokenDef struct {
	Start     string `toml:"start"`
	End       string `toml:"end"`
	Class     string `toml:"class"`
	Escape    string `toml:"escape"`
	MultiLine bool   `toml:"multiline"`
}

// classNames maps the short names used in definitions to chroma classes.
var classNames = map[string]chroma.TokenType{
	"text":                chroma.Text,
	"keyword":             chroma.Keyword,
	"keyword.type":        chroma.KeywordType,
	"keyword.constant":    chroma.KeywordConstant,
	"keyword.declaration": chroma.KeywordDeclaration,
	"keyword.namespace":   chroma.KeywordNamespace,
	"name.builtin":        chroma.NameBuiltin,
	"string":              chroma.LiteralString,
	"string.char":         chroma.LiteralStringChar,
	"string.backtick":     chroma.LiteralStringBacktick,
	"string.doc":          chroma.LiteralStringDoc,
	"number":              chroma.LiteralNumber,
	"comment":             chroma.Comment,
	"comment.single":      chroma.CommentSingle,
	"comment.multiline":   chroma.CommentMultiline,
	"comment.preproc":     chroma.CommentPreproc,
	"operator":            chroma.Operator,
	"punctuation":         chroma.Punctuation,
}

// ParseClass resolves a class name. Short names from the table above are
// accepted, as are chroma's own type names such as "LiteralStringDouble".
func ParseClass(name string) (chroma.TokenType, error) {
	if t, ok := classNames[strings.ToLower(name)]; ok {
		return t, nil
	}
	if t, err := chroma.TokenTypeString(name); err == nil {
		return t, nil
	}
	return chroma.Text, fmt.Errorf("%w: %q", ErrUnknownClass, name)
}

// ParseLanguage decodes a TOML language definition.
func ParseLanguage(data []byte) (*Language, error) {
	var lang Language
	if err := toml.Unmarshal(data, &lang); err != nil {
		return nil, fmt.Errorf("parsing language definition: %w", err)
	}
	if lang.Name == "" {
		return nil, ErrNoName
	}
	return &lang, nil
}

// Build compiles the definition into a highlighter.
func (l *Language) Build() (*KeywordHighlighter, error) {
	if l.Name == "" {
		return nil, ErrNoName
	}
	h := NewKeywordHighlighter(l.Name)
	if l.Numbers {
		h.WithNumbers()
	}

	// Deterministic order so duplicated words resolve the same way every time.
	classes := make([]string, 0, len(l.Keywords))
	for class := range l.Keywords {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, name := range classes {
		class, err := ParseClass(name)
		if err != nil {
			return nil, fmt.Errorf("language %s: %w", l.Name, err)
		}
		h.AddKeywords(class, l.Keywords[name]...)
	}

	for _, def := range l.Tokens {
		class, err := ParseClass(def.Class)
		if err != nil {
			return nil, fmt.Errorf("language %s: %w", l.Name, err)
		}
		if def.Start == "" {
			return nil, fmt.Errorf("language %s: token %q has no start marker", l.Name, def.Class)
		}
		var escape byte
		if def.Escape != "" {
			escape = def.Escape[0]
		}
		h.AddToken(TokenRule{
			Start:     def.Start,
			End:       def.End,
			Class:     class,
			Escape:    escape,
			MultiLine: def.MultiLine,
		})
	}
	return h, nil
}

// loadBuiltin registers every embedded language definition.
func loadBuiltin(r *Registry) error {
	entries, err := fs.ReadDir(builtinLanguages, "languages")
	if err != nil {
		return err
	}
	for _, e := range entries {
		data, err := builtinLanguages.ReadFile(path.Join("languages", e.Name()))
		if err != nil {
			return err
		}
		lang, err := ParseLanguage(data)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name(), err)
		}
		if err := r.RegisterLanguage(lang); err != nil {
			return err
		}
	}
	return nil
}
