package highlight

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultThemeName is the chroma style used when none is configured.
const DefaultThemeName = "monokai"

// Theme maps token classes to display attributes using a chroma style.
type Theme struct {
	style *chroma.Style
}

// NewTheme looks up a chroma style by name, falling back to chroma's
// default style for unknown names.
func NewTheme(name string) *Theme {
	if name == "" {
		name = DefaultThemeName
	}
	return &Theme{style: styles.Get(name)}
}

// Name returns the name of the underlying style.
func (t *Theme) Name() string {
	return t.style.Name
}

// Colour returns the foreground colour for class as "#rrggbb", or "" if
// the style leaves it unset.
func (t *Theme) Colour(class chroma.TokenType) string {
	entry := t.style.Get(class)
	if !entry.Colour.IsSet() {
		return ""
	}
	return entry.Colour.String()
}

// Bold reports whether the style renders class in bold.
func (t *Theme) Bold(class chroma.TokenType) bool {
	return t.style.Get(class).Bold == chroma.Yes
}

// Italic reports whether the style renders class in italics.
func (t *Theme) Italic(class chroma.TokenType) bool {
	return t.style.Get(class).Italic == chroma.Yes
}
