package highlight

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/lexers"
)

// Registry manages available highlighters.
type Registry struct {
	mu sync.RWMutex

	// byLanguage maps language names to factories
	byLanguage map[string]Factory

	// byExtension maps file extensions to language names
	byExtension map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byLanguage:  make(map[string]Factory),
		byExtension: make(map[string]string),
	}
}

// DefaultRegistry returns a registry with the built-in languages.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	if err := loadBuiltin(r); err != nil {
		// Built-in definitions are compiled in; failure is a build defect.
		panic(fmt.Sprintf("highlight: loading built-in languages: %v", err))
	}
	return r
}

// Register adds a factory for language and its file extensions.
func (r *Registry) Register(language string, extensions []string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	language = strings.ToLower(language)
	r.byLanguage[language] = f
	for _, ext := range extensions {
		r.byExtension[normalizeExt(ext)] = language
	}
}

// RegisterLanguage builds and registers a declarative definition.
func (r *Registry) RegisterLanguage(lang *Language) error {
	h, err := lang.Build()
	if err != nil {
		return err
	}
	r.Register(lang.Name, lang.Extensions, h.Factory())
	return nil
}

// LoadDir registers every *.toml and *.lua language definition in dir.
// A missing directory is not an error.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		var lang *Language
		switch filepath.Ext(e.Name()) {
		case ".toml":
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			lang, err = ParseLanguage(data)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
		case ".lua":
			lang, err = LoadLuaLanguage(p)
			if err != nil {
				return err
			}
		default:
			continue
		}
		if err := r.RegisterLanguage(lang); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// ByLanguage returns the factory for a language name.
func (r *Registry) ByLanguage(language string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byLanguage[strings.ToLower(language)]
	return f, ok
}

// ByExtension returns the language name and factory for a file extension.
// Extensions without a registered language are resolved through chroma's
// lexer table, so ".golang"-style aliases known to chroma still map to a
// registered language of the same name.
func (r *Registry) ByExtension(ext string) (string, Factory, bool) {
	if ext == "" {
		return "", nil, false
	}
	ext = normalizeExt(ext)

	r.mu.RLock()
	lang, ok := r.byExtension[ext]
	if ok {
		f := r.byLanguage[lang]
		r.mu.RUnlock()
		return lang, f, true
	}
	r.mu.RUnlock()

	lexer := lexers.Match("file" + ext)
	if lexer == nil {
		return "", nil, false
	}
	cfg := lexer.Config()
	names := append([]string{cfg.Name}, cfg.Aliases...)
	for _, name := range names {
		if f, ok := r.ByLanguage(name); ok {
			return strings.ToLower(name), f, true
		}
	}
	return "", nil, false
}

// ByPath resolves a highlighter from a file path's extension.
func (r *Registry) ByPath(path string) (string, Factory, bool) {
	return r.ByExtension(filepath.Ext(path))
}

// Languages returns all registered language names, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	langs := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	return ext
}
