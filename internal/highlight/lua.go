package highlight

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// LoadLuaLanguage runs a Lua language script and converts the table it
// returns into a Language. The script runs with only the base, table,
// string and math libraries opened.
//
// Example script:
//
//	return {
//	  name = "ini",
//	  extensions = { ".ini" },
//	  keywords = { ["keyword.constant"] = { "true", "false" } },
//	  tokens = { { start = ";", class = "comment" } },
//	}
func LoadLuaLanguage(path string) (*Language, error) {
	L := newLuaState()
	defer L.Close()

	if err := L.DoFile(path); err != nil {
		return nil, fmt.Errorf("running %s: %w", path, err)
	}
	return languageFromStack(L, path)
}

// LoadLuaLanguageString is LoadLuaLanguage for an in-memory script.
func LoadLuaLanguageString(name, source string) (*Language, error) {
	L := newLuaState()
	defer L.Close()

	if err := L.DoString(source); err != nil {
		return nil, fmt.Errorf("running %s: %w", name, err)
	}
	return languageFromStack(L, name)
}

// newLuaState creates a state with only safe libraries.
func newLuaState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	return L
}

func languageFromStack(L *lua.LState, source string) (*Language, error) {
	tbl, ok := L.Get(-1).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%s: script must return a table, got %s", source, L.Get(-1).Type())
	}

	lang := &Language{
		Name:     tableString(tbl, "name"),
		Numbers:  lua.LVAsBool(tbl.RawGetString("numbers")),
		Keywords: make(map[string][]string),
	}
	if lang.Name == "" {
		return nil, fmt.Errorf("%s: %w", source, ErrNoName)
	}

	if exts, ok := tbl.RawGetString("extensions").(*lua.LTable); ok {
		lang.Extensions = stringList(exts)
	}

	if kws, ok := tbl.RawGetString("keywords").(*lua.LTable); ok {
		kws.ForEach(func(k, v lua.LValue) {
			if words, ok := v.(*lua.LTable); ok {
				lang.Keywords[k.String()] = stringList(words)
			}
		})
	}

	if toks, ok := tbl.RawGetString("tokens").(*lua.LTable); ok {
		for i := 1; i <= toks.Len(); i++ {
			t, ok := toks.RawGetInt(i).(*lua.LTable)
			if !ok {
				return nil, fmt.Errorf("%s: tokens[%d] is not a table", source, i)
			}
			lang.Tokens = append(lang.Tokens, TokenDef{
				Start:     tableString(t, "start"),
				End:       tableString(t, "end"),
				Class:     tableString(t, "class"),
				Escape:    tableString(t, "escape"),
				MultiLine: lua.LVAsBool(t.RawGetString("multiline")),
			})
		}
	}
	return lang, nil
}

func tableString(t *lua.LTable, key string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func stringList(t *lua.LTable) []string {
	out := make([]string, 0, t.Len())
	for i := 1; i <= t.Len(); i++ {
		if s, ok := t.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}
