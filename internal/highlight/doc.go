// Package highlight provides incremental, line-at-a-time syntax highlighting.
//
// A Highlighter parses one line at a time from an explicit State carried
// over from the previous line. Because ParseLine never looks at other
// lines, a document stored in chunks can be re-lexed one chunk at a time
// starting from the end state cached on the previous chunk, and re-lexing
// can stop as soon as a chunk's new end state is equivalent to its old one.
//
// KeywordHighlighter is the table driven implementation. Language tables
// are declared in TOML (built-in definitions are embedded) or returned
// from a Lua script, and registered in a Registry keyed by language name
// and file extension. Token classes are chroma token types so a Theme can
// resolve them against any chroma style.
package highlight
