// Package config loads the tunables of the editing core from TOML.
//
// A configuration file has three sections:
//
//	[editor]
//	chunk_size = 4096
//	tab_width = 4
//	word_wrap = false
//	max_undo = 1000
//	sync_highlight_chunks = 10
//	sync_load_threshold = 1048576
//
//	[scheduler]
//	workers = 4
//	urgent_timeout = "10ms"
//	queue_size = 1024
//
//	[languages]
//	dirs = ["~/.config/textcore/languages"]
//
// Every key is optional; missing keys keep their defaults and a missing
// file yields Default. Unknown keys are parse errors. Environment
// variables prefixed with TEXTCORE_ override file values (see ApplyEnv).
package config
