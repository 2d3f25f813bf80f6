// Package config loads folio's TOML configuration.
//
// # Discovery
//
// Load reads the given path, or ~/.config/folio/config.toml when the path is
// empty. A missing file is not an error; defaults are used. Empty or zero
// values in the file also fall back to defaults, and paths go through tilde
// expansion.
//
// # Format
//
//	api_url      = "http://localhost:5000/api"
//	poll_seconds = 3
//	debounce_ms  = 500
//	log_dir      = "~/.local/state/folio"
//	session_path = "~/.config/folio/session.toml"
//
//	[assistant]
//	url         = "http://127.0.0.1:7610"
//	listen      = "127.0.0.1:7610"
//	upstream    = "https://generativelanguage.googleapis.com"
//	model       = "gemini-1.5-flash"
//	api_key_env = "FOLIO_AI_API_KEY"
//
// Setting assistant.url to "" turns the proxy off; the assistant view then
// answers locally.
//
// # Environment
//
// FOLIO_API_URL replaces api_url when set and non-empty. FOLIO_ASSISTANT_URL
// replaces assistant.url whenever it is set, including to "".
//
// The model key itself is never part of the file. Only the proxy reads it,
// through AssistantKey, from the variable named by api_key_env.
package config
