// Package app is the composition root for folio.
//
// # Overview
//
// It wires configuration, the REST client, the persisted session and the
// assistant client, then hands them to the TUI. The CLI subcommands reuse
// the same wiring through Open so that `folio login` and the TUI share one
// session file.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read ~/.config/folio/config.toml
//	       ├─────> api.NewClient()      REST client for the book API
//	       ├─────> session.New()        Stored token, validated on bootstrap
//	       ├─────> assistant.NewClient() Recommendation proxy client
//	       ├─────> LogToFile()          log.Printf -> folio.log
//	       └─────> ui.Run()             Start TUI (blocks)
//
// The discussion room's poll loop is not started here. Each room owns its
// poller and stops it when the view closes.
//
// # Error Handling
//
// Fatal errors (returned from Run): an unreadable or invalid config file, a
// malformed API URL, or a log file that cannot be opened. Everything after
// startup is reported in the TUI's status line and written to the log.
package app
