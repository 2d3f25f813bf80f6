// Package logtail reads the tail of folio's own log file for the diagnostics
// overlay.
//
// # Reading
//
// Read keeps a ring buffer of maxLines entries while scanning the file once,
// so memory stays O(maxLines) regardless of file size:
//
//	lines, err := logtail.Read(cfg.LogPath(), 200)
//
// A missing file yields nil, nil; the log is only created once something has
// been written to it.
//
// # Parsing
//
// folio logs through the standard library logger, redirected to a file by
// tea.LogToFile with a "folio " prefix:
//
//	folio 2026/10/19 14:03:25 discussion 65f0 poll failed: timeout
//
// Parse strips the prefix and timestamp and guesses a Level from the message
// ("failed", "error" are errors; "expired", "rejected", "unreachable" are
// warnings). The UI picks colors per Level. Lines that do not match the format
// are kept whole.
package logtail
