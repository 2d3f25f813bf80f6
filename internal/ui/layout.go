package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which side panels are hidden.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width for the two-column book detail.
	LayoutWideWidth = 140
)

// Chrome rows taken by the header, the command bar and the status line.
const chromeRows = 3

// Library paging.
const libraryPageSize = 20

// Diagnostics overlay.
const (
	// LogTailLines is how many lines of folio.log the overlay reads.
	LogTailLines = 500
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// DefaultDebounce is the library search debounce when none is configured.
	DefaultDebounce = 500 * time.Millisecond

	// requestTimeout bounds the one-shot requests issued by views.
	requestTimeout = 15 * time.Second

	// assistantTimeout bounds a recommendation round trip.
	assistantTimeout = 90 * time.Second

	// statusTTL is how long a status line stays visible.
	statusTTL = 6 * time.Second
)
