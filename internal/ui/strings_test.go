package ui

import (
	"strings"
	"testing"
	"time"
)

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 0, 0, 0, time.Local)
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"zero", time.Time{}, ""},
		{"seconds", now.Add(-30 * time.Second), "Just now"},
		{"future clock skew", now.Add(10 * time.Second), "Just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-2*time.Hour - 10*time.Minute), "2h ago"},
		{"days", now.Add(-72 * time.Hour), "Oct 16, 2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relativeTime(now, tt.at); got != tt.want {
				t.Fatalf("relativeTime = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"  padded  ", 10, "padded"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer title", 8, "a lon..."},
		{"abcdef", 3, "abc"},
		{"unlimited", 0, "unlimited"},
		{"ünïcödé text", 6, "ünï..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestTruncateMiddle(t *testing.T) {
	got := truncateMiddle("/home/reader/.local/state/folio/folio.log", 20)
	if len([]rune(got)) != 20 || !strings.Contains(got, "…") {
		t.Fatalf("truncateMiddle = %q", got)
	}
	if !strings.HasPrefix(got, "/home") || !strings.HasSuffix(got, "io.log") {
		t.Fatalf("truncateMiddle lost an end: %q", got)
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("the quick brown fox jumps over the lazy dog", 10)
	want := []string{"the quick", "brown fox", "jumps over", "the lazy", "dog"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("wrapText = %q, want %q", got, want)
	}

	for _, line := range wrapText("supercalifragilistic word", 8) {
		if n := len([]rune(line)); n > 8 {
			t.Fatalf("line %q is %d runes wide", line, n)
		}
	}

	if got := wrapText("one\n\ntwo", 20); len(got) != 3 || got[1] != "" {
		t.Fatalf("wrapText keeps blank lines: %q", got)
	}
}

func TestFormatRating(t *testing.T) {
	if got := formatRating(0, 0); got != "No ratings yet" {
		t.Fatalf("formatRating no votes = %q", got)
	}
	if got := formatRating(4.25, 1); got != "4.2 (1 vote)" && got != "4.3 (1 vote)" {
		t.Fatalf("formatRating single = %q", got)
	}
	if got := formatRating(3.5, 12); got != "3.5 (12 votes)" {
		t.Fatalf("formatRating = %q", got)
	}
}

func TestStarsClamps(t *testing.T) {
	if got := stars(3); got != "★★★☆☆" {
		t.Fatalf("stars(3) = %q", got)
	}
	if got := stars(9); got != "★★★★★" {
		t.Fatalf("stars(9) = %q", got)
	}
	if got := stars(-1); got != "☆☆☆☆☆" {
		t.Fatalf("stars(-1) = %q", got)
	}
}
