package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		level   Level
		hasTime bool
	}{
		{
			name:    "prefixed info",
			input:   "folio 2026/10/19 14:03:22 assistant proxy listening on 127.0.0.1:7610",
			message: "assistant proxy listening on 127.0.0.1:7610",
			level:   LevelInfo,
			hasTime: true,
		},
		{
			name:    "poll failure",
			input:   "folio 2026/10/19 14:03:25 discussion d1 poll failed: timeout",
			message: "discussion d1 poll failed: timeout",
			level:   LevelError,
			hasTime: true,
		},
		{
			name:    "unprefixed warning",
			input:   "2026/10/19 14:03:25 stored session expired at 2026-10-18T00:00:00Z",
			message: "stored session expired at 2026-10-18T00:00:00Z",
			level:   LevelWarn,
			hasTime: true,
		},
		{
			name:    "free text",
			input:   "panic: runtime error",
			message: "panic: runtime error",
			level:   LevelError,
		},
		{
			name:  "empty line",
			input: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if got.Message != tt.message || got.Level != tt.level {
				t.Errorf("Parse() = %q/%v, want %q/%v", got.Message, got.Level, tt.message, tt.level)
			}
			if got.Time.IsZero() == tt.hasTime {
				t.Errorf("Parse() time = %v, hasTime want %v", got.Time, tt.hasTime)
			}
		})
	}
}

func TestParseLines(t *testing.T) {
	entries := ParseLines([]string{
		"folio 2026/10/19 14:03:22 join discussion d1 failed: boom",
		"folio 2026/10/19 14:03:23 GET /healthz -> 200 (0s)",
	})
	if len(entries) != 2 {
		t.Fatalf("ParseLines returned %d entries", len(entries))
	}
	if entries[0].Level != LevelError || entries[1].Level != LevelInfo {
		t.Fatalf("levels = %v, %v", entries[0].Level, entries[1].Level)
	}
	want := time.Date(2026, 10, 19, 14, 3, 23, 0, time.Local)
	if !entries[1].Time.Equal(want) {
		t.Fatalf("time = %v, want %v", entries[1].Time, want)
	}
}
