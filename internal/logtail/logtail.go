package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns the whole file. A missing file yields no lines
// and no error.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Level is the severity guessed from a log message.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Entry is one parsed line of folio's log.
type Entry struct {
	Time    time.Time // zero when the line carries no timestamp
	Message string
	Level   Level
}

const stdTimeLayout = "2006/01/02 15:04:05"

// Parse splits a line written by the standard logger with an optional
// "folio " prefix ("folio 2026/10/19 14:03:22 message") and classifies it.
// Lines that do not match keep their full text as Message.
func Parse(line string) Entry {
	rest := strings.TrimPrefix(line, "folio ")
	entry := Entry{Message: line}
	if len(rest) >= len(stdTimeLayout)+1 {
		if ts, err := time.ParseInLocation(stdTimeLayout, rest[:len(stdTimeLayout)], time.Local); err == nil {
			entry.Time = ts
			entry.Message = strings.TrimSpace(rest[len(stdTimeLayout):])
		}
	}
	entry.Level = classify(entry.Message)
	return entry
}

// ParseLines parses every line.
func ParseLines(lines []string) []Entry {
	out := make([]Entry, len(lines))
	for i, line := range lines {
		out[i] = Parse(line)
	}
	return out
}

var (
	errorWords = []string{"failed", "error", "panic"}
	warnWords  = []string{"expired", "rejected", "unreachable", "not configured", "retry"}
)

func classify(msg string) Level {
	lower := strings.ToLower(msg)
	for _, w := range errorWords {
		if strings.Contains(lower, w) {
			return LevelError
		}
	}
	for _, w := range warnWords {
		if strings.Contains(lower, w) {
			return LevelWarn
		}
	}
	return LevelInfo
}
