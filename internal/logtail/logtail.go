package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Entry is one line of the railcab log.
type Entry struct {
	Time      string
	Level     string
	Message   string
	Component string
	Error     string
	// Raw holds the line as read when it is not a JSON log record.
	Raw string
}

// String formats the entry for a single console row.
func (e Entry) String() string {
	if e.Raw != "" {
		return e.Raw
	}
	var b strings.Builder
	if e.Time != "" {
		b.WriteString(shortTime(e.Time))
		b.WriteString(" ")
	}
	b.WriteString(strings.ToUpper(e.Level))
	if e.Component != "" {
		b.WriteString(" [")
		b.WriteString(e.Component)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(e.Message)
	if e.Error != "" {
		b.WriteString(": ")
		b.WriteString(e.Error)
	}
	return b.String()
}

// Read returns at most maxLines entries from the end of the log at path.
// A missing file yields no entries.
func Read(path string, maxLines int) ([]Entry, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	entries := make([]Entry, count)
	start := 0
	if count == maxLines {
		start = idx
	}
	for i := 0; i < count; i++ {
		entries[i] = Parse(ring[(start+i)%maxLines])
	}
	return entries, nil
}

// Parse decodes a zap JSON record. Lines that are not JSON objects are kept
// as Raw.
func Parse(line string) Entry {
	var rec struct {
		TS        string `json:"ts"`
		Level     string `json:"level"`
		Msg       string `json:"msg"`
		Component string `json:"component"`
		Error     string `json:"error"`
	}
	if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.Msg == "" {
		return Entry{Raw: line}
	}
	return Entry{
		Time:      rec.TS,
		Level:     rec.Level,
		Message:   rec.Msg,
		Component: rec.Component,
		Error:     rec.Error,
	}
}

// shortTime keeps the clock part of an ISO8601 timestamp.
func shortTime(ts string) string {
	if i := strings.IndexByte(ts, 'T'); i >= 0 && len(ts) >= i+9 {
		return ts[i+1 : i+9]
	}
	return ts
}
