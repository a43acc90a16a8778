// Copyright 2025 The FlowPilot Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package debug

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/flowpilot/flowpilot/pkg/errors"
)

// LogLevel tags a debug log entry.
type LogLevel string

const (
	LevelDebug   LogLevel = "DEBUG"
	LevelInfo    LogLevel = "INFO"
	LevelWarning LogLevel = "WARNING"
	LevelError   LogLevel = "ERROR"
	LevelSuccess LogLevel = "SUCCESS"
)

// defaultMaxLogEntries bounds the log buffer when no limit is configured.
const defaultMaxLogEntries = 1000

// logTimeFormat is the human-readable timestamp used in exports.
const logTimeFormat = "2006-01-02 15:04:05"

// LogEntry is one timestamped, level-tagged debug log line.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
}

// LogBuffer is a bounded FIFO of debug log entries. Insertion beyond the
// configured maximum evicts the oldest entries. Safe for concurrent use.
type LogBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
	max     int
}

// NewLogBuffer creates a buffer holding at most max entries.
// A non-positive max uses the default of 1000.
func NewLogBuffer(max int) *LogBuffer {
	if max <= 0 {
		max = defaultMaxLogEntries
	}
	return &LogBuffer{max: max}
}

// Add appends a timestamped entry, evicting the oldest entries when the
// buffer is full.
func (b *LogBuffer) Add(level LogLevel, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	})

	if len(b.entries) > b.max {
		// Copy so the evicted prefix can be collected.
		trimmed := make([]LogEntry, b.max)
		copy(trimmed, b.entries[len(b.entries)-b.max:])
		b.entries = trimmed
	}
}

// Addf appends a formatted entry.
func (b *LogBuffer) Addf(level LogLevel, format string, args ...interface{}) {
	b.Add(level, fmt.Sprintf(format, args...))
}

// Logs returns a copy of the entries, oldest first. A non-empty filter
// returns only entries at that level.
func (b *LogBuffer) Logs(filter LogLevel) []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]LogEntry, 0, len(b.entries))
	for _, entry := range b.entries {
		if filter != "" && entry.Level != filter {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Len returns the current number of entries.
func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Clear removes every entry.
func (b *LogBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
}

// ExportText writes the entries to path as lines of
// "[timestamp] [LEVEL] message", creating parent directories as needed.
func (b *LogBuffer) ExportText(path string) error {
	entries := b.Logs("")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating export directory for %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	for _, entry := range entries {
		line := fmt.Sprintf("[%s] [%s] %s\n", entry.Timestamp.Format(logTimeFormat), entry.Level, entry.Message)
		if _, err := f.WriteString(line); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
	}
	return nil
}

// exportedEntry is the JSON export shape, adding a human-formatted
// timestamp alongside the machine one.
type exportedEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	Level         LogLevel  `json:"level"`
	Message       string    `json:"message"`
	FormattedTime string    `json:"formatted_time"`
}

// ExportJSON writes the entries to path as a JSON array, creating
// parent directories as needed.
func (b *LogBuffer) ExportJSON(path string) error {
	entries := b.Logs("")

	exported := make([]exportedEntry, len(entries))
	for i, entry := range entries {
		exported[i] = exportedEntry{
			Timestamp:     entry.Timestamp,
			Level:         entry.Level,
			Message:       entry.Message,
			FormattedTime: entry.Timestamp.Format(logTimeFormat),
		}
	}

	data, err := json.MarshalIndent(exported, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding debug logs")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating export directory for %s", path)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
