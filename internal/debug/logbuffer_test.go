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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBuffer_EvictsOldestBeyondMax(t *testing.T) {
	b := NewLogBuffer(10)

	for i := 0; i < 15; i++ {
		b.Addf(LevelInfo, "entry %d", i)
	}

	logs := b.Logs("")
	require.Len(t, logs, 10)
	assert.Equal(t, "entry 5", logs[0].Message)
	assert.Equal(t, "entry 14", logs[9].Message)
}

func TestLogBuffer_FilterByLevel(t *testing.T) {
	b := NewLogBuffer(0)
	b.Add(LevelInfo, "step started")
	b.Add(LevelError, "step failed")
	b.Add(LevelSuccess, "step completed")
	b.Add(LevelError, "another failure")

	errorsOnly := b.Logs(LevelError)
	require.Len(t, errorsOnly, 2)
	assert.Equal(t, "step failed", errorsOnly[0].Message)
	assert.Len(t, b.Logs(""), 4)

	b.Clear()
	assert.Zero(t, b.Len())
}

func TestLogBuffer_DefaultMax(t *testing.T) {
	b := NewLogBuffer(0)
	for i := 0; i < defaultMaxLogEntries+5; i++ {
		b.Add(LevelDebug, "x")
	}
	assert.Equal(t, defaultMaxLogEntries, b.Len())
}

func TestLogBuffer_ExportText(t *testing.T) {
	b := NewLogBuffer(0)
	b.Add(LevelInfo, "session started")
	b.Add(LevelError, "boom")

	path := filepath.Join(t.TempDir(), "nested", "debug.log")
	require.NoError(t, b.ExportText(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] \[INFO\] session started$`, lines[0])
	assert.Regexp(t, `\[ERROR\] boom$`, lines[1])
}

func TestLogBuffer_ExportJSON(t *testing.T) {
	b := NewLogBuffer(0)
	b.Add(LevelSuccess, "flow completed")

	path := filepath.Join(t.TempDir(), "debug.json")
	require.NoError(t, b.ExportJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "SUCCESS", entries[0]["level"])
	assert.Equal(t, "flow completed", entries[0]["message"])
	assert.Contains(t, entries[0], "timestamp")
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, entries[0]["formatted_time"])
}

func TestLogBuffer_ExportFailureReturnsError(t *testing.T) {
	b := NewLogBuffer(0)
	b.Add(LevelInfo, "entry")

	// A path under an existing file cannot be created.
	base := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(base, []byte("x"), 0o644))

	err := b.ExportText(filepath.Join(base, "debug.log"))
	assert.Error(t, err)

	err = b.ExportJSON(filepath.Join(base, "debug.json"))
	assert.Error(t, err)
}

func TestLogBuffer_ConcurrentAdd(t *testing.T) {
	b := NewLogBuffer(100)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			b.Addf(LevelDebug, "writer a %d", i)
		}
		close(done)
	}()
	for i := 0; i < 200; i++ {
		b.Add(LevelDebug, fmt.Sprintf("writer b %d", i))
	}
	<-done

	assert.Equal(t, 100, b.Len())
}
