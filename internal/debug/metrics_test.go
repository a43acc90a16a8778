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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector_StepTimers(t *testing.T) {
	m := NewMetricsCollector()
	m.StartMonitoring()

	m.StartStepTimer(0)
	time.Sleep(20 * time.Millisecond)
	m.StopStepTimer(0)

	assert.GreaterOrEqual(t, m.StepExecutionTime(0), 20*time.Millisecond)
	assert.Zero(t, m.StepExecutionTime(99))

	// Stopping an unknown timer is a no-op.
	m.StopStepTimer(42)

	m.StopMonitoring()
	total := m.TotalExecutionTime()
	assert.Greater(t, total, time.Duration(0))

	// After StopMonitoring the total is frozen.
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, total, m.TotalExecutionTime())
}

func TestMetricsCollector_StartMonitoringResetsSamples(t *testing.T) {
	m := NewMetricsCollector()
	m.StartMonitoring()
	m.StartStepTimer(0)
	m.StopStepTimer(0)

	firstSnapshot := m.Snapshot()
	require.NotEmpty(t, firstSnapshot["step_times"])

	m.StartMonitoring()
	snapshot := m.Snapshot()
	assert.Empty(t, snapshot["step_times"])
}

func TestMetricsCollector_Snapshot(t *testing.T) {
	m := NewMetricsCollector()
	m.StartMonitoring()
	m.StartStepTimer(0)
	m.StopStepTimer(0)
	m.StopMonitoring()

	snapshot := m.Snapshot()
	for _, key := range []string{"total_time", "step_times", "avg_memory_usage", "avg_cpu_usage", "memory_usage", "cpu_usage"} {
		assert.Contains(t, snapshot, key)
	}

	total, ok := snapshot["total_time"].(float64)
	require.True(t, ok)
	assert.Greater(t, total, 0.0)

	avgMemory, ok := snapshot["avg_memory_usage"].(map[string]float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, avgMemory["rss"], 0.0)
	assert.GreaterOrEqual(t, avgMemory["vms"], 0.0)

	memSamples, ok := snapshot["memory_usage"].([]MemorySample)
	require.True(t, ok)
	assert.LessOrEqual(t, len(memSamples), exportSampleLimit)
}

func TestMetricsCollector_AveragesEmptySession(t *testing.T) {
	m := &MetricsCollector{stepTimes: make(map[int]StepTiming)}

	rss, vms := m.AverageMemoryUsage()
	assert.Zero(t, rss)
	assert.Zero(t, vms)
	assert.Zero(t, m.AverageCPUUsage())
	assert.Zero(t, m.TotalExecutionTime())
}

func TestMetricsCollector_SampleLimitInSnapshot(t *testing.T) {
	m := NewMetricsCollector()
	m.StartMonitoring()

	for i := 0; i < exportSampleLimit+20; i++ {
		m.StartStepTimer(i)
		m.StopStepTimer(i)
	}

	snapshot := m.Snapshot()
	memSamples := snapshot["memory_usage"].([]MemorySample)
	cpuSamples := snapshot["cpu_usage"].([]CPUSample)
	assert.LessOrEqual(t, len(memSamples), exportSampleLimit)
	assert.LessOrEqual(t, len(cpuSamples), exportSampleLimit)
}
