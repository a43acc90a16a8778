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
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// exportSampleLimit bounds the raw samples included in Snapshot.
const exportSampleLimit = 100

// MemorySample is one point-in-time reading of process memory.
type MemorySample struct {
	Timestamp time.Time `json:"timestamp"`
	RSS       uint64    `json:"rss"`
	VMS       uint64    `json:"vms"`
}

// CPUSample is one point-in-time reading of process CPU usage.
type CPUSample struct {
	Timestamp time.Time `json:"timestamp"`
	Percent   float64   `json:"percent"`
}

// StepTiming records wall-clock timing for one step.
type StepTiming struct {
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
}

// MetricsCollector gathers per-step timers and process resource samples
// for a monitoring session. Sampling runs on the worker goroutine's call
// path; a sampling failure is silently dropped so telemetry can never
// disturb the flow. Sample lists are append-only between StartMonitoring
// calls.
//
// The collector is safe for concurrent use: the controlling goroutine
// reads aggregates while the worker appends.
type MetricsCollector struct {
	mu        sync.Mutex
	startTime time.Time
	endTime   time.Time
	stepTimes map[int]StepTiming
	memory    []MemorySample
	cpu       []CPUSample
	proc      *process.Process
}

// NewMetricsCollector creates a collector sampling the current process.
func NewMetricsCollector() *MetricsCollector {
	// A process handle failure leaves proc nil; sampling becomes a no-op.
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &MetricsCollector{
		stepTimes: make(map[int]StepTiming),
		proc:      proc,
	}
}

// StartMonitoring resets all samples and timers and captures a baseline
// sample.
func (m *MetricsCollector) StartMonitoring() {
	m.mu.Lock()
	m.startTime = time.Now()
	m.endTime = time.Time{}
	m.stepTimes = make(map[int]StepTiming)
	m.memory = nil
	m.cpu = nil
	m.mu.Unlock()

	m.sample()
}

// StopMonitoring records the end of the monitoring session. Samples and
// timers remain readable until the next StartMonitoring.
func (m *MetricsCollector) StopMonitoring() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.endTime.IsZero() {
		m.endTime = time.Now()
	}
}

// StartStepTimer records the wall-clock start of a step and collects a
// resource sample.
func (m *MetricsCollector) StartStepTimer(stepIndex int) {
	m.mu.Lock()
	m.stepTimes[stepIndex] = StepTiming{Start: time.Now()}
	m.mu.Unlock()

	m.sample()
}

// StopStepTimer records the wall-clock end of a step and collects a
// resource sample. Unknown indexes are ignored.
func (m *MetricsCollector) StopStepTimer(stepIndex int) {
	m.mu.Lock()
	if timing, ok := m.stepTimes[stepIndex]; ok {
		timing.End = time.Now()
		timing.Duration = timing.End.Sub(timing.Start)
		m.stepTimes[stepIndex] = timing
	}
	m.mu.Unlock()

	m.sample()
}

// sample appends one memory and one CPU reading. Best effort.
func (m *MetricsCollector) sample() {
	if m.proc == nil {
		return
	}

	now := time.Now()

	if mem, err := m.proc.MemoryInfo(); err == nil {
		m.mu.Lock()
		m.memory = append(m.memory, MemorySample{Timestamp: now, RSS: mem.RSS, VMS: mem.VMS})
		m.mu.Unlock()
	}

	if pct, err := m.proc.Percent(0); err == nil {
		m.mu.Lock()
		m.cpu = append(m.cpu, CPUSample{Timestamp: now, Percent: pct})
		m.mu.Unlock()
	}
}

// TotalExecutionTime returns the session duration: elapsed since start
// while monitoring, end minus start once stopped.
func (m *MetricsCollector) TotalExecutionTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.startTime.IsZero() {
		return 0
	}
	if m.endTime.IsZero() {
		return time.Since(m.startTime)
	}
	return m.endTime.Sub(m.startTime)
}

// StepExecutionTime returns the recorded duration for a step, or zero
// when the step has no completed timer.
func (m *MetricsCollector) StepExecutionTime(stepIndex int) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stepTimes[stepIndex].Duration
}

// AverageMemoryUsage returns mean RSS and VMS over all samples, in MB.
func (m *MetricsCollector) AverageMemoryUsage() (rssMB, vmsMB float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.memory) == 0 {
		return 0, 0
	}

	var rss, vms float64
	for _, s := range m.memory {
		rss += float64(s.RSS)
		vms += float64(s.VMS)
	}
	n := float64(len(m.memory))
	const mb = 1024 * 1024
	return rss / n / mb, vms / n / mb
}

// AverageCPUUsage returns the mean of all CPU percent samples.
func (m *MetricsCollector) AverageCPUUsage() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.cpu) == 0 {
		return 0
	}

	var total float64
	for _, s := range m.cpu {
		total += s.Percent
	}
	return total / float64(len(m.cpu))
}

// Snapshot returns the exportable view of the metrics: total time,
// per-step timings, averages, and the last 100 raw samples of each kind.
func (m *MetricsCollector) Snapshot() map[string]interface{} {
	total := m.TotalExecutionTime()
	rss, vms := m.AverageMemoryUsage()
	cpu := m.AverageCPUUsage()

	m.mu.Lock()
	defer m.mu.Unlock()

	stepTimes := make(map[int]StepTiming, len(m.stepTimes))
	for idx, timing := range m.stepTimes {
		stepTimes[idx] = timing
	}

	return map[string]interface{}{
		"total_time": total.Seconds(),
		"step_times": stepTimes,
		"avg_memory_usage": map[string]float64{
			"rss": rss,
			"vms": vms,
		},
		"avg_cpu_usage": cpu,
		"memory_usage":  tailMemory(m.memory, exportSampleLimit),
		"cpu_usage":     tailCPU(m.cpu, exportSampleLimit),
	}
}

func tailMemory(samples []MemorySample, n int) []MemorySample {
	if len(samples) <= n {
		return append([]MemorySample(nil), samples...)
	}
	return append([]MemorySample(nil), samples[len(samples)-n:]...)
}

func tailCPU(samples []CPUSample, n int) []CPUSample {
	if len(samples) <= n {
		return append([]CPUSample(nil), samples...)
	}
	return append([]CPUSample(nil), samples[len(samples)-n:]...)
}
