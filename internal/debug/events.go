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

// ExecutionMode represents how the controller gates flow execution.
type ExecutionMode string

const (
	// ModeNormal executes the flow freely, never pausing.
	ModeNormal ExecutionMode = "normal"

	// ModeDebug pauses only when a breakpoint matches.
	ModeDebug ExecutionMode = "debug"

	// ModeStep pauses before every step.
	ModeStep ExecutionMode = "step"
)

// IsValid reports whether m is one of the defined execution modes.
func (m ExecutionMode) IsValid() bool {
	switch m {
	case ModeNormal, ModeDebug, ModeStep:
		return true
	}
	return false
}

// ParseMode converts a string into an ExecutionMode.
// Unknown values return ModeNormal and false.
func ParseMode(s string) (ExecutionMode, bool) {
	m := ExecutionMode(s)
	if m.IsValid() {
		return m, true
	}
	return ModeNormal, false
}

// BreakpointHitFunc is invoked when a breakpoint matches, before the
// worker goroutine blocks.
type BreakpointHitFunc func(breakpointID string, stepIndex int, stepData map[string]interface{})

// StepExecutionFunc is invoked in step mode before the worker blocks at
// the start of each step.
type StepExecutionFunc func(stepIndex int, stepData map[string]interface{})

// VariableChangedFunc is invoked with the current value of each watch
// variable after every step completes.
type VariableChangedFunc func(name string, value interface{})

// ExecutionPausedFunc is invoked whenever execution transitions to paused.
type ExecutionPausedFunc func(stepIndex int)

// ExecutionResumedFunc is invoked whenever execution resumes.
type ExecutionResumedFunc func(stepIndex int)
