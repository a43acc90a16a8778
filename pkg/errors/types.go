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

package errors

import (
	"fmt"
)

// ValidationError represents user input validation failures.
// Use this for invalid user input, malformed data, or constraint violations.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError represents a resource not found error.
// Use this when a requested resource does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "breakpoint", "variable", "flow")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// EvaluationError represents a condition expression that could not be
// compiled or evaluated. The debug subsystem contains these internally:
// a failed evaluation is logged and treated as "condition not met", it
// never reaches the flow executor.
type EvaluationError struct {
	// Expression is the source text that failed
	Expression string

	// Message is the human-readable error description
	Message string

	// Cause is the underlying error from the expression engine
	Cause error
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating %q: %s", e.Expression, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

// ExecutionError represents a step that failed while executing.
// The flow executor reports these to the debug subsystem via the
// step-complete hook; the debug subsystem never produces them.
type ExecutionError struct {
	// StepIndex is the zero-based index of the failed step
	StepIndex int

	// ActionID identifies the action that failed
	ActionID string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.StepIndex, e.ActionID, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}
