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
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// BreakpointType identifies what kind of breakpoint is set.
type BreakpointType string

const (
	// BreakpointLine pauses before a specific step.
	BreakpointLine BreakpointType = "line"

	// BreakpointCondition pauses before a step when an expression holds.
	BreakpointCondition BreakpointType = "condition"

	// BreakpointError pauses after a step reports failure.
	BreakpointError BreakpointType = "error"

	// BreakpointVariable pauses after a step when a variable comparison holds.
	BreakpointVariable BreakpointType = "variable"
)

// StepWildcard targets every step. Error and variable breakpoints
// commonly use it; line and condition breakpoints target a single index.
const StepWildcard = -1

// Breakpoint represents a rule that pauses the worker goroutine at a
// defined suspension point.
//
// HitCount is written only inside the controller's serialized evaluation
// path, through Registry.Hit. It never decreases and never changes on a
// disabled breakpoint.
type Breakpoint struct {
	ID                 string         `json:"id"`
	StepIndex          int            `json:"step_index"`
	Type               BreakpointType `json:"type"`
	Condition          string         `json:"condition,omitempty"`
	VariableName       string         `json:"variable_name,omitempty"`
	VariableValue      interface{}    `json:"variable_value,omitempty"`
	ComparisonOperator CompareOp      `json:"comparison_operator,omitempty"`
	Enabled            bool           `json:"enabled"`
	HitCount           int            `json:"hit_count"`
}

// NewLineBreakpoint creates an enabled line breakpoint at the given step.
func NewLineBreakpoint(stepIndex int) *Breakpoint {
	return &Breakpoint{
		ID:        uuid.NewString(),
		StepIndex: stepIndex,
		Type:      BreakpointLine,
		Enabled:   true,
	}
}

// NewConditionBreakpoint creates an enabled condition breakpoint that
// evaluates the given expression before the given step.
func NewConditionBreakpoint(stepIndex int, condition string) *Breakpoint {
	return &Breakpoint{
		ID:        uuid.NewString(),
		StepIndex: stepIndex,
		Type:      BreakpointCondition,
		Condition: condition,
		Enabled:   true,
	}
}

// NewErrorBreakpoint creates an enabled error breakpoint. Use
// StepWildcard to pause on any failing step.
func NewErrorBreakpoint(stepIndex int) *Breakpoint {
	return &Breakpoint{
		ID:        uuid.NewString(),
		StepIndex: stepIndex,
		Type:      BreakpointError,
		Enabled:   true,
	}
}

// NewVariableBreakpoint creates an enabled variable breakpoint that
// compares the named variable against value with op after every step.
func NewVariableBreakpoint(name string, op CompareOp, value interface{}) *Breakpoint {
	return &Breakpoint{
		ID:                 uuid.NewString(),
		StepIndex:          StepWildcard,
		Type:               BreakpointVariable,
		VariableName:       name,
		VariableValue:      value,
		ComparisonOperator: op,
		Enabled:            true,
	}
}

// targets reports whether the breakpoint applies to the given step index.
func (b *Breakpoint) targets(stepIndex int) bool {
	return b.StepIndex == stepIndex || b.StepIndex == StepWildcard
}

// ToMap returns the breakpoint in its persisted form. VariableValue is
// stringified so the shape is stable across value types.
func (b *Breakpoint) ToMap() map[string]interface{} {
	value := ""
	if b.VariableValue != nil {
		value = fmt.Sprintf("%v", b.VariableValue)
	}
	return map[string]interface{}{
		"id":                  b.ID,
		"step_index":          b.StepIndex,
		"type":                string(b.Type),
		"condition":           b.Condition,
		"variable_name":       b.VariableName,
		"variable_value":      value,
		"comparison_operator": string(b.ComparisonOperator),
		"enabled":             b.Enabled,
		"hit_count":           b.HitCount,
	}
}

// FromMap reconstructs a breakpoint from its persisted form. Missing
// fields take their defaults: enabled true, operator "==", hit count 0.
// A missing ID gets a freshly generated one.
func FromMap(data map[string]interface{}) *Breakpoint {
	b := &Breakpoint{
		ID:                 stringField(data, "id"),
		StepIndex:          intField(data, "step_index"),
		Type:               BreakpointType(stringField(data, "type")),
		Condition:          stringField(data, "condition"),
		VariableName:       stringField(data, "variable_name"),
		ComparisonOperator: CompareOp(stringField(data, "comparison_operator")),
		Enabled:            true,
		HitCount:           intField(data, "hit_count"),
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Type == "" {
		b.Type = BreakpointLine
	}
	if b.ComparisonOperator == "" {
		b.ComparisonOperator = OpEqual
	}
	if v, ok := data["variable_value"]; ok {
		b.VariableValue = v
	}
	if enabled, ok := data["enabled"].(bool); ok {
		b.Enabled = enabled
	}
	return b
}

func stringField(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

func intField(data map[string]interface{}, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Registry stores breakpoint definitions keyed by ID. It is safe for
// concurrent use by the worker and controlling goroutines. All read
// accessors return copies; HitCount advances only through Hit.
type Registry struct {
	mu          sync.RWMutex
	breakpoints map[string]*Breakpoint
	order       []string
}

// NewRegistry creates an empty breakpoint registry.
func NewRegistry() *Registry {
	return &Registry{
		breakpoints: make(map[string]*Breakpoint),
	}
}

// Add registers a breakpoint and returns its ID. A breakpoint without an
// ID is assigned one. Re-adding an existing ID replaces the definition
// but keeps its position.
func (r *Registry) Add(bp *Breakpoint) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bp.ID == "" {
		bp.ID = uuid.NewString()
	}
	clone := *bp
	if _, exists := r.breakpoints[bp.ID]; !exists {
		r.order = append(r.order, bp.ID)
	}
	r.breakpoints[bp.ID] = &clone
	return bp.ID
}

// Remove deletes a breakpoint. Returns false for unknown IDs.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.breakpoints[id]; !ok {
		return false
	}
	delete(r.breakpoints, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a copy of the breakpoint with the given ID.
func (r *Registry) Get(id string) (Breakpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bp, ok := r.breakpoints[id]
	if !ok {
		return Breakpoint{}, false
	}
	return *bp, true
}

// List returns copies of all breakpoints in creation order.
func (r *Registry) List() []Breakpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Breakpoint, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.breakpoints[id])
	}
	return out
}

// Clear removes every breakpoint.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.breakpoints = make(map[string]*Breakpoint)
	r.order = nil
}

// SetEnabled enables or disables a breakpoint. Returns false for
// unknown IDs.
func (r *Registry) SetEnabled(id string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	bp, ok := r.breakpoints[id]
	if !ok {
		return false
	}
	bp.Enabled = enabled
	return true
}

// Toggle removes an existing line breakpoint at the given step index, or
// creates one when none exists. It returns the affected breakpoint's ID
// and whether a breakpoint was created (false means removed).
func (r *Registry) Toggle(stepIndex int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		bp := r.breakpoints[id]
		if bp.Type == BreakpointLine && bp.StepIndex == stepIndex {
			delete(r.breakpoints, id)
			for i, existing := range r.order {
				if existing == id {
					r.order = append(r.order[:i], r.order[i+1:]...)
					break
				}
			}
			return id, false
		}
	}

	bp := NewLineBreakpoint(stepIndex)
	r.breakpoints[bp.ID] = bp
	r.order = append(r.order, bp.ID)
	return bp.ID, true
}

// Hit increments a breakpoint's hit count and returns the new count.
// Unknown IDs return 0.
func (r *Registry) Hit(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	bp, ok := r.breakpoints[id]
	if !ok {
		return 0
	}
	bp.HitCount++
	return bp.HitCount
}

// enabled returns copies of all enabled breakpoints of the given type,
// in creation order.
func (r *Registry) enabled(t BreakpointType) []Breakpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Breakpoint
	for _, id := range r.order {
		bp := r.breakpoints[id]
		if bp.Enabled && bp.Type == t {
			out = append(out, *bp)
		}
	}
	return out
}
