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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AddRemoveGet(t *testing.T) {
	r := NewRegistry()

	id := r.Add(NewLineBreakpoint(3))
	require.NotEmpty(t, id)

	bp, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, 3, bp.StepIndex)
	assert.Equal(t, BreakpointLine, bp.Type)
	assert.True(t, bp.Enabled)
	assert.Zero(t, bp.HitCount)

	assert.True(t, r.Remove(id))
	assert.False(t, r.Remove(id))

	_, ok = r.Get(id)
	assert.False(t, ok)
	assert.False(t, r.Remove("no-such-id"))
}

func TestRegistry_ListOrder(t *testing.T) {
	r := NewRegistry()
	first := r.Add(NewLineBreakpoint(0))
	second := r.Add(NewErrorBreakpoint(StepWildcard))
	third := r.Add(NewVariableBreakpoint("counter", OpGreater, 10))

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{first, second, third}, []string{list[0].ID, list[1].ID, list[2].ID})

	r.Clear()
	assert.Empty(t, r.List())
}

func TestRegistry_SetEnabled(t *testing.T) {
	r := NewRegistry()
	id := r.Add(NewLineBreakpoint(1))

	assert.True(t, r.SetEnabled(id, false))
	bp, _ := r.Get(id)
	assert.False(t, bp.Enabled)

	assert.True(t, r.SetEnabled(id, true))
	bp, _ = r.Get(id)
	assert.True(t, bp.Enabled)

	assert.False(t, r.SetEnabled("unknown", true))
}

func TestRegistry_ToggleIsIdempotentUnderDoubleToggle(t *testing.T) {
	r := NewRegistry()

	id, created := r.Toggle(2)
	require.True(t, created)
	require.NotEmpty(t, id)
	assert.Len(t, r.List(), 1)

	// Hits on the breakpoint must not interfere with toggling it away.
	r.Hit(id)
	r.Hit(id)

	removedID, created := r.Toggle(2)
	assert.False(t, created)
	assert.Equal(t, id, removedID)
	assert.Empty(t, r.List())
}

func TestRegistry_ToggleOnlyMatchesLineBreakpoints(t *testing.T) {
	r := NewRegistry()
	r.Add(NewConditionBreakpoint(2, "counter > 1"))

	_, created := r.Toggle(2)
	assert.True(t, created, "toggle must ignore non-line breakpoints at the same index")
	assert.Len(t, r.List(), 2)
}

func TestRegistry_HitCountMonotonic(t *testing.T) {
	r := NewRegistry()
	id := r.Add(NewLineBreakpoint(0))

	last := 0
	for i := 0; i < 5; i++ {
		n := r.Hit(id)
		assert.Equal(t, last+1, n)
		last = n
	}

	bp, _ := r.Get(id)
	assert.Equal(t, 5, bp.HitCount)
	assert.Zero(t, r.Hit("unknown"))
}

func TestBreakpoint_MapRoundTrip(t *testing.T) {
	bp := NewVariableBreakpoint("counter", OpGreaterOrEqual, "10")
	bp.HitCount = 7
	bp.Enabled = false

	restored := FromMap(bp.ToMap())
	assert.Equal(t, bp.ID, restored.ID)
	assert.Equal(t, bp.StepIndex, restored.StepIndex)
	assert.Equal(t, bp.Type, restored.Type)
	assert.Equal(t, bp.VariableName, restored.VariableName)
	assert.Equal(t, "10", restored.VariableValue)
	assert.Equal(t, bp.ComparisonOperator, restored.ComparisonOperator)
	assert.Equal(t, bp.Enabled, restored.Enabled)
	assert.Equal(t, bp.HitCount, restored.HitCount)
}

func TestBreakpoint_FromMapDefaults(t *testing.T) {
	bp := FromMap(map[string]interface{}{"step_index": float64(4)})

	assert.NotEmpty(t, bp.ID)
	assert.Equal(t, 4, bp.StepIndex)
	assert.Equal(t, BreakpointLine, bp.Type)
	assert.Equal(t, OpEqual, bp.ComparisonOperator)
	assert.True(t, bp.Enabled)
	assert.Zero(t, bp.HitCount)
}
