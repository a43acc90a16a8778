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

	"github.com/flowpilot/flowpilot/pkg/errors"
)

func TestEvaluator_Evaluate(t *testing.T) {
	e := NewEvaluator()
	env := map[string]interface{}{
		"counter": 15,
		"name":    "alice",
		"tags":    []string{"smoke", "login"},
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"counter > 10", true},
		{"counter > 20", false},
		{"name == 'alice' && counter >= 15", true},
		{"name != 'alice' || counter < 0", false},
		{"'smoke' in tags", true},
		{"'regression' in tags", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := e.Evaluate(tt.expr, env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluator_FailsClosed(t *testing.T) {
	e := NewEvaluator()
	env := map[string]interface{}{"counter": 1}

	tests := []struct {
		name string
		expr string
	}{
		{"syntax error", "counter >"},
		{"non-boolean result", "counter + 1"},
		{"empty expression", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(tt.expr, env)
			assert.Error(t, err)
			assert.False(t, got, "evaluation failure must mean condition not met")
		})
	}
}

func TestEvaluator_UndefinedVariableIsNil(t *testing.T) {
	e := NewEvaluator()

	// Missing names compare as nil rather than aborting evaluation.
	got, err := e.Evaluate("missing == nil", map[string]interface{}{})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluator_CachesPrograms(t *testing.T) {
	e := NewEvaluator()
	env := map[string]interface{}{"counter": 1}

	for i := 0; i < 3; i++ {
		_, err := e.Evaluate("counter == 1", env)
		require.NoError(t, err)
	}
	assert.Len(t, e.cache, 1)

	e.ClearCache()
	assert.Empty(t, e.cache)
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name    string
		current interface{}
		op      CompareOp
		target  interface{}
		want    bool
	}{
		{"equal ints", 5, OpEqual, 5, true},
		{"equal across numeric types", 5, OpEqual, 5.0, true},
		{"equal numeric string", "5", OpEqual, 5, true},
		{"not equal", 5, OpNotEqual, 6, true},
		{"greater below threshold", 5, OpGreater, 10, false},
		{"greater above threshold", 15, OpGreater, 10, true},
		{"less", 3, OpLess, 10, true},
		{"greater or equal at threshold", 10, OpGreaterOrEqual, 10, true},
		{"less or equal", 11, OpLessOrEqual, 10, false},
		{"string equality", "done", OpEqual, "done", true},
		{"in substring", "err", OpIn, "an error occurred", true},
		{"in substring miss", "ok", OpIn, "an error occurred", false},
		{"in slice", "b", OpIn, []interface{}{"a", "b"}, true},
		{"not in slice", "c", OpNotIn, []interface{}{"a", "b"}, true},
		{"in map keys", "k", OpIn, map[string]interface{}{"k": 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.current, tt.op, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompare_Errors(t *testing.T) {
	_, err := Compare("abc", OpGreater, 10)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = Compare(1, CompareOp("~="), 2)
	require.Error(t, err)

	_, err = Compare("x", OpIn, 42)
	require.Error(t, err)
}

func TestCompareOp_IsValid(t *testing.T) {
	for _, op := range []CompareOp{OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterOrEqual, OpLessOrEqual, OpIn, OpNotIn} {
		assert.True(t, op.IsValid(), string(op))
	}
	assert.False(t, CompareOp("~=").IsValid())
	assert.False(t, CompareOp("").IsValid())
}
