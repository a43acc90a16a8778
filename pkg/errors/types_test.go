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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "comparison_operator", Message: "unknown operator ~="}
	assert.Equal(t, "validation failed on comparison_operator: unknown operator ~=", err.Error())

	err = &ValidationError{Message: "empty expression"}
	assert.Equal(t, "validation failed: empty expression", err.Error())
}

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{Resource: "breakpoint", ID: "bp-42"}
	assert.Equal(t, "breakpoint not found: bp-42", err.Error())
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(Wrap(err, "removing")))
	assert.False(t, IsNotFound(fmt.Errorf("plain")))
}

func TestEvaluationError(t *testing.T) {
	cause := fmt.Errorf("undefined variable")
	err := &EvaluationError{Expression: "counter > 10", Message: "undefined variable", Cause: cause}
	assert.Contains(t, err.Error(), "counter > 10")
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsEvaluation(err))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "context"))
	assert.NoError(t, Wrapf(nil, "context %d", 1))
}
