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

package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/flowpilot/flowpilot/pkg/errors"
	"github.com/flowpilot/flowpilot/pkg/flow"
)

// registerBuiltins installs the built-in action set. Callers add
// domain-specific actions through Executor.Register.
func registerBuiltins(e *Executor) {
	e.Register("set_variable", actionSetVariable)
	e.Register("increment", actionIncrement)
	e.Register("log", actionLog)
	e.Register("sleep", actionSleep)
	e.Register("fail", actionFail)
}

// actionSetVariable sets a variable to a literal value.
// Params: name (string, required), value (any).
func actionSetVariable(_ context.Context, vars *flow.MemoryVariables, params map[string]interface{}) (string, error) {
	name, err := stringParam(params, "name")
	if err != nil {
		return "", err
	}
	vars.Set(name, params["value"])
	return fmt.Sprintf("set %s = %v", name, params["value"]), nil
}

// actionIncrement adds a numeric delta to a variable, treating an unset
// variable as zero. Params: name (string, required), by (number, default 1).
func actionIncrement(_ context.Context, vars *flow.MemoryVariables, params map[string]interface{}) (string, error) {
	name, err := stringParam(params, "name")
	if err != nil {
		return "", err
	}

	current := 0.0
	if v, ok := vars.GetVariable(name); ok {
		f, numeric := toNumber(v)
		if !numeric {
			return "", &errors.ValidationError{
				Field:   "name",
				Message: fmt.Sprintf("variable %q is not numeric (%T)", name, v),
			}
		}
		current = f
	}

	next := current + floatParam(params, "by", 1)
	vars.Set(name, next)
	return fmt.Sprintf("%s = %v", name, next), nil
}

// actionLog records a message without touching state.
// Params: message (string, required).
func actionLog(_ context.Context, _ *flow.MemoryVariables, params map[string]interface{}) (string, error) {
	return stringParam(params, "message")
}

// actionSleep waits for the given number of seconds, honoring
// cancellation. Params: seconds (number, default 0).
func actionSleep(ctx context.Context, _ *flow.MemoryVariables, params map[string]interface{}) (string, error) {
	seconds := floatParam(params, "seconds", 0)
	if seconds <= 0 {
		return "slept 0s", nil
	}

	select {
	case <-time.After(time.Duration(seconds * float64(time.Second))):
		return fmt.Sprintf("slept %.2fs", seconds), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// actionFail always fails, for exercising error handling and error
// breakpoints. Params: message (string, default "forced failure").
func actionFail(_ context.Context, _ *flow.MemoryVariables, params map[string]interface{}) (string, error) {
	message := "forced failure"
	if m, ok := params["message"].(string); ok && m != "" {
		message = m
	}
	return "", fmt.Errorf("%s", message)
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
