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

// Package executor runs automation flows step by step. Steps execute
// strictly sequentially on the calling goroutine; debugging hooks fire
// around each step so an execution controller can gate pacing without
// ever changing a step's outcome.
package executor

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/flowpilot/flowpilot/internal/log"
	"github.com/flowpilot/flowpilot/pkg/errors"
	"github.com/flowpilot/flowpilot/pkg/flow"
)

// Hooks receives execution callbacks at the two suspension points plus
// flow completion. debug.Controller implements it; implementations may
// block the calling goroutine inside OnStepStart and OnStepComplete.
type Hooks interface {
	OnStepStart(stepIndex int, stepData map[string]interface{})
	OnStepComplete(stepIndex int, success bool, message string)
	OnFlowComplete(success bool)
}

// nopHooks is used when no debugger is attached.
type nopHooks struct{}

func (nopHooks) OnStepStart(int, map[string]interface{})    {}
func (nopHooks) OnStepComplete(int, bool, string)           {}
func (nopHooks) OnFlowComplete(bool)                        {}

// ActionFunc executes one step. It returns a human-readable result
// message, or an error when the step failed.
type ActionFunc func(ctx context.Context, vars *flow.MemoryVariables, params map[string]interface{}) (string, error)

// Executor executes flow definitions against a registry of actions.
type Executor struct {
	actions map[string]ActionFunc
	logger  *slog.Logger
}

// New creates an executor with the built-in actions registered.
func New(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e := &Executor{
		actions: make(map[string]ActionFunc),
		logger:  logger,
	}
	registerBuiltins(e)
	return e
}

// Register adds or replaces an action.
func (e *Executor) Register(name string, fn ActionFunc) {
	e.actions[name] = fn
}

// Run executes every step of the definition in order, firing hooks
// around each one. It returns the first fatal step error, or the
// context error when cancelled mid-flow. The executor alone decides
// whether a failed step halts the flow (via ContinueOnError); hooks
// only affect pacing.
func (e *Executor) Run(ctx context.Context, def *flow.Definition, vars *flow.MemoryVariables, hooks Hooks) error {
	if hooks == nil {
		hooks = nopHooks{}
	}
	if vars == nil {
		vars = flow.NewMemoryVariables()
	}

	logger := log.WithFlow(e.logger, def.Name)
	logger.Info("flow started", slog.Int("steps", len(def.Steps)))

	for i, step := range def.Steps {
		if err := ctx.Err(); err != nil {
			logger.Warn("flow cancelled", slog.Int(log.StepIndexKey, i))
			hooks.OnFlowComplete(false)
			return err
		}

		hooks.OnStepStart(i, step.Data())

		message, err := e.runStep(ctx, step, vars)
		success := err == nil
		if !success {
			message = err.Error()
		}

		hooks.OnStepComplete(i, success, message)

		if success {
			logger.Debug("step completed",
				slog.Int(log.StepIndexKey, i),
				slog.String(log.ActionKey, step.ActionID))
			continue
		}

		logger.Error("step failed",
			slog.Int(log.StepIndexKey, i),
			slog.String(log.ActionKey, step.ActionID),
			log.Error(err))

		if !step.ContinueOnError {
			hooks.OnFlowComplete(false)
			return &errors.ExecutionError{StepIndex: i, ActionID: step.ActionID, Cause: err}
		}
	}

	logger.Info("flow completed")
	hooks.OnFlowComplete(true)
	return nil
}

// runStep resolves and executes a single step's action.
func (e *Executor) runStep(ctx context.Context, step flow.Step, vars *flow.MemoryVariables) (string, error) {
	action, ok := e.actions[step.ActionID]
	if !ok {
		return "", &errors.NotFoundError{Resource: "action", ID: step.ActionID}
	}
	return action(ctx, vars, step.Params)
}

// stringParam extracts a required string parameter.
func stringParam(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", &errors.ValidationError{
			Field:   key,
			Message: fmt.Sprintf("missing required parameter %q", key),
		}
	}
	s, ok := v.(string)
	if !ok {
		return "", &errors.ValidationError{
			Field:   key,
			Message: fmt.Sprintf("parameter %q must be a string, got %T", key, v),
		}
	}
	return s, nil
}

// floatParam extracts a numeric parameter with a default.
func floatParam(params map[string]interface{}, key string, def float64) float64 {
	switch v := params[key].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return def
}
