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

// Package debug provides execution control for automation flows.
//
// The debug package supervises a sequential flow as it runs on a worker
// goroutine, giving a controlling goroutine the ability to pause,
// single-step, set breakpoints, watch variables, and collect performance
// telemetry. It observes and gates an external flow executor; it never
// executes steps itself and never changes a step's outcome, only its
// pacing.
//
// # Execution Controller
//
// Controller is the central piece. The flow executor calls OnStepStart
// before running each step, OnStepComplete after, and OnFlowComplete once
// at the end. The controller consults the breakpoint registry and the
// condition evaluator to decide whether to block the calling goroutine.
// Suspension happens only inside WaitForContinue, which blocks on a
// single-slot continue signal until ResumeExecution or StopDebugging is
// called from the controlling goroutine.
//
// # Breakpoints
//
// Four breakpoint kinds are supported: line breakpoints pause before a
// specific step, condition breakpoints pause when an expression over the
// flow's variables holds, error breakpoints pause when a step fails, and
// variable breakpoints pause when a watched variable satisfies a
// comparison. Condition expressions are evaluated with expr-lang/expr
// against a snapshot of the variable store; an evaluation failure is
// logged and treated as "condition not met" so an internal fault can
// never abort the monitored flow.
//
// # Example Usage
//
//	ctrl := debug.NewController(debug.Config{Variables: store})
//	ctrl.Breakpoints().Add(debug.NewLineBreakpoint(2))
//	ctrl.SetExecutionPausedHandler(func(stepIndex int) {
//		fmt.Printf("paused before step %d\n", stepIndex)
//	})
//
//	ctrl.StartDebugging(debug.ModeDebug)
//	go exec.Run(ctx, def, vars, ctrl) // worker goroutine calls the hooks
//
//	// later, from the controlling goroutine:
//	ctrl.ResumeExecution()
package debug
