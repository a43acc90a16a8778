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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flowpilot/flowpilot/internal/debug"
	"github.com/flowpilot/flowpilot/internal/executor"
	"github.com/flowpilot/flowpilot/pkg/flow"
)

type runOptions struct {
	mode         string
	breaks       []int
	conditions   []string
	breakOnError bool
	varBreaks    []string
	watches      []string
	autoResume   bool
	exportLogs   string
	showMetrics  bool
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <flow.yaml>",
		Short: "Execute a flow definition",
		Long: `Run executes a YAML flow definition step by step.

Execution Modes:
  --mode normal  Run freely without pausing (default)
  --mode debug   Pause when a breakpoint matches
  --mode step    Pause before every step

In debug and step modes an interactive shell opens at each pause. With
--auto-resume the shell is skipped and every pause resumes immediately,
which still records breakpoint hits, logs, and metrics.

Breakpoints:
  --break 3                      Line breakpoint at step index 3 (repeatable)
  --break-if '2:counter > 10'    Condition breakpoint at step 2 (repeatable)
  --break-on-error               Pause on any step failure`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "normal", "Execution mode (normal, debug, step)")
	cmd.Flags().IntSliceVarP(&opts.breaks, "break", "b", nil, "Step indexes to break at (repeatable)")
	cmd.Flags().StringArrayVar(&opts.conditions, "break-if", nil, "Condition breakpoints as 'step:expression' (repeatable)")
	cmd.Flags().BoolVar(&opts.breakOnError, "break-on-error", false, "Pause when any step fails")
	cmd.Flags().StringArrayVar(&opts.varBreaks, "break-var", nil, "Variable breakpoints as 'name op value', e.g. 'counter >= 10' (repeatable)")
	cmd.Flags().StringSliceVarP(&opts.watches, "watch", "w", nil, "Variable names to watch (repeatable)")
	cmd.Flags().BoolVar(&opts.autoResume, "auto-resume", false, "Resume every pause immediately instead of prompting")
	cmd.Flags().StringVar(&opts.exportLogs, "export-logs", "", "Write the debug log to this file after the run")
	cmd.Flags().BoolVar(&opts.showMetrics, "stats", false, "Print performance statistics after the run")

	return cmd
}

func runFlow(ctx context.Context, path string, opts *runOptions) error {
	mode, ok := debug.ParseMode(opts.mode)
	if !ok {
		return fmt.Errorf("invalid mode %q: expected normal, debug, or step", opts.mode)
	}

	logger := newLogger()

	def, err := flow.Load(path)
	if err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return err
	}

	vars := flow.NewMemoryVariablesFrom(def.Variables)
	ctrl := debug.NewController(debug.Config{
		Variables: vars,
		Logger:    logger,
	})

	if err := registerBreakpoints(ctrl, def, opts); err != nil {
		return err
	}
	for _, name := range opts.watches {
		ctrl.AddWatchVariable(name)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	exec := executor.New(logger)

	var runErr error
	if mode == debug.ModeNormal {
		if opts.showMetrics {
			// No debug session in normal mode, so arm the collector directly.
			ctrl.Metrics().StartMonitoring()
		}
		runErr = exec.Run(ctx, def, vars, ctrl)
	} else {
		runErr = runGated(ctx, exec, def, vars, ctrl, mode, opts.autoResume)
	}

	if opts.exportLogs != "" {
		if err := ctrl.ExportDebugLogs(opts.exportLogs); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to export debug logs: %v\n", err)
		} else {
			fmt.Printf("Debug log written to %s\n", opts.exportLogs)
		}
	}
	if opts.showMetrics {
		printStats(ctrl)
	}

	return runErr
}

// runGated starts a debug session, runs the flow on a worker goroutine, and
// drives resume decisions either interactively or automatically.
func runGated(ctx context.Context, exec *executor.Executor, def *flow.Definition, vars *flow.MemoryVariables, ctrl *debug.Controller, mode debug.ExecutionMode, autoResume bool) error {
	ctrl.StartDebugging(mode)
	defer ctrl.StopDebugging()

	if autoResume {
		ctrl.SetExecutionPausedHandler(func(stepIndex int) {
			ctrl.ResumeExecution()
		})
		return exec.Run(ctx, def, vars, ctrl)
	}

	shell := debug.NewShell(ctrl, vars)
	shell.Attach()

	done := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- exec.Run(ctx, def, vars, ctrl)
		close(done)
	}()

	if err := shell.Run(ctx, done); err != nil {
		// The shell stops gating on exit, so the worker always finishes.
		<-done
		<-errCh
		return err
	}
	return <-errCh
}

// registerBreakpoints installs the breakpoints requested on the command line.
func registerBreakpoints(ctrl *debug.Controller, def *flow.Definition, opts *runOptions) error {
	reg := ctrl.Breakpoints()

	for _, idx := range opts.breaks {
		if idx < 0 || idx >= len(def.Steps) {
			return fmt.Errorf("breakpoint index %d out of range: flow has %d steps", idx, len(def.Steps))
		}
		reg.Add(debug.NewLineBreakpoint(idx))
	}

	for _, spec := range opts.conditions {
		idx, expr, err := parseConditionSpec(spec)
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(def.Steps) {
			return fmt.Errorf("breakpoint index %d out of range: flow has %d steps", idx, len(def.Steps))
		}
		reg.Add(debug.NewConditionBreakpoint(idx, expr))
	}

	for _, spec := range opts.varBreaks {
		bp, err := parseVariableSpec(spec)
		if err != nil {
			return err
		}
		reg.Add(bp)
	}

	if opts.breakOnError {
		reg.Add(debug.NewErrorBreakpoint(debug.StepWildcard))
	}
	return nil
}

// parseConditionSpec splits a "step:expression" flag value.
func parseConditionSpec(spec string) (int, string, error) {
	step, expr, found := strings.Cut(spec, ":")
	if !found || strings.TrimSpace(expr) == "" {
		return 0, "", fmt.Errorf("invalid --break-if value %q: expected 'step:expression'", spec)
	}
	idx, err := strconv.Atoi(strings.TrimSpace(step))
	if err != nil {
		return 0, "", fmt.Errorf("invalid --break-if step %q: %w", step, err)
	}
	return idx, strings.TrimSpace(expr), nil
}

// parseVariableSpec parses a "name op value" flag value into a variable
// breakpoint. Numeric values compare numerically, everything else as string.
func parseVariableSpec(spec string) (*debug.Breakpoint, error) {
	fields := strings.Fields(spec)
	if len(fields) < 3 {
		return nil, fmt.Errorf("invalid --break-var value %q: expected 'name op value'", spec)
	}

	name := fields[0]
	op := debug.CompareOp(fields[1])
	rest := fields[2:]
	// "not in" is a two-token operator.
	if op == "not" && len(rest) > 1 && rest[0] == "in" {
		op = debug.OpNotIn
		rest = rest[1:]
	}
	if !op.IsValid() {
		return nil, fmt.Errorf("invalid --break-var operator %q in %q", fields[1], spec)
	}

	raw := strings.Join(rest, " ")
	var value interface{} = strings.Trim(raw, `"'`)
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		value = n
	} else if b, err := strconv.ParseBool(raw); err == nil {
		value = b
	}

	return debug.NewVariableBreakpoint(name, op, value), nil
}

func printStats(ctrl *debug.Controller) {
	m := ctrl.Metrics()
	fmt.Println("\nExecution statistics:")
	fmt.Printf("  total time:  %.2fs\n", m.TotalExecutionTime().Seconds())
	rssMB, _ := m.AverageMemoryUsage()
	fmt.Printf("  avg memory:  %.2f MB\n", rssMB)
	fmt.Printf("  avg cpu:     %.2f%%\n", m.AverageCPUUsage())
	for _, bp := range ctrl.Breakpoints().List() {
		if bp.HitCount > 0 {
			fmt.Printf("  breakpoint %s (%s): %d hits\n", bp.ID[:8], bp.Type, bp.HitCount)
		}
	}
}
