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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/flowpilot/flowpilot/pkg/flow"
)

// shellEventKind classifies the notifications the shell prompts on.
type shellEventKind int

const (
	shellStepPaused shellEventKind = iota
	shellBreakpointHit
)

type shellEvent struct {
	kind         shellEventKind
	stepIndex    int
	breakpointID string
	stepData     map[string]interface{}
}

// Shell provides an interactive debugging interface on top of a Controller.
// It installs itself as the controller's observer set and prompts for a
// command whenever execution pauses; the worker goroutine stays blocked in
// WaitForContinue until the user resumes.
type Shell struct {
	ctrl   *Controller
	vars   flow.VariableStore
	input  io.Reader
	output io.Writer
	events chan shellEvent
}

// NewShell creates a debug shell bound to the given controller.
func NewShell(ctrl *Controller, vars flow.VariableStore) *Shell {
	return &Shell{
		ctrl:   ctrl,
		vars:   vars,
		input:  os.Stdin,
		output: os.Stdout,
		events: make(chan shellEvent, 16),
	}
}

// SetIO overrides the shell's input and output streams.
func (s *Shell) SetIO(in io.Reader, out io.Writer) {
	s.input = in
	s.output = out
}

// Attach registers the shell's handlers on the controller. The step and
// breakpoint handlers run on the worker goroutine before it blocks, so the
// event is always queued by the time the worker suspends.
func (s *Shell) Attach() {
	s.ctrl.SetStepExecutionHandler(func(stepIndex int, stepData map[string]interface{}) {
		s.events <- shellEvent{kind: shellStepPaused, stepIndex: stepIndex, stepData: stepData}
	})
	s.ctrl.SetBreakpointHitHandler(func(id string, stepIndex int, stepData map[string]interface{}) {
		s.events <- shellEvent{kind: shellBreakpointHit, stepIndex: stepIndex, breakpointID: id, stepData: stepData}
	})
	s.ctrl.SetExecutionResumedHandler(func(stepIndex int) {
		fmt.Fprintln(s.output, "Resuming execution...")
	})
	s.ctrl.SetVariableChangedHandler(func(name string, value interface{}) {
		fmt.Fprintf(s.output, "  watch: %s = %v\n", name, value)
	})
}

// Run processes debug events until ctx is cancelled or done is closed.
// done should be closed by the caller when the flow finishes.
func (s *Shell) Run(ctx context.Context, done <-chan struct{}) error {
	scanner := bufio.NewScanner(s.input)

	for {
		select {
		case <-ctx.Done():
			s.ctrl.StopDebugging()
			return ctx.Err()

		case <-done:
			return nil

		case ev := <-s.events:
			s.displayEvent(ev)
			if err := s.promptLoop(ctx, scanner, ev); err != nil {
				return err
			}
		}
	}
}

func (s *Shell) displayEvent(ev shellEvent) {
	fmt.Fprintln(s.output)
	switch ev.kind {
	case shellStepPaused:
		fmt.Fprintf(s.output, "Paused before step %d", ev.stepIndex)
		if name, ok := ev.stepData["name"].(string); ok && name != "" {
			fmt.Fprintf(s.output, " (%s)", name)
		}
		fmt.Fprintln(s.output)
	case shellBreakpointHit:
		fmt.Fprintf(s.output, "Breakpoint %s hit at step %d\n", shortID(ev.breakpointID), ev.stepIndex)
		if msg, ok := ev.stepData["error_message"].(string); ok {
			fmt.Fprintf(s.output, "  error: %s\n", msg)
		}
		if name, ok := ev.stepData["variable_name"].(string); ok {
			fmt.Fprintf(s.output, "  %s = %v\n", name, ev.stepData["variable_value"])
		}
	}
	fmt.Fprintln(s.output, "Commands: continue, vars, inspect <name>, break <step>, breakpoints, watch <name>, logs, metrics, stop, help")
}

// promptLoop reads commands until one resumes or stops execution.
func (s *Shell) promptLoop(ctx context.Context, scanner *bufio.Scanner, ev shellEvent) error {
	for {
		fmt.Fprint(s.output, "debug> ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			// EOF: stop gating so the worker can finish.
			s.ctrl.StopDebugging()
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if resume := s.handleCommand(line); resume {
			return nil
		}

		select {
		case <-ctx.Done():
			s.ctrl.StopDebugging()
			return ctx.Err()
		default:
		}
	}
}

// handleCommand executes a single shell command. It returns true when the
// command resumed the worker and the prompt should close.
func (s *Shell) handleCommand(line string) bool {
	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "c", "continue":
		s.ctrl.ResumeExecution()
		return true

	case "stop", "q", "quit":
		s.ctrl.StopDebugging()
		fmt.Fprintln(s.output, "Debugging stopped; flow will run to completion.")
		return true

	case "v", "vars":
		s.showVariables()

	case "i", "inspect":
		if len(args) == 0 {
			fmt.Fprintln(s.output, "Error: inspect requires a variable name")
			break
		}
		s.inspect(args[0])

	case "b", "break":
		if len(args) == 0 {
			fmt.Fprintln(s.output, "Error: break requires a step index")
			break
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(s.output, "Error: invalid step index %q\n", args[0])
			break
		}
		if _, added := s.ctrl.Breakpoints().Toggle(idx); added {
			fmt.Fprintf(s.output, "Breakpoint set at step %d\n", idx)
		} else {
			fmt.Fprintf(s.output, "Breakpoint removed from step %d\n", idx)
		}

	case "bp", "breakpoints":
		s.showBreakpoints()

	case "w", "watch":
		if len(args) == 0 {
			names := s.ctrl.WatchVariables()
			if len(names) == 0 {
				fmt.Fprintln(s.output, "No watch variables")
			} else {
				fmt.Fprintf(s.output, "Watching: %s\n", strings.Join(names, ", "))
			}
			break
		}
		if s.ctrl.AddWatchVariable(args[0]) {
			fmt.Fprintf(s.output, "Watching %s\n", args[0])
		}

	case "logs":
		for _, entry := range s.ctrl.DebugLogs("") {
			fmt.Fprintf(s.output, "[%s] [%s] %s\n", entry.Timestamp.Format(logTimeFormat), entry.Level, entry.Message)
		}

	case "m", "metrics":
		s.showMetrics()

	case "h", "help", "?":
		s.showHelp()

	default:
		fmt.Fprintf(s.output, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) showVariables() {
	if s.vars == nil {
		fmt.Fprintln(s.output, "No variable store attached")
		return
	}
	summary := NewInspector(s.vars.AllVariables()).Summary()
	if summary == "" {
		fmt.Fprintln(s.output, "No variables defined")
		return
	}
	fmt.Fprint(s.output, summary)
}

func (s *Shell) inspect(name string) {
	if s.vars == nil {
		fmt.Fprintln(s.output, "No variable store attached")
		return
	}
	insp := NewInspector(s.vars.AllVariables())
	value, ok := insp.Get(name)
	if !ok {
		fmt.Fprintf(s.output, "Variable %q not found\n", name)
		return
	}
	formatted, err := insp.Format(value)
	if err != nil {
		fmt.Fprintf(s.output, "Error formatting value: %v\n", err)
		return
	}
	fmt.Fprintf(s.output, "%s = %s\n", name, formatted)
}

func (s *Shell) showBreakpoints() {
	bps := s.ctrl.Breakpoints().List()
	if len(bps) == 0 {
		fmt.Fprintln(s.output, "No breakpoints set")
		return
	}
	for _, bp := range bps {
		state := "enabled"
		if !bp.Enabled {
			state = "disabled"
		}
		target := strconv.Itoa(bp.StepIndex)
		if bp.StepIndex == StepWildcard {
			target = "any"
		}
		fmt.Fprintf(s.output, "  %s  %-9s step=%-4s hits=%d  %s\n", shortID(bp.ID), bp.Type, target, bp.HitCount, state)
	}
}

func (s *Shell) showMetrics() {
	metrics := s.ctrl.PerformanceMetrics()
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch k {
		case "memory_usage", "cpu_usage", "step_times":
			continue // raw sample series, too noisy for the prompt
		}
		fmt.Fprintf(s.output, "  %s: %v\n", k, metrics[k])
	}
}

func (s *Shell) showHelp() {
	fmt.Fprintln(s.output, `Available commands:
  c, continue       Resume execution
  v, vars           List all flow variables
  i, inspect <name> Show a variable as formatted JSON
  b, break <step>   Toggle a line breakpoint at the given step index
  bp, breakpoints   List registered breakpoints
  w, watch [name]   Add a watch variable, or list current watches
  logs              Print the buffered debug log
  m, metrics        Show performance metrics so far
  stop, q, quit     Stop debugging and let the flow run to completion
  h, help           Show this help`)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
