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
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/flowpilot/flowpilot/pkg/flow"
)

// Config holds construction options for a Controller.
type Config struct {
	// Variables is the read-only store the controller snapshots for
	// condition evaluation and watch values. May be nil.
	Variables flow.VariableStore

	// Logger receives operational logs. Defaults to a discard logger;
	// the session-facing debug log buffer is separate.
	Logger *slog.Logger

	// MaxLogEntries bounds the debug log buffer. Defaults to 1000.
	MaxLogEntries int
}

// Controller owns the execution mode and drives pause/resume signaling
// for one flow at a time. The flow executor's worker goroutine calls
// OnStepStart, OnStepComplete and OnFlowComplete; the controlling
// goroutine calls everything else. The worker may block only inside
// WaitForContinue.
type Controller struct {
	mu          sync.Mutex
	mode        ExecutionMode
	paused      bool
	currentStep int
	watch       map[string]struct{}

	vars   flow.VariableStore
	logger *slog.Logger

	breakpoints *Registry
	evaluator   *Evaluator
	metrics     *MetricsCollector
	logs        *LogBuffer
	signal      *Signal

	// Single-slot observer callbacks; each setter replaces the previous
	// handler.
	cbMu              sync.RWMutex
	onBreakpointHit   BreakpointHitFunc
	onStepExecution   StepExecutionFunc
	onVariableChanged VariableChangedFunc
	onPaused          ExecutionPausedFunc
	onResumed         ExecutionResumedFunc
}

// NewController creates a controller in normal mode with the continue
// signal set, so hooks called outside a debugging session never block.
func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Controller{
		mode:        ModeNormal,
		currentStep: -1,
		watch:       make(map[string]struct{}),
		vars:        cfg.Variables,
		logger:      logger,
		breakpoints: NewRegistry(),
		evaluator:   NewEvaluator(),
		metrics:     NewMetricsCollector(),
		logs:        NewLogBuffer(cfg.MaxLogEntries),
		signal:      NewSignal(),
	}
	c.signal.Set()
	return c
}

// SetVariableStore replaces the variable store reference.
func (c *Controller) SetVariableStore(vars flow.VariableStore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars = vars
}

// Breakpoints returns the controller's breakpoint registry.
func (c *Controller) Breakpoints() *Registry {
	return c.breakpoints
}

// Mode returns the current execution mode.
func (c *Controller) Mode() ExecutionMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode switches the execution mode. Returns false for invalid modes.
func (c *Controller) SetMode(mode ExecutionMode) bool {
	if !mode.IsValid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
	return true
}

// IsPaused reports whether execution is currently paused.
func (c *Controller) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// CurrentStep returns the index of the step most recently started, or
// -1 before the first step.
func (c *Controller) CurrentStep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentStep
}

// StartDebugging begins a debugging session in the given mode. Invalid
// modes fall back to debug mode. It resets the step pointer, arms the
// continue signal and starts performance monitoring.
func (c *Controller) StartDebugging(mode ExecutionMode) {
	if !mode.IsValid() {
		mode = ModeDebug
	}

	c.mu.Lock()
	c.mode = mode
	c.paused = false
	c.currentStep = -1
	c.mu.Unlock()

	c.signal.Set()
	c.metrics.StartMonitoring()
	c.logs.Addf(LevelInfo, "debug session started in %s mode", mode)
	c.logger.Info("debug session started", slog.String("mode", string(mode)))
}

// StopDebugging forces normal mode, stops monitoring and releases any
// goroutine blocked in WaitForContinue. It is idempotent and safe to
// call from any goroutine at any time, including when no session is
// active; it is the only guaranteed-unblocking operation.
func (c *Controller) StopDebugging() {
	c.mu.Lock()
	c.mode = ModeNormal
	c.paused = false
	c.mu.Unlock()

	c.signal.Set()
	c.metrics.StopMonitoring()
	c.logs.Add(LevelDebug, "debug session stopped")
	c.logger.Info("debug session stopped")
}

// PauseExecution transitions to paused and clears the continue signal,
// so the worker blocks at its next suspension point. Observers are
// notified before any blocking occurs.
func (c *Controller) PauseExecution() {
	c.mu.Lock()
	c.paused = true
	step := c.currentStep
	c.mu.Unlock()

	c.signal.Clear()
	executionPauses.Inc()
	c.logs.Add(LevelDebug, "execution paused")
	c.notifyPaused(step)
}

// ResumeExecution clears the paused state and releases the worker.
func (c *Controller) ResumeExecution() {
	c.mu.Lock()
	c.paused = false
	step := c.currentStep
	c.mu.Unlock()

	c.signal.Set()
	executionResumes.Inc()
	c.logs.Add(LevelDebug, "execution resumed")
	c.notifyResumed(step)
}

// WaitForContinue blocks the calling goroutine until the continue signal
// is set. This is the single suspension point; no other method blocks.
func (c *Controller) WaitForContinue() {
	c.signal.Wait()
}

// OnStepStart is called by the flow executor before running a step. In
// step mode it always pauses; in debug mode it pauses when an enabled
// line or condition breakpoint targeting the step matches. At most one
// pause is surfaced per call, but every matching breakpoint records a
// hit.
func (c *Controller) OnStepStart(stepIndex int, stepData map[string]interface{}) {
	c.mu.Lock()
	c.currentStep = stepIndex
	mode := c.mode
	c.mu.Unlock()

	c.metrics.StartStepTimer(stepIndex)

	switch mode {
	case ModeStep:
		c.PauseExecution()
		c.notifyStepExecution(stepIndex, stepData)
		c.WaitForContinue()

	case ModeDebug:
		c.checkStartBreakpoints(stepIndex, stepData)
	}

	c.logs.Addf(LevelInfo, "step #%d (%s) started", stepIndex, actionID(stepData))
}

// OnStepComplete is called by the flow executor after a step finishes.
// On failure in debug mode it evaluates error breakpoints targeting the
// step; variable breakpoints are then evaluated in every mode. They are
// level-triggered: a condition that still holds fires again on the next
// step. At most one pause is surfaced per call, and never in normal
// mode, where the hooks must stay non-blocking.
func (c *Controller) OnStepComplete(stepIndex int, success bool, message string) {
	c.metrics.StopStepTimer(stepIndex)

	c.mu.Lock()
	mode := c.mode
	c.mu.Unlock()

	pausedHere := false
	if !success && mode == ModeDebug {
		pausedHere = c.checkErrorBreakpoints(stepIndex, message)
	}

	c.checkVariableBreakpoints(stepIndex, !pausedHere && mode != ModeNormal)
	c.notifyWatchVariables()

	if success {
		c.logs.Addf(LevelSuccess, "step #%d completed: %s", stepIndex, message)
	} else {
		c.logs.Addf(LevelError, "step #%d failed: %s", stepIndex, message)
	}
}

// OnFlowComplete is called once when the flow ends. It finalizes
// monitoring, resets to normal mode and releases any pending wait so
// the worker cannot remain blocked after flow termination.
func (c *Controller) OnFlowComplete(success bool) {
	c.metrics.StopMonitoring()

	c.mu.Lock()
	c.mode = ModeNormal
	c.paused = false
	c.mu.Unlock()

	c.signal.Set()

	if success {
		c.logs.Add(LevelSuccess, "flow completed")
	} else {
		c.logs.Add(LevelError, "flow failed")
	}

	rss, _ := c.metrics.AverageMemoryUsage()
	c.logs.Addf(LevelInfo, "execution stats: total=%.2fs, avg memory=%.2fMB, avg cpu=%.2f%%",
		c.metrics.TotalExecutionTime().Seconds(), rss, c.metrics.AverageCPUUsage())
	c.logger.Info("flow complete",
		slog.Bool("success", success),
		slog.Int64("duration_ms", c.metrics.TotalExecutionTime().Milliseconds()))
}

// checkStartBreakpoints evaluates line and condition breakpoints before
// a step runs, pausing once on the first match.
func (c *Controller) checkStartBreakpoints(stepIndex int, stepData map[string]interface{}) {
	var first *Breakpoint

	for _, bp := range c.breakpoints.List() {
		if !bp.Enabled {
			continue
		}

		matched := false
		switch bp.Type {
		case BreakpointLine:
			matched = bp.StepIndex == stepIndex

		case BreakpointCondition:
			if bp.StepIndex != stepIndex || bp.Condition == "" {
				continue
			}
			ok, err := c.evaluator.Evaluate(bp.Condition, c.variableSnapshot())
			if err != nil {
				evaluationErrors.Inc()
				c.logs.Addf(LevelError, "condition breakpoint error: %v", err)
				continue
			}
			matched = ok

		default:
			continue
		}

		if matched {
			c.breakpoints.Hit(bp.ID)
			breakpointHits.WithLabelValues(string(bp.Type)).Inc()
			if first == nil {
				hit := bp
				first = &hit
			}
		}
	}

	if first != nil {
		c.PauseExecution()
		c.notifyBreakpointHit(first.ID, stepIndex, stepData)
		c.WaitForContinue()
	}
}

// checkErrorBreakpoints evaluates error breakpoints after a failed step.
// Returns whether a pause was surfaced.
func (c *Controller) checkErrorBreakpoints(stepIndex int, message string) bool {
	var first *Breakpoint

	for _, bp := range c.breakpoints.enabled(BreakpointError) {
		if !bp.targets(stepIndex) {
			continue
		}
		c.breakpoints.Hit(bp.ID)
		breakpointHits.WithLabelValues(string(BreakpointError)).Inc()
		if first == nil {
			hit := bp
			first = &hit
		}
	}

	if first == nil {
		return false
	}

	c.PauseExecution()
	c.notifyBreakpointHit(first.ID, stepIndex, map[string]interface{}{
		"error_message": message,
	})
	c.WaitForContinue()
	return true
}

// checkVariableBreakpoints evaluates variable breakpoints whose variable
// is currently defined. Every match records a hit; the first match
// additionally pauses when allowPause is true (normal mode and a pause
// earlier in the same callback both suppress the block).
func (c *Controller) checkVariableBreakpoints(stepIndex int, allowPause bool) {
	c.mu.Lock()
	vars := c.vars
	c.mu.Unlock()
	if vars == nil {
		return
	}

	var first *Breakpoint
	var firstValue interface{}

	for _, bp := range c.breakpoints.enabled(BreakpointVariable) {
		if bp.VariableName == "" {
			continue
		}
		current, ok := vars.GetVariable(bp.VariableName)
		if !ok {
			continue
		}

		matched, err := Compare(current, bp.ComparisonOperator, bp.VariableValue)
		if err != nil {
			evaluationErrors.Inc()
			c.logs.Addf(LevelError, "variable breakpoint error: %v", err)
			continue
		}
		if !matched {
			continue
		}

		c.breakpoints.Hit(bp.ID)
		breakpointHits.WithLabelValues(string(BreakpointVariable)).Inc()
		if first == nil {
			hit := bp
			first = &hit
			firstValue = current
		}
	}

	if first == nil || !allowPause {
		return
	}

	c.PauseExecution()
	c.notifyBreakpointHit(first.ID, stepIndex, map[string]interface{}{
		"variable_name":  first.VariableName,
		"variable_value": firstValue,
	})
	c.WaitForContinue()
}

// variableSnapshot builds the evaluation environment: variable name to
// current value.
func (c *Controller) variableSnapshot() map[string]interface{} {
	c.mu.Lock()
	vars := c.vars
	c.mu.Unlock()
	if vars == nil {
		return map[string]interface{}{}
	}

	all := vars.AllVariables()
	env := make(map[string]interface{}, len(all))
	for name, v := range all {
		env[name] = v.Value
	}
	return env
}

// AddWatchVariable registers a variable name for observation. Returns
// false for empty or already-watched names.
func (c *Controller) AddWatchVariable(name string) bool {
	if name == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.watch[name]; ok {
		return false
	}
	c.watch[name] = struct{}{}
	return true
}

// RemoveWatchVariable unregisters a watch variable.
func (c *Controller) RemoveWatchVariable(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.watch[name]; !ok {
		return false
	}
	delete(c.watch, name)
	return true
}

// WatchVariables returns the watched names in sorted order.
func (c *Controller) WatchVariables() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.watch))
	for name := range c.watch {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClearWatchVariables removes every watch variable.
func (c *Controller) ClearWatchVariables() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watch = make(map[string]struct{})
}

// WatchValues returns the current value of each watched variable.
// Undefined variables map to nil.
func (c *Controller) WatchValues() map[string]interface{} {
	c.mu.Lock()
	vars := c.vars
	c.mu.Unlock()

	values := make(map[string]interface{})
	for _, name := range c.WatchVariables() {
		if vars == nil {
			values[name] = nil
			continue
		}
		v, _ := vars.GetVariable(name)
		values[name] = v
	}
	return values
}

// notifyWatchVariables fires the variable-changed handler with the
// current value of every watched variable.
func (c *Controller) notifyWatchVariables() {
	c.cbMu.RLock()
	handler := c.onVariableChanged
	c.cbMu.RUnlock()
	if handler == nil {
		return
	}

	for name, value := range c.WatchValues() {
		handler(name, value)
	}
}

// PerformanceMetrics returns the exportable metrics snapshot.
func (c *Controller) PerformanceMetrics() map[string]interface{} {
	return c.metrics.Snapshot()
}

// Metrics returns the underlying collector for fine-grained queries.
func (c *Controller) Metrics() *MetricsCollector {
	return c.metrics
}

// DebugLogs returns the session log entries, optionally filtered by
// level.
func (c *Controller) DebugLogs(filter LogLevel) []LogEntry {
	return c.logs.Logs(filter)
}

// ClearDebugLogs removes every session log entry.
func (c *Controller) ClearDebugLogs() {
	c.logs.Clear()
}

// ExportDebugLogs writes the session log to path as text lines.
func (c *Controller) ExportDebugLogs(path string) error {
	return c.logs.ExportText(path)
}

// ExportDebugLogsJSON writes the session log to path as a JSON array.
func (c *Controller) ExportDebugLogsJSON(path string) error {
	return c.logs.ExportJSON(path)
}

// SetBreakpointHitHandler replaces the breakpoint-hit handler.
func (c *Controller) SetBreakpointHitHandler(fn BreakpointHitFunc) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onBreakpointHit = fn
}

// SetStepExecutionHandler replaces the step-execution handler.
func (c *Controller) SetStepExecutionHandler(fn StepExecutionFunc) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onStepExecution = fn
}

// SetVariableChangedHandler replaces the variable-changed handler.
func (c *Controller) SetVariableChangedHandler(fn VariableChangedFunc) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onVariableChanged = fn
}

// SetExecutionPausedHandler replaces the execution-paused handler.
func (c *Controller) SetExecutionPausedHandler(fn ExecutionPausedFunc) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onPaused = fn
}

// SetExecutionResumedHandler replaces the execution-resumed handler.
func (c *Controller) SetExecutionResumedHandler(fn ExecutionResumedFunc) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onResumed = fn
}

func (c *Controller) notifyBreakpointHit(id string, stepIndex int, stepData map[string]interface{}) {
	c.cbMu.RLock()
	handler := c.onBreakpointHit
	c.cbMu.RUnlock()
	if handler != nil {
		handler(id, stepIndex, stepData)
	}
}

func (c *Controller) notifyStepExecution(stepIndex int, stepData map[string]interface{}) {
	c.cbMu.RLock()
	handler := c.onStepExecution
	c.cbMu.RUnlock()
	if handler != nil {
		handler(stepIndex, stepData)
	}
}

func (c *Controller) notifyPaused(stepIndex int) {
	c.cbMu.RLock()
	handler := c.onPaused
	c.cbMu.RUnlock()
	if handler != nil {
		handler(stepIndex)
	}
}

func (c *Controller) notifyResumed(stepIndex int) {
	c.cbMu.RLock()
	handler := c.onResumed
	c.cbMu.RUnlock()
	if handler != nil {
		handler(stepIndex)
	}
}

func actionID(stepData map[string]interface{}) string {
	if id, ok := stepData["action_id"].(string); ok {
		return id
	}
	return "unknown"
}
