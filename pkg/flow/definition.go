// Package flow provides the data model for automation flows: ordered
// sequences of steps, the variable store the steps read and write, and
// YAML loading for flow definitions.
//
// The debug subsystem (internal/debug) observes flows through this
// package's types but never executes steps itself.
package flow

import (
	"fmt"
	"os"

	"github.com/flowpilot/flowpilot/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Definition represents a YAML-based flow definition.
// It defines the ordered steps of an automation flow together with the
// initial variable values the flow starts from.
type Definition struct {
	// Name is the flow identifier
	Name string `yaml:"name" json:"name"`

	// Description provides human-readable context about the flow
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Version tracks the flow definition schema version (optional, defaults to "1.0")
	Version string `yaml:"version,omitempty" json:"version,omitempty"`

	// Variables are the initial variable values, keyed by name
	Variables map[string]interface{} `yaml:"variables,omitempty" json:"variables,omitempty"`

	// Steps are the executable units of the flow, in execution order
	Steps []Step `yaml:"steps" json:"steps"`
}

// Step is one unit of flow execution. Steps are identified by their
// zero-based position in Definition.Steps; the index is not stored on
// the step itself.
type Step struct {
	// ActionID identifies the action to execute (e.g., "set_variable", "sleep")
	ActionID string `yaml:"action" json:"action_id"`

	// Name is an optional human-readable label for the step
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Params are the action parameters
	Params map[string]interface{} `yaml:"params,omitempty" json:"params,omitempty"`

	// ContinueOnError lets the flow proceed past a failure of this step
	ContinueOnError bool `yaml:"continue_on_error,omitempty" json:"continue_on_error,omitempty"`
}

// Data returns the step as a generic map, the shape surfaced to debug
// observers on step events.
func (s Step) Data() map[string]interface{} {
	return map[string]interface{}{
		"action_id": s.ActionID,
		"name":      s.Name,
		"params":    s.Params,
	}
}

// Parse parses a flow definition from YAML bytes.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errors.Wrap(err, "parsing flow definition")
	}
	if def.Version == "" {
		def.Version = "1.0"
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads and parses a flow definition from a YAML file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading flow file %s", path)
	}
	return Parse(data)
}

// Validate checks structural requirements on the definition.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return &errors.ValidationError{
			Field:      "name",
			Message:    "flow name is required",
			Suggestion: "add a top-level 'name' field to the flow definition",
		}
	}
	if len(d.Steps) == 0 {
		return &errors.ValidationError{
			Field:      "steps",
			Message:    "flow must contain at least one step",
			Suggestion: "add a 'steps' array with at least one action",
		}
	}
	for i, step := range d.Steps {
		if step.ActionID == "" {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("steps[%d].action", i),
				Message: "step action is required",
			}
		}
	}
	return nil
}
