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
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/flowpilot/flowpilot/pkg/flow"
)

// Inspector provides utilities for inspecting a variable snapshot while
// execution is paused.
type Inspector struct {
	vars map[string]flow.Variable
}

// NewInspector creates an inspector over the given snapshot.
func NewInspector(vars map[string]flow.Variable) *Inspector {
	return &Inspector{vars: vars}
}

// Get retrieves a variable's value by name.
func (i *Inspector) Get(name string) (interface{}, bool) {
	v, ok := i.vars[name]
	if !ok {
		return nil, false
	}
	return v.Value, true
}

// Names returns all variable names, sorted.
func (i *Inspector) Names() []string {
	names := make([]string, 0, len(i.vars))
	for name := range i.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Format formats a value for display.
func (i *Inspector) Format(value interface{}) (string, error) {
	bytes, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format value: %w", err)
	}
	return string(bytes), nil
}

// Summary returns one line per variable: name, type label and value.
func (i *Inspector) Summary() string {
	var b strings.Builder
	for _, name := range i.Names() {
		v := i.vars[name]
		if v.Type != "" {
			fmt.Fprintf(&b, "  %s (%s) = %v\n", name, v.Type, v.Value)
		} else {
			fmt.Fprintf(&b, "  %s = %v\n", name, v.Value)
		}
	}
	return b.String()
}
