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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowpilot/flowpilot/pkg/flow"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <flow.yaml>",
		Short: "Validate a flow definition without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := flow.Load(args[0])
			if err != nil {
				return err
			}
			if err := def.Validate(); err != nil {
				return err
			}

			fmt.Printf("✓ %s is valid\n", args[0])
			fmt.Printf("  name:      %s\n", def.Name)
			if def.Description != "" {
				fmt.Printf("  desc:      %s\n", def.Description)
			}
			fmt.Printf("  steps:     %d\n", len(def.Steps))
			fmt.Printf("  variables: %d\n", len(def.Variables))
			for i, step := range def.Steps {
				name := step.Name
				if name == "" {
					name = step.ActionID
				}
				fmt.Printf("    [%d] %s (%s)\n", i, name, step.ActionID)
			}
			return nil
		},
	}
}
