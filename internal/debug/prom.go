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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	breakpointHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowpilot_breakpoint_hits_total",
			Help: "Total breakpoint hits by breakpoint type",
		},
		[]string{"type"},
	)

	executionPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flowpilot_execution_pauses_total",
			Help: "Total transitions into the paused state",
		},
	)

	executionResumes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flowpilot_execution_resumes_total",
			Help: "Total transitions out of the paused state",
		},
	)

	evaluationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flowpilot_condition_evaluation_errors_total",
			Help: "Total condition and variable comparisons that failed to evaluate",
		},
	)
)
