// Copyright 2025 Google LLC
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

package suite

// Result codes set by the runner. Evaluation hooks may set their own codes
// when they fail a test.
const (
	ResultAllStepsCompleted = "ALL_STEPS_COMPLETED"
	ResultMaxTurnsExceeded  = "MAX_TURNS_EXCEEDED"
)

// TestResult is the outcome of one test execution. Hooks mutate the result
// in place during post evaluation.
type TestResult struct {
	TestName string
	// Passed is the overall verdict.
	Passed bool
	// Result is a short machine-readable code for the outcome.
	Result string
	// Reasoning is human-readable diagnostic detail, newline-separated when
	// it aggregates several findings.
	Reasoning string
	// Responses holds the agent's textual response per executed turn.
	Responses []string
}
