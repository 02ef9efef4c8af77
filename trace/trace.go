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

// Package trace records the execution log of a test: per-turn agent trace
// fragments, citations and responses, in the normalized shapes the
// reconciler consumes.
package trace

import (
	"encoding/json"
	"time"

	"github.com/sjzsdu/agenteval/invocation"
)

// Part is one structured trace fragment emitted by the agent runtime during
// a turn. Dynamic runtime payloads are normalized into this shape at the
// transport boundary; Raw preserves the original fragment for diagnostics.
type Part struct {
	// InvocationInput is set when the fragment describes an action group
	// invocation the orchestrator issued or paused on.
	InvocationInput *invocation.TraceRecord
	// Raw is the fragment as received, JSON-encoded.
	Raw json.RawMessage
}

// Step is the record of one conversational turn.
type Step struct {
	StepIndex int
	Prompt    string
	Response  string
	// Parts are the trace fragments the runtime emitted for the turn.
	Parts []Part
	// Citations attached to response chunks, as received.
	Citations []json.RawMessage
	// ReturnControlHandled is false when a pause could not be answered and
	// the turn was abandoned with an empty response.
	ReturnControlHandled bool
	StartedAt            time.Time
	EndedAt              time.Time
}

// Trace accumulates the steps of one test execution. It is owned by a single
// test run and never shared across tests.
type Trace struct {
	TestName string
	Steps    []Step
}

// New creates an empty trace for the named test.
func New(testName string) *Trace {
	return &Trace{TestName: testName}
}

// AddStep appends the record of a completed turn.
func (t *Trace) AddStep(step Step) {
	step.StepIndex = len(t.Steps)
	t.Steps = append(t.Steps, step)
}

// ReturnControlInvocations extracts, in trace order, every action group
// invocation that executed via return control rather than agent-orchestrated
// execution.
func (t *Trace) ReturnControlInvocations() []invocation.TraceRecord {
	var records []invocation.TraceRecord
	for _, step := range t.Steps {
		for _, part := range step.Parts {
			if part.InvocationInput != nil && part.InvocationInput.ReturnControl() {
				records = append(records, *part.InvocationInput)
			}
		}
	}
	return records
}
