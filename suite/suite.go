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

// Package suite defines the declarative test model: suites of multi-turn
// conversational tests, each an ordered list of prompt steps that may carry a
// return-control expectation.
package suite

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sjzsdu/agenteval/invocation"
)

// DefaultMaxTurns bounds a test's conversation when the plan does not set
// max_turns explicitly.
const DefaultMaxTurns = 2

// Step is one conversational turn of a test: the prompt sent to the agent
// and, optionally, the invocation the agent is expected to request via
// return control during that turn.
type Step struct {
	// Text is the user prompt for this turn.
	Text string
	// ExpectedInvocation is nil for steps without a return-control contract.
	ExpectedInvocation *invocation.Expected
}

// UnmarshalYAML accepts either a plain prompt string or a mapping with a
// required "step" field and an optional "expected_invocation".
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Text = node.Value
		s.ExpectedInvocation = nil
		return nil
	}
	var raw struct {
		Step               string               `yaml:"step"`
		ExpectedInvocation *invocation.Expected `yaml:"expected_invocation"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Step == "" {
		return fmt.Errorf("step configuration must contain a 'step' field")
	}
	s.Text = raw.Step
	s.ExpectedInvocation = raw.ExpectedInvocation
	return nil
}

// Test is one conversational test case. Tests are built once at suite load
// time; Validate is re-run by the runner before execution so that any later
// mutation is caught before it can skew a verdict.
type Test struct {
	// Name is unique within a suite.
	Name string `yaml:"-"`
	// Steps are performed in order, one conversational turn each.
	Steps []Step `yaml:"steps"`
	// ExpectedResults describe the desired agent behavior per step.
	ExpectedResults []string `yaml:"expected_results"`
	// InitialPrompt optionally opens the conversation before the first step.
	InitialPrompt string `yaml:"initial_prompt"`
	// MaxTurns bounds the number of turns for the conversation.
	MaxTurns int `yaml:"max_turns"`
	// Hook optionally names a registered evaluation hook to attach.
	Hook string `yaml:"hook"`
}

// Validate checks the structural invariants of the test.
func (t *Test) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("test is missing a name")
	}
	if len(t.Steps) == 0 {
		return fmt.Errorf("test %q has no steps", t.Name)
	}
	if t.MaxTurns <= 0 {
		return fmt.Errorf("test %q: max_turns must be positive", t.Name)
	}
	for i, step := range t.Steps {
		if step.Text == "" {
			return fmt.Errorf("test %q: step %d has no prompt text", t.Name, i)
		}
	}
	return nil
}

// ExpectedInvocations returns the expectations declared across the test's
// steps, keyed by step index, in step order.
func (t *Test) ExpectedInvocations() []StepExpectation {
	var expectations []StepExpectation
	for i, step := range t.Steps {
		if step.ExpectedInvocation != nil {
			expectations = append(expectations, StepExpectation{
				StepIndex: i,
				Expected:  step.ExpectedInvocation,
			})
		}
	}
	return expectations
}

// StepExpectation pairs an expected invocation with the index of the step
// that declared it.
type StepExpectation struct {
	StepIndex int
	Expected  *invocation.Expected
}
