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

package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sjzsdu/agenteval/hook"
	"github.com/sjzsdu/agenteval/invocation"
	"github.com/sjzsdu/agenteval/returncontrol"
	"github.com/sjzsdu/agenteval/suite"
	"github.com/sjzsdu/agenteval/target"
	"github.com/sjzsdu/agenteval/trace"
)

// fakeTarget answers each turn with a scripted turn result.
type fakeTarget struct {
	turns   []*returncontrol.TurnResult
	prompts []string
	err     error
}

func (f *fakeTarget) Invoke(ctx context.Context, prompt string) (*returncontrol.TurnResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.prompts = append(f.prompts, prompt)
	if len(f.prompts) > len(f.turns) {
		return &returncontrol.TurnResult{Handled: true}, nil
	}
	return f.turns[len(f.prompts)-1], nil
}

func factoryFor(tgt target.Target) TargetFactory {
	return func(t *suite.Test, responder returncontrol.Responder) (target.Target, error) {
		return tgt, nil
	}
}

func simpleTest(name string, steps ...suite.Step) *suite.Test {
	return &suite.Test{Name: name, Steps: steps, MaxTurns: len(steps) + 1}
}

func TestRunTestDrivesAllSteps(t *testing.T) {
	t.Parallel()

	tgt := &fakeTarget{turns: []*returncontrol.TurnResult{
		{Completion: "hello there", Handled: true},
		{Completion: "21 degrees", Handled: true},
	}}
	r, err := New(Config{NewTarget: factoryFor(tgt)})
	if err != nil {
		t.Fatal(err)
	}

	test := simpleTest("greet", suite.Step{Text: "hi"}, suite.Step{Text: "weather?"})
	result, tr, err := r.RunTest(t.Context(), test)
	if err != nil {
		t.Fatalf("RunTest() failed: %v", err)
	}

	if !result.Passed || result.Result != suite.ResultAllStepsCompleted {
		t.Errorf("result = %+v, want passed with %s", result, suite.ResultAllStepsCompleted)
	}
	if diff := cmp.Diff([]string{"hi", "weather?"}, tgt.prompts); diff != "" {
		t.Errorf("prompts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"hello there", "21 degrees"}, result.Responses); diff != "" {
		t.Errorf("responses mismatch (-want +got):\n%s", diff)
	}
	if len(tr.Steps) != 2 || tr.Steps[1].Response != "21 degrees" {
		t.Errorf("trace steps = %+v, want two recorded turns", tr.Steps)
	}
}

func TestRunTestSendsInitialPromptFirst(t *testing.T) {
	t.Parallel()

	tgt := &fakeTarget{}
	r, err := New(Config{NewTarget: factoryFor(tgt)})
	if err != nil {
		t.Fatal(err)
	}

	test := &suite.Test{
		Name:          "greet",
		InitialPrompt: "Hello, I need help",
		Steps:         []suite.Step{{Text: "first question"}},
		MaxTurns:      3,
	}
	if _, _, err := r.RunTest(t.Context(), test); err != nil {
		t.Fatalf("RunTest() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Hello, I need help", "first question"}, tgt.prompts); diff != "" {
		t.Errorf("prompts mismatch (-want +got):\n%s", diff)
	}
}

func TestRunTestEnforcesMaxTurns(t *testing.T) {
	t.Parallel()

	tgt := &fakeTarget{}
	r, err := New(Config{NewTarget: factoryFor(tgt)})
	if err != nil {
		t.Fatal(err)
	}

	test := &suite.Test{
		Name:     "long",
		Steps:    []suite.Step{{Text: "one"}, {Text: "two"}, {Text: "three"}},
		MaxTurns: 2,
	}
	result, _, err := r.RunTest(t.Context(), test)
	if err != nil {
		t.Fatalf("RunTest() failed: %v", err)
	}
	if result.Passed || result.Result != suite.ResultMaxTurnsExceeded {
		t.Errorf("result = %+v, want failed with %s", result, suite.ResultMaxTurnsExceeded)
	}
	if len(tgt.prompts) != 2 {
		t.Errorf("target invoked %d times, want 2", len(tgt.prompts))
	}
}

func TestRunTestAbortsOnTransportError(t *testing.T) {
	t.Parallel()

	transportErr := errors.New("access denied")
	r, err := New(Config{NewTarget: factoryFor(&fakeTarget{err: transportErr})})
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = r.RunTest(t.Context(), simpleTest("broken", suite.Step{Text: "hi"}))
	if !errors.Is(err, transportErr) {
		t.Fatalf("RunTest() error = %v, want %v", err, transportErr)
	}
}

func TestRunTestFailsSetupOnMissingResponseFile(t *testing.T) {
	t.Parallel()

	expected, err := invocation.ExpectAPI(invocation.APIInput{
		ActionGroup: "WeatherAPIs",
		APIPath:     "/get-weather",
		HTTPMethod:  "GET",
	}, "responses/absent.json")
	if err != nil {
		t.Fatal(err)
	}

	r, err := New(Config{
		BaseDir:   t.TempDir(),
		NewTarget: factoryFor(&fakeTarget{}),
	})
	if err != nil {
		t.Fatal(err)
	}

	test := simpleTest("weather", suite.Step{Text: "ask", ExpectedInvocation: expected})
	if _, _, err := r.RunTest(t.Context(), test); err == nil {
		t.Fatal("RunTest() = nil error, want setup failure for missing response file")
	}
}

func TestRunTestReturnControlVerdict(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "responses"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "responses/weather.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	expected, err := invocation.ExpectAPI(invocation.APIInput{
		ActionGroup: "WeatherAPIs",
		APIPath:     "/get-weather",
		HTTPMethod:  "GET",
	}, "responses/weather.json")
	if err != nil {
		t.Fatal(err)
	}

	// The target reports a turn whose trace contains no return-control
	// record, so reconciliation must fail the test.
	tgt := &fakeTarget{turns: []*returncontrol.TurnResult{{Completion: "no call made", Handled: true}}}
	r, err := New(Config{BaseDir: dir, NewTarget: factoryFor(tgt)})
	if err != nil {
		t.Fatal(err)
	}

	test := simpleTest("weather", suite.Step{Text: "ask", ExpectedInvocation: expected})
	result, _, err := r.RunTest(t.Context(), test)
	if err != nil {
		t.Fatalf("RunTest() failed: %v", err)
	}
	if result.Passed || result.Result != returncontrol.ResultValidationFailed {
		t.Errorf("result = %+v, want %s", result, returncontrol.ResultValidationFailed)
	}
	if !strings.Contains(result.Reasoning, "Expected invocation not found") {
		t.Errorf("Reasoning = %q", result.Reasoning)
	}
}

func TestRunSuiteCollectsResultsInOrder(t *testing.T) {
	t.Parallel()

	r, err := New(Config{
		Concurrency: 4,
		NewTarget: func(test *suite.Test, responder returncontrol.Responder) (target.Target, error) {
			return &fakeTarget{turns: []*returncontrol.TurnResult{
				{Completion: "response for " + test.Name, Handled: true},
			}}, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	var tests []*suite.Test
	for i := range 5 {
		tests = append(tests, simpleTest(fmt.Sprintf("test-%d", i), suite.Step{Text: "hi"}))
	}
	s, err := suite.New(tests)
	if err != nil {
		t.Fatal(err)
	}

	results, err := r.RunSuite(t.Context(), s)
	if err != nil {
		t.Fatalf("RunSuite() failed: %v", err)
	}
	for i, result := range results {
		wantName := fmt.Sprintf("test-%d", i)
		if result.TestName != wantName {
			t.Errorf("results[%d].TestName = %q, want %q", i, result.TestName, wantName)
		}
		if !result.Passed {
			t.Errorf("results[%d] failed: %+v", i, result)
		}
	}
}

func TestRunTestCustomHook(t *testing.T) {
	t.Parallel()

	registry := hook.NewRegistry()
	registry.Register("always_fail", func(test *suite.Test) (hook.Hook, error) {
		return failingHook{}, nil
	})

	r, err := New(Config{NewTarget: factoryFor(&fakeTarget{}), Hooks: registry})
	if err != nil {
		t.Fatal(err)
	}

	test := simpleTest("hooked", suite.Step{Text: "hi"})
	test.Hook = "always_fail"
	result, _, err := r.RunTest(t.Context(), test)
	if err != nil {
		t.Fatalf("RunTest() failed: %v", err)
	}
	if result.Passed {
		t.Error("Passed = true, want the custom hook verdict to stick")
	}

	test.Hook = "unregistered"
	if _, _, err := r.RunTest(t.Context(), test); err == nil {
		t.Fatal("RunTest() = nil error, want unknown hook failure")
	}
}

type failingHook struct{}

func (failingHook) PreEvaluate(ctx context.Context, t *suite.Test) error { return nil }

func (failingHook) PostEvaluate(ctx context.Context, t *suite.Test, result *suite.TestResult, tr *trace.Trace) error {
	result.Passed = false
	result.Result = "CUSTOM_HOOK_FAILED"
	return nil
}
