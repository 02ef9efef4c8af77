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

// Package returncontrol implements the return-control protocol: answering
// the agent's mid-conversation pauses with pre-authored mock results and
// reconciling the invocations it actually made against the test's
// expectations.
package returncontrol

import (
	"context"
	"fmt"

	"github.com/sjzsdu/agenteval/internal/telemetry"
	"github.com/sjzsdu/agenteval/invocation"
	"github.com/sjzsdu/agenteval/responsefile"
	"github.com/sjzsdu/agenteval/suite"
	"github.com/sjzsdu/agenteval/trace"
)

// HookName is the registry name of the return-control hook.
const HookName = "return_control"

// ResultValidationFailed is the result code set when reconciliation finds
// expected-vs-actual invocation discrepancies.
const ResultValidationFailed = "RETURN_CONTROL_VALIDATION_FAILED"

// Hook holds one test's return-control contract: the expectations declared
// on its steps and the mock response cache that answers them. A Hook is
// created per test execution and holds a read-only view of the test.
type Hook struct {
	test         *suite.Test
	expectations []suite.StepExpectation
	store        *responsefile.Store
}

// NewHook creates the hook for one test execution. Response file paths are
// resolved relative to baseDir.
func NewHook(t *suite.Test, baseDir string) *Hook {
	return &Hook{
		test:         t,
		expectations: t.ExpectedInvocations(),
		store:        responsefile.NewStore(baseDir),
	}
}

// PreEvaluate eagerly loads every response file the test references. A
// missing or unreadable file fails the whole test setup.
func (h *Hook) PreEvaluate(ctx context.Context, t *suite.Test) error {
	for _, e := range h.expectations {
		if err := h.store.Preload([]string{e.Expected.ResponseFile}); err != nil {
			return fmt.Errorf("test %q: %w", t.Name, err)
		}
		telemetry.LogResponseFileLoaded(ctx, e.Expected.ResponseFile)
	}
	return nil
}

// ResponseFor returns the mock response content for a pending invocation
// input, if some step expectation matches it. The first declared expectation
// that matches wins.
func (h *Hook) ResponseFor(in invocation.Input) (string, bool) {
	for _, e := range h.expectations {
		if invocation.MatchesLive(e.Expected, in) {
			return h.store.Get(e.Expected.ResponseFile)
		}
	}
	return "", false
}

// PostEvaluate reconciles the return-control invocations recorded in the
// trace against the test's expectations, failing the result on any
// discrepancy. Tests without expectations are left untouched.
func (h *Hook) PostEvaluate(ctx context.Context, t *suite.Test, result *suite.TestResult, tr *trace.Trace) error {
	if len(h.expectations) == 0 {
		return nil
	}

	errs := reconcile(h.expectations, tr.ReturnControlInvocations())
	telemetry.LogValidation(ctx, t.Name, errs)
	if len(errs) == 0 {
		return nil
	}

	result.Passed = false
	result.Result = ResultValidationFailed
	result.Reasoning = joinErrors(errs)
	return nil
}
