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

// Package runner executes test suites against an agent target. Each test
// runs sequentially through its steps with its own target, hook and response
// cache; independent tests may run in parallel.
package runner

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sjzsdu/agenteval/hook"
	"github.com/sjzsdu/agenteval/internal/telemetry"
	"github.com/sjzsdu/agenteval/returncontrol"
	"github.com/sjzsdu/agenteval/suite"
	"github.com/sjzsdu/agenteval/target"
	"github.com/sjzsdu/agenteval/trace"
)

// TargetFactory builds the target for one test execution. The responder is
// the test's return-control hook; targets wire it into their conversation
// controller.
type TargetFactory func(t *suite.Test, responder returncontrol.Responder) (target.Target, error)

// Config is used to create a [Runner].
type Config struct {
	// NewTarget builds a fresh target per test.
	NewTarget TargetFactory

	// optional; base directory for resolving mock response file paths.
	BaseDir string
	// optional; registry for hooks named by a test's hook field.
	Hooks *hook.Registry
	// optional; number of tests run in parallel. Defaults to 1.
	Concurrency int
}

// New creates a new [Runner].
func New(cfg Config) (*Runner, error) {
	if cfg.NewTarget == nil {
		return nil, fmt.Errorf("target factory is required")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{
		newTarget:   cfg.NewTarget,
		baseDir:     cfg.BaseDir,
		hooks:       cfg.Hooks,
		concurrency: concurrency,
	}, nil
}

// Runner executes tests. It holds no per-test state; every execution gets
// its own target, hooks and trace.
type Runner struct {
	newTarget   TargetFactory
	baseDir     string
	hooks       *hook.Registry
	concurrency int
}

// RunSuite executes every test of the suite and returns results in suite
// order. A configuration or transport error aborts the whole run; validation
// failures are reported in the results instead.
func (r *Runner) RunSuite(ctx context.Context, s *suite.TestSuite) ([]*suite.TestResult, error) {
	results := make([]*suite.TestResult, len(s.Tests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, t := range s.Tests {
		g.Go(func() error {
			result, _, err := r.RunTest(gctx, t)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunTest executes one test and returns its result together with the
// execution trace.
func (r *Runner) RunTest(ctx context.Context, t *suite.Test) (*suite.TestResult, *trace.Trace, error) {
	if err := t.Validate(); err != nil {
		return nil, nil, err
	}

	rcHook := returncontrol.NewHook(t, r.baseDir)
	hooks := []hook.Hook{rcHook}
	if t.Hook != "" {
		if r.hooks == nil {
			return nil, nil, fmt.Errorf("test %q names hook %q but no hook registry is configured", t.Name, t.Hook)
		}
		custom, err := r.hooks.New(t.Hook, t)
		if err != nil {
			return nil, nil, err
		}
		hooks = append(hooks, custom)
	}

	for _, h := range hooks {
		if err := h.PreEvaluate(ctx, t); err != nil {
			return nil, nil, err
		}
	}

	tgt, err := r.newTarget(t, rcHook)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create target for test %q: %w", t.Name, err)
	}

	tr := trace.New(t.Name)
	result := &suite.TestResult{
		TestName: t.Name,
		Passed:   true,
		Result:   suite.ResultAllStepsCompleted,
	}

	prompts := make([]string, 0, len(t.Steps)+1)
	if t.InitialPrompt != "" {
		prompts = append(prompts, t.InitialPrompt)
	}
	for _, step := range t.Steps {
		prompts = append(prompts, step.Text)
	}

	for turnIndex, prompt := range prompts {
		if turnIndex >= t.MaxTurns {
			result.Passed = false
			result.Result = suite.ResultMaxTurnsExceeded
			result.Reasoning = fmt.Sprintf("conversation reached the maximum of %d turns before all steps ran", t.MaxTurns)
			break
		}

		turnCtx, span := telemetry.StartTurn(ctx, t.Name, turnIndex)
		startedAt := time.Now()
		turn, err := tgt.Invoke(turnCtx, prompt)
		telemetry.EndTurn(span, err)
		if err != nil {
			return nil, nil, err
		}

		tr.AddStep(trace.Step{
			Prompt:               prompt,
			Response:             turn.Completion,
			Parts:                turn.Parts,
			Citations:            turn.Citations,
			ReturnControlHandled: turn.Handled,
			StartedAt:            startedAt,
			EndedAt:              time.Now(),
		})
		result.Responses = append(result.Responses, turn.Completion)
	}

	for _, h := range hooks {
		if err := h.PostEvaluate(ctx, t, result, tr); err != nil {
			return nil, nil, err
		}
	}
	return result, tr, nil
}
