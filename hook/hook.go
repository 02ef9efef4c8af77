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

// Package hook defines the evaluation hook seam: code that runs before a
// test's conversation starts and after it finishes, with the power to fail
// the test.
package hook

import (
	"context"
	"fmt"

	"github.com/sjzsdu/agenteval/suite"
	"github.com/sjzsdu/agenteval/trace"
)

// Hook observes a test execution.
//
// PreEvaluate runs before the first turn; an error aborts the test setup.
// PostEvaluate runs once after the conversation finishes and may mutate the
// result in place to record a verdict.
type Hook interface {
	PreEvaluate(ctx context.Context, t *suite.Test) error
	PostEvaluate(ctx context.Context, t *suite.Test, result *suite.TestResult, tr *trace.Trace) error
}

// Factory builds a hook instance for one test execution.
type Factory func(t *suite.Test) (Hook, error)

// Registry maps hook names, as referenced by a test's hook field, to
// factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named factory. Re-registering a name is a programming
// error and panics.
func (r *Registry) Register(name string, f Factory) {
	if _, ok := r.factories[name]; ok {
		panic(fmt.Sprintf("hook %q registered twice", name))
	}
	r.factories[name] = f
}

// New builds the named hook for the given test.
func (r *Registry) New(name string, t *suite.Test) (Hook, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown hook %q", name)
	}
	return f(t)
}
