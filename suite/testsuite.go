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

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TestSuite is a named collection of tests with unique names.
type TestSuite struct {
	Tests []*Test
}

// New creates a suite, rejecting duplicate test names.
func New(tests []*Test) (*TestSuite, error) {
	seen := make(map[string]bool, len(tests))
	for _, t := range tests {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("test names must be unique: %q appears more than once", t.Name)
		}
		seen[t.Name] = true
	}
	return &TestSuite{Tests: tests}, nil
}

// NumTests returns the number of tests in the suite.
func (s *TestSuite) NumTests() int { return len(s.Tests) }

// Load parses a suite from YAML test configurations keyed by test name.
// Without a filter, tests run in the order the plan declares them; filter
// optionally selects a comma-separated subset of test names, in filter order.
func Load(data []byte, filter string) (*TestSuite, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse test configurations: %w", err)
	}

	var order []string
	configs := make(map[string]*Test)
	if len(root.Content) > 0 {
		mapping := root.Content[0]
		if mapping.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("test configurations must be a mapping of test names")
		}
		for i := 0; i+1 < len(mapping.Content); i += 2 {
			name := mapping.Content[i].Value
			var t Test
			if err := mapping.Content[i+1].Decode(&t); err != nil {
				return nil, fmt.Errorf("failed to parse test %q: %w", name, err)
			}
			order = append(order, name)
			configs[name] = &t
		}
	}

	names := parseFilter(filter)
	if names == nil {
		names = order
	}

	tests := make([]*Test, 0, len(names))
	for _, name := range names {
		t, ok := configs[name]
		if !ok {
			return nil, fmt.Errorf("filter references unknown test %q", name)
		}
		t.Name = name
		if t.MaxTurns == 0 {
			t.MaxTurns = DefaultMaxTurns
		}
		tests = append(tests, t)
	}
	return New(tests)
}

func parseFilter(filter string) []string {
	if filter == "" {
		return nil
	}
	parts := strings.Split(filter, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
}
