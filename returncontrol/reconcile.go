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

package returncontrol

import (
	"fmt"
	"strings"

	"github.com/sjzsdu/agenteval/invocation"
	"github.com/sjzsdu/agenteval/suite"
)

// reconcile pairs expectations with actual return-control trace records and
// returns one message per discrepancy. Pairing is first-fit in trace order:
// each expectation consumes the first unconsumed record it matches, so no
// record can satisfy two expectations. An empty result means the sets are in
// exact bijection.
func reconcile(expectations []suite.StepExpectation, actual []invocation.TraceRecord) []string {
	var errs []string
	consumed := make(map[int]bool, len(actual))

	for _, e := range expectations {
		matched := false
		for i, record := range actual {
			if consumed[i] {
				continue
			}
			if invocation.MatchesTrace(e.Expected, record) {
				consumed[i] = true
				matched = true
				break
			}
		}
		if !matched {
			errs = append(errs, fmt.Sprintf(
				"Step %d: Expected invocation not found. Expected: %s",
				e.StepIndex, e.Expected))
		}
	}

	var unexpected []string
	for i, record := range actual {
		if !consumed[i] {
			unexpected = append(unexpected, record.String())
		}
	}
	if len(unexpected) > 0 {
		errs = append(errs, fmt.Sprintf(
			"Found %d unexpected invocations: [%s]",
			len(unexpected), strings.Join(unexpected, ", ")))
	}

	return errs
}

func joinErrors(errs []string) string {
	return strings.Join(errs, "\n")
}
