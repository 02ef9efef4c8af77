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

package invocation

import (
	"encoding/json"
	"fmt"
)

// ExecutionType values reported on action group trace records.
const (
	ExecutionTypeLambda        = "LAMBDA"
	ExecutionTypeReturnControl = "RETURN_CONTROL"
)

// TraceRecord is an action group invocation as the execution trace reports
// it. The trace vocabulary differs from the pause event's (actionGroupName
// instead of actionGroup, verb instead of httpMethod); asInput is the single
// translation point into the live vocabulary.
type TraceRecord struct {
	ActionGroupName string      `json:"actionGroupName"`
	APIPath         string      `json:"apiPath,omitempty"`
	Verb            string      `json:"verb,omitempty"`
	Function        string      `json:"function,omitempty"`
	Parameters      []Parameter `json:"parameters,omitempty"`
	ExecutionType   string      `json:"executionType"`
}

// ReturnControl reports whether the invocation paused the agent for an
// externally supplied result, as opposed to agent-orchestrated execution.
func (r TraceRecord) ReturnControl() bool {
	return r.ExecutionType == ExecutionTypeReturnControl
}

// asInput normalizes the trace vocabulary into the live request shape. A
// record carrying a function name maps to the function variant, otherwise to
// the API variant.
func (r TraceRecord) asInput() Input {
	if r.Function != "" {
		return Input{Function: &FunctionInput{
			ActionGroup: r.ActionGroupName,
			Function:    r.Function,
			Parameters:  r.Parameters,
		}}
	}
	return Input{API: &APIInput{
		ActionGroup: r.ActionGroupName,
		APIPath:     r.APIPath,
		HTTPMethod:  r.Verb,
		Parameters:  r.Parameters,
	}}
}

// String renders the record for validation reasoning.
func (r TraceRecord) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("<unprintable trace record: %v>", err)
	}
	return string(b)
}
