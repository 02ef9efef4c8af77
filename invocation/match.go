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

import "strconv"

// MatchesLive reports whether a pending invocation input from a pause event
// satisfies the expectation. Identity fields must be equal and the parameter
// sets must agree exactly: no missing, extra or differing parameters, in any
// order.
func MatchesLive(e *Expected, actual Input) bool {
	if e == nil {
		return false
	}
	switch {
	case e.api != nil:
		if actual.API == nil {
			return false
		}
		return e.api.ActionGroup == actual.API.ActionGroup &&
			e.api.APIPath == actual.API.APIPath &&
			e.api.HTTPMethod == actual.API.HTTPMethod &&
			paramsEqual(e.api.Parameters, actual.API.Parameters)
	case e.fn != nil:
		if actual.Function == nil {
			return false
		}
		return e.fn.ActionGroup == actual.Function.ActionGroup &&
			e.fn.Function == actual.Function.Function &&
			paramsEqual(e.fn.Parameters, actual.Function.Parameters)
	}
	return false
}

// MatchesTrace reports whether an execution trace record satisfies the
// expectation. The record is normalized into the live vocabulary first.
func MatchesTrace(e *Expected, record TraceRecord) bool {
	return MatchesLive(e, record.asInput())
}

// paramsEqual compares two parameter sets as unordered name→value mappings.
// Both sides collapse to their mapping first, so equality holds exactly when
// the key sets and the canonical values agree. A type tag mismatch fails the
// comparison when both sides declare one.
func paramsEqual(expected, actual []Parameter) bool {
	want := paramMap(expected)
	got := paramMap(actual)
	if len(want) != len(got) {
		return false
	}
	for name, p := range want {
		q, ok := got[name]
		if !ok {
			return false
		}
		if p.Type != "" && q.Type != "" && p.Type != q.Type {
			return false
		}
		if canonicalValue(p) != canonicalValue(q) {
			return false
		}
	}
	return true
}

// paramMap collapses a parameter list into its name→parameter mapping. A
// repeated name keeps the last occurrence.
func paramMap(params []Parameter) map[string]Parameter {
	m := make(map[string]Parameter, len(params))
	for _, p := range params {
		m[p.Name] = p
	}
	return m
}

// canonicalValue reduces a parameter value to the canonical text of its
// declared type, so that 60, "60" and "60.0" tagged as numbers compare equal
// while untagged values compare verbatim.
func canonicalValue(p Parameter) string {
	switch p.Type {
	case "integer", "number":
		if f, err := strconv.ParseFloat(p.Value, 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	case "boolean":
		if b, err := strconv.ParseBool(p.Value); err == nil {
			return strconv.FormatBool(b)
		}
	}
	return p.Value
}
