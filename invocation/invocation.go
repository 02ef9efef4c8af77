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

// Package invocation models the API and function invocations an agent can
// request during a return-control pause, together with the matching rules
// used to pair live and traced invocations against test expectations.
package invocation

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parameter is a single named argument of an invocation.
//
// Value always holds the canonical scalar text of the parameter. Test plans
// may declare values as YAML strings, numbers or booleans; they are
// canonicalized to their scalar text on decode so that comparison against the
// string-typed values the agent runtime reports is well defined.
type Parameter struct {
	Name  string `yaml:"name" json:"name"`
	Type  string `yaml:"type" json:"type"`
	Value string `yaml:"value" json:"value"`
}

// UnmarshalYAML canonicalizes scalar values (60, true, "60") to their text form.
func (p *Parameter) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name  string    `yaml:"name"`
		Type  string    `yaml:"type"`
		Value yaml.Node `yaml:"value"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Name == "" {
		return fmt.Errorf("invocation parameter is missing a name")
	}
	if raw.Value.Kind != 0 && raw.Value.Kind != yaml.ScalarNode {
		return fmt.Errorf("invocation parameter %q: value must be a scalar", raw.Name)
	}
	p.Name = raw.Name
	p.Type = raw.Type
	p.Value = raw.Value.Value
	return nil
}

// APIInput describes a REST-style action group invocation.
type APIInput struct {
	ActionGroup string      `yaml:"actionGroup" json:"actionGroup"`
	APIPath     string      `yaml:"apiPath" json:"apiPath"`
	HTTPMethod  string      `yaml:"httpMethod" json:"httpMethod"`
	Parameters  []Parameter `yaml:"parameters" json:"parameters,omitempty"`
}

func (in *APIInput) validate() error {
	if in.ActionGroup == "" {
		return fmt.Errorf("apiInvocationInput is missing actionGroup")
	}
	if in.APIPath == "" {
		return fmt.Errorf("apiInvocationInput is missing apiPath")
	}
	if in.HTTPMethod == "" {
		return fmt.Errorf("apiInvocationInput is missing httpMethod")
	}
	return nil
}

// FunctionInput describes a named function invocation within an action group.
type FunctionInput struct {
	ActionGroup string      `yaml:"actionGroup" json:"actionGroup"`
	Function    string      `yaml:"function" json:"function"`
	Parameters  []Parameter `yaml:"parameters" json:"parameters,omitempty"`
}

func (in *FunctionInput) validate() error {
	if in.ActionGroup == "" {
		return fmt.Errorf("functionInvocationInput is missing actionGroup")
	}
	if in.Function == "" {
		return fmt.Errorf("functionInvocationInput is missing function")
	}
	return nil
}

// Expected is a test author's declaration of one invocation the agent must
// request via return control, and the mock response file that answers it.
//
// Exactly one of the API or function variants is populated; use ExpectAPI or
// ExpectFunction to construct values. The zero value matches nothing.
type Expected struct {
	api *APIInput
	fn  *FunctionInput

	// ResponseFile is the logical path of the mock response document,
	// resolved against the harness base directory.
	ResponseFile string
}

// ExpectAPI declares an expected API invocation backed by responseFile.
func ExpectAPI(in APIInput, responseFile string) (*Expected, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if responseFile == "" {
		return nil, fmt.Errorf("expected invocation is missing invocation_response_file")
	}
	return &Expected{api: &in, ResponseFile: responseFile}, nil
}

// ExpectFunction declares an expected function invocation backed by responseFile.
func ExpectFunction(in FunctionInput, responseFile string) (*Expected, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if responseFile == "" {
		return nil, fmt.Errorf("expected invocation is missing invocation_response_file")
	}
	return &Expected{fn: &in, ResponseFile: responseFile}, nil
}

// API returns the API variant, if this expectation declares one.
func (e *Expected) API() (*APIInput, bool) { return e.api, e.api != nil }

// Function returns the function variant, if this expectation declares one.
func (e *Expected) Function() (*FunctionInput, bool) { return e.fn, e.fn != nil }

// UnmarshalYAML decodes the wire layout used in test plans:
//
//	apiInvocationInput: {...} | functionInvocationInput: {...}
//	invocation_response_file: path
//
// Declaring both variants, or neither, is a configuration error.
func (e *Expected) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		API          *APIInput      `yaml:"apiInvocationInput"`
		Function     *FunctionInput `yaml:"functionInvocationInput"`
		ResponseFile string         `yaml:"invocation_response_file"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch {
	case raw.API != nil && raw.Function != nil:
		return fmt.Errorf("expected invocation declares both apiInvocationInput and functionInvocationInput")
	case raw.API != nil:
		decoded, err := ExpectAPI(*raw.API, raw.ResponseFile)
		if err != nil {
			return err
		}
		*e = *decoded
	case raw.Function != nil:
		decoded, err := ExpectFunction(*raw.Function, raw.ResponseFile)
		if err != nil {
			return err
		}
		*e = *decoded
	default:
		return fmt.Errorf("expected invocation declares neither apiInvocationInput nor functionInvocationInput")
	}
	return nil
}

// MarshalJSON renders the wire layout, used when an unmet expectation is
// reported in validation reasoning.
func (e *Expected) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		API          *APIInput      `json:"apiInvocationInput,omitempty"`
		Function     *FunctionInput `json:"functionInvocationInput,omitempty"`
		ResponseFile string         `json:"invocation_response_file"`
	}{e.api, e.fn, e.ResponseFile})
}

// String renders the expectation for diagnostics.
func (e *Expected) String() string {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf("<unprintable expected invocation: %v>", err)
	}
	return string(b)
}

// Input is one pending invocation from a return-control pause event, carrying
// the parameter values the agent filled in. At most one variant is set; an
// Input with neither variant set matches nothing.
type Input struct {
	API      *APIInput
	Function *FunctionInput
}

// String renders the input for diagnostics.
func (in Input) String() string {
	switch {
	case in.API != nil:
		return fmt.Sprintf("api %s %s %s", in.API.ActionGroup, in.API.HTTPMethod, in.API.APIPath)
	case in.Function != nil:
		return fmt.Sprintf("function %s %s", in.Function.ActionGroup, in.Function.Function)
	}
	return "<empty invocation input>"
}
