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
	"context"
	"encoding/json"
	"iter"

	"github.com/sjzsdu/agenteval/internal/telemetry"
	"github.com/sjzsdu/agenteval/invocation"
	"github.com/sjzsdu/agenteval/trace"
)

// Chunk is a fragment of the agent's textual response, with any citations
// attached to it.
type Chunk struct {
	Bytes     []byte
	Citations []json.RawMessage
}

// Pause is the event the agent emits when it suspends the turn to request
// externally supplied results. InvocationID scopes the pending inputs and
// must be echoed on resumption.
type Pause struct {
	InvocationID string
	Inputs       []invocation.Input
}

// Event is one item of the transport's event stream. Exactly one field is
// set. A Pause terminates its stream.
type Event struct {
	Chunk *Chunk
	Trace *trace.Part
	Pause *Pause
}

// APIResult answers a pending API invocation with a mock response body.
type APIResult struct {
	ActionGroup string
	APIPath     string
	HTTPMethod  string
	Body        string
}

// FunctionResult answers a pending function invocation with a mock response
// body.
type FunctionResult struct {
	ActionGroup string
	Function    string
	Body        string
}

// Result is one resumption result, mirroring the variant of the pending
// input it answers.
type Result struct {
	API      *APIResult
	Function *FunctionResult
}

// Transport is the conversation collaborator. Send opens a turn with a user
// prompt; Resume continues a paused turn with results in place of a prompt.
// Both return a blocking pull stream that yields chunks and trace parts and
// ends either normally or early with a single Pause. Transport errors are
// yielded as-is and must not be retried here.
type Transport interface {
	Send(ctx context.Context, prompt string) iter.Seq2[Event, error]
	Resume(ctx context.Context, invocationID string, results []Result) iter.Seq2[Event, error]
}

// Responder resolves a pending invocation input to mock response content.
// *Hook is the canonical implementation.
type Responder interface {
	ResponseFor(invocation.Input) (string, bool)
}

// TurnResult is the outcome of one conversational turn, spanning every
// pause/resume cycle within it.
type TurnResult struct {
	// Completion is the concatenated response text, in stream order across
	// continuations.
	Completion string
	// Parts are the trace fragments emitted during the turn.
	Parts []trace.Part
	// Citations attached to response chunks.
	Citations []json.RawMessage
	// Handled is false when a pause had no resolvable inputs and the turn
	// was abandoned with an empty completion.
	Handled bool
}

// Controller drives one turn of the conversation through its states:
//
//	IDLE → AWAITING_RESPONSE → (PAUSED_FOR_INPUT ⇄ AWAITING_RESPONSE)* → COMPLETE
//
// Sending the prompt moves to AWAITING_RESPONSE; a pause event moves to
// PAUSED_FOR_INPUT; resuming with constructed results moves back to
// AWAITING_RESPONSE; stream completion without a further pause is COMPLETE.
// A turn may pause any number of times; the only loop bound is the turn
// budget the surrounding test imposes.
type Controller struct {
	transport Transport
	responder Responder
}

// NewController creates a controller for one test execution.
func NewController(transport Transport, responder Responder) *Controller {
	return &Controller{transport: transport, responder: responder}
}

// Turn sends the prompt and drives the stream to completion, answering every
// resolvable pause on the way. If a pause yields no resumption results the
// turn is not resumed: the result carries Handled=false and an empty
// completion instead of a malformed resumption call. Transport errors
// propagate unmodified.
func (c *Controller) Turn(ctx context.Context, prompt string) (*TurnResult, error) {
	result := &TurnResult{Handled: true}
	stream := c.transport.Send(ctx, prompt)

	for {
		pause, err := drain(stream, result)
		if err != nil {
			return nil, err
		}
		if pause == nil {
			return result, nil
		}

		telemetry.LogPause(ctx, pause.InvocationID, len(pause.Inputs))
		results := c.resolve(ctx, pause)
		if len(results) == 0 {
			telemetry.LogAbandonedPause(ctx, pause.InvocationID)
			result.Handled = false
			result.Completion = ""
			return result, nil
		}

		telemetry.LogResume(ctx, pause.InvocationID, len(results))
		stream = c.transport.Resume(ctx, pause.InvocationID, results)
	}
}

// drain consumes stream events into result until the stream ends or pauses.
func drain(stream iter.Seq2[Event, error], result *TurnResult) (*Pause, error) {
	for ev, err := range stream {
		if err != nil {
			return nil, err
		}
		switch {
		case ev.Pause != nil:
			return ev.Pause, nil
		case ev.Chunk != nil:
			result.Completion += string(ev.Chunk.Bytes)
			result.Citations = append(result.Citations, ev.Chunk.Citations...)
		case ev.Trace != nil:
			result.Parts = append(result.Parts, *ev.Trace)
		}
	}
	return nil, nil
}

// resolve builds one resumption result per pending input that matches an
// expectation with a loaded mock response. Unresolvable inputs are skipped
// and contribute nothing.
func (c *Controller) resolve(ctx context.Context, pause *Pause) []Result {
	var results []Result
	for _, in := range pause.Inputs {
		body, ok := c.responder.ResponseFor(in)
		if !ok {
			telemetry.LogInputSkipped(ctx, in)
			continue
		}
		switch {
		case in.API != nil:
			results = append(results, Result{API: &APIResult{
				ActionGroup: in.API.ActionGroup,
				APIPath:     in.API.APIPath,
				HTTPMethod:  in.API.HTTPMethod,
				Body:        body,
			}})
		case in.Function != nil:
			results = append(results, Result{Function: &FunctionResult{
				ActionGroup: in.Function.ActionGroup,
				Function:    in.Function.Function,
				Body:        body,
			}})
		}
	}
	return results
}
