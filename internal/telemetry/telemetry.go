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

// Package telemetry emits the harness's diagnostic events and spans through
// OpenTelemetry. Nothing here is part of the validation contract; callers
// decide whether and where the records surface by installing providers.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	semconv "go.opentelemetry.io/otel/semconv/v1.36.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/sjzsdu/agenteval/internal/version"
	"github.com/sjzsdu/agenteval/invocation"
)

const systemName = "aws.bedrock.agent_eval"

var tracer = otel.GetTracerProvider().Tracer(
	systemName,
	trace.WithInstrumentationVersion(version.Version),
	trace.WithSchemaURL(semconv.SchemaURL),
)

var otelLogger = global.GetLoggerProvider().Logger(
	systemName,
	log.WithSchemaURL(semconv.SchemaURL),
	log.WithInstrumentationVersion(version.Version),
)

var (
	testNameKey     = attribute.Key("agent_eval.test_name")
	turnIndexKey    = attribute.Key("agent_eval.turn_index")
	invocationIDKey = attribute.Key("agent_eval.invocation_id")
)

// StartTurn opens a span covering one conversational turn, including any
// pause/resume cycles within it.
func StartTurn(ctx context.Context, testName string, turnIndex int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "agent_eval.turn",
		trace.WithAttributes(
			testNameKey.String(testName),
			turnIndexKey.Int(turnIndex),
		))
}

// EndTurn closes a turn span, recording err if the turn failed.
func EndTurn(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	span.End()
}

// LogPause records that the agent paused for externally supplied results.
func LogPause(ctx context.Context, invocationID string, pendingInputs int) {
	record := log.Record{}
	record.SetEventName("agent_eval.return_control.pause")
	record.SetBody(log.MapValue(
		log.String("invocation_id", invocationID),
		log.Int("pending_inputs", pendingInputs),
	))
	record.AddAttributes(log.KeyValue{Key: string(invocationIDKey), Value: log.StringValue(invocationID)})
	otelLogger.Emit(ctx, record)
}

// LogInputSkipped records a pending invocation input with no matching
// expectation; the input contributes nothing to the resumption payload.
func LogInputSkipped(ctx context.Context, in invocation.Input) {
	record := log.Record{}
	record.SetEventName("agent_eval.return_control.input_skipped")
	record.SetBody(log.StringValue(in.String()))
	otelLogger.Emit(ctx, record)
}

// LogResume records the resumption of a paused turn.
func LogResume(ctx context.Context, invocationID string, results int) {
	record := log.Record{}
	record.SetEventName("agent_eval.return_control.resume")
	record.SetBody(log.MapValue(
		log.String("invocation_id", invocationID),
		log.Int("results", results),
	))
	otelLogger.Emit(ctx, record)
}

// LogAbandonedPause records a pause for which no resumption result could be
// produced, so the turn is surfaced unhandled.
func LogAbandonedPause(ctx context.Context, invocationID string) {
	record := log.Record{}
	record.SetEventName("agent_eval.return_control.abandoned")
	record.SetBody(log.StringValue(invocationID))
	otelLogger.Emit(ctx, record)
}

// LogTransportError records a failure of the agent transport. The error
// itself propagates to the caller unmodified.
func LogTransportError(ctx context.Context, sessionID string, err error) {
	record := log.Record{}
	record.SetEventName("agent_eval.transport.error")
	record.SetBody(log.MapValue(
		log.String("session_id", sessionID),
		log.String("error", err.Error()),
	))
	otelLogger.Emit(ctx, record)
}

// LogResponseFileLoaded records a mock response file entering the cache.
func LogResponseFileLoaded(ctx context.Context, path string) {
	record := log.Record{}
	record.SetEventName("agent_eval.response_file.loaded")
	record.SetBody(log.StringValue(path))
	otelLogger.Emit(ctx, record)
}

// LogValidation records the reconciliation verdict for a test.
func LogValidation(ctx context.Context, testName string, errs []string) {
	record := log.Record{}
	record.SetEventName("agent_eval.return_control.validation")
	kvs := []log.KeyValue{
		log.String("test_name", testName),
		log.Bool("passed", len(errs) == 0),
	}
	if len(errs) > 0 {
		vals := make([]log.Value, 0, len(errs))
		for _, e := range errs {
			vals = append(vals, log.StringValue(e))
		}
		kvs = append(kvs, log.KeyValue{Key: "errors", Value: log.SliceValue(vals...)})
	}
	record.SetBody(log.MapValue(kvs...))
	otelLogger.Emit(ctx, record)
}
