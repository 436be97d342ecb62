package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newRecorder installs a recording tracer provider as the global provider
// and returns it for inspection.
func newRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { tp.Shutdown(context.Background()) })
	return rec
}

func singleSpan(t *testing.T, rec *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()
	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	return spans[0]
}

func attrValue(span sdktrace.ReadOnlySpan, key attribute.Key) (string, bool) {
	for _, attr := range span.Attributes() {
		if attr.Key == key {
			return attr.Value.AsString(), true
		}
	}
	return "", false
}

func TestStartDBSpan(t *testing.T) {
	tests := []struct {
		name      string
		table     string
		operation DBOperation
		wantName  string
	}{
		{"query", "content_records", DBOperationQuery, "query content_records"},
		{"insert", "interaction_events", DBOperationInsert, "insert interaction_events"},
		{"update", "content_records", DBOperationUpdate, "update content_records"},
		{"exec", "correction_watermarks", DBOperationExec, "exec correction_watermarks"},
		{"no table", "", DBOperationQuery, "query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecorder(t)

			_, end := StartDBSpan(context.Background(), tt.table, tt.operation)
			end(nil)

			span := singleSpan(t, rec)
			if span.Name() != tt.wantName {
				t.Errorf("span name = %q, want %q", span.Name(), tt.wantName)
			}
			if got, _ := attrValue(span, "db.system"); got != "postgresql" {
				t.Errorf("db.system = %q, want postgresql", got)
			}
			if got, _ := attrValue(span, "db.operation"); got != string(tt.operation) {
				t.Errorf("db.operation = %q, want %q", got, tt.operation)
			}
			got, ok := attrValue(span, "db.sql.table")
			if tt.table == "" && ok {
				t.Error("db.sql.table set for a table-less span")
			}
			if tt.table != "" && got != tt.table {
				t.Errorf("db.sql.table = %q, want %q", got, tt.table)
			}
		})
	}
}

func TestEndFuncRecordsError(t *testing.T) {
	rec := newRecorder(t)
	dbErr := errors.New("connection reset")

	_, end := StartDBSpan(context.Background(), "content_records", DBOperationQuery)
	end(dbErr)

	span := singleSpan(t, rec)
	if span.Status().Code.String() != "Error" {
		t.Errorf("status = %s, want Error", span.Status().Code)
	}
	if span.Status().Description != dbErr.Error() {
		t.Errorf("description = %q, want %q", span.Status().Description, dbErr)
	}
}

func TestStartSpan(t *testing.T) {
	rec := newRecorder(t)

	_, end := StartSpan(context.Background(), "aggregate_interaction_window")
	end(nil)

	span := singleSpan(t, rec)
	if span.Name() != "aggregate_interaction_window" {
		t.Errorf("span name = %q", span.Name())
	}
	if code := span.Status().Code.String(); code == "Error" {
		t.Errorf("successful span has status %s", code)
	}
}

func TestAddEvent(t *testing.T) {
	rec := newRecorder(t)

	ctx, span := otel.Tracer("test").Start(context.Background(), "record_interaction")
	AddEvent(ctx, "cache_hit",
		attribute.String("cache_key", "trust:weight:u123"),
		attribute.Int("ttl", 3600),
	)
	span.End()

	events := singleSpan(t, rec).Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Name != "cache_hit" {
		t.Errorf("event name = %q, want cache_hit", events[0].Name)
	}
	if len(events[0].Attributes) != 2 {
		t.Errorf("event has %d attributes, want 2", len(events[0].Attributes))
	}
}

func TestSetAttributes(t *testing.T) {
	rec := newRecorder(t)

	ctx, span := otel.Tracer("test").Start(context.Background(), "record_interaction")
	SetAttributes(ctx,
		attribute.String("content_id", "c-123"),
		attribute.String("endpoint", "/interactions"),
	)
	span.End()

	got := singleSpan(t, rec)
	if v, ok := attrValue(got, "content_id"); !ok || v != "c-123" {
		t.Errorf("content_id = %q (present=%v), want c-123", v, ok)
	}
	if v, ok := attrValue(got, "endpoint"); !ok || v != "/interactions" {
		t.Errorf("endpoint = %q (present=%v), want /interactions", v, ok)
	}
}
