package tracing

import (
	"context"
	"testing"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	_, span := Tracer().Start(context.Background(), "noop")
	span.End()
}

func TestInit_EnabledInstallsProvider(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: true, ServiceVersion: "test"})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer shutdown(context.Background())

	_, span := Tracer().Start(context.Background(), "probe")
	defer span.End()
	if !span.SpanContext().HasTraceID() {
		t.Fatal("expected a recording span with a trace ID")
	}
}
