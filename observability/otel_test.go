package observability

import (
	"context"
	"testing"

	"github.com/korjavin/docquizbot/logger"
)

func TestInitTracingDisabled(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	shutdown := InitTracing(context.Background(), logger.Nop())
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracingStdout(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	shutdown := InitTracing(context.Background(), logger.Nop())
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", " YES ", "on"} {
		if !truthy(v) {
			t.Fatalf("truthy(%q): want=true", v)
		}
	}
	for _, v := range []string{"", "0", "off", "nope"} {
		if truthy(v) {
			t.Fatalf("truthy(%q): want=false", v)
		}
	}
}
