package apm

import (
	"context"
	"testing"

	"github.com/fd1az/pool-sniper/internal/logger"
)

func TestParseProvider(t *testing.T) {
	tests := map[string]Provider{
		"zipkin":     ZipkinProvider,
		" Console ":  ConsoleProvider,
		"HONEYCOMB":  HoneycombProvider,
		"newrelic":   NewRelicProvider,
		"jaeger":     EmptyProvider,
		"":           EmptyProvider,
	}
	for in, want := range tests {
		if got := ParseProvider(in); got != want {
			t.Errorf("ParseProvider(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewTraceProvider_Empty(t *testing.T) {
	tp, err := NewTraceProvider(context.Background(), logger.NewDiscard(), Config{Provider: EmptyProvider})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tp.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestNewTraceProvider_HoneycombBadHeaders(t *testing.T) {
	_, err := NewTraceProvider(context.Background(), logger.NewDiscard(), Config{
		Provider: HoneycombProvider,
		Endpoint: "https://api.honeycomb.io",
		Headers:  "missing-separator",
	})
	if err == nil {
		t.Fatal("expected error for malformed headers")
	}
}
