package trace

import (
	"context"
	"testing"
)

func TestDisabledTracingIsNoOp(t *testing.T) {
	t.Setenv("LOG_TRACING_ENABLED", "false")
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Enabled() {
		t.Fatal("tracing should be disabled")
	}

	ctx := context.Background()
	spanCtx, span := StartSpan(ctx, "engine.Step")
	if spanCtx != ctx {
		t.Error("disabled StartSpan must return the caller's context")
	}
	span.End()

	if _, _, ok := GetTraceFields(ctx); ok {
		t.Error("disabled tracing must not report trace fields")
	}
}

func TestSampleRatio(t *testing.T) {
	cases := []struct {
		val  string
		want float64
	}{
		{"", 1.0},
		{"0.25", 0.25},
		{"0", 0},
		{"1", 1.0},
		{"1.5", 1.0},
		{"-0.1", 1.0},
		{"garbage", 1.0},
	}
	for _, tc := range cases {
		t.Setenv("TRACE_SAMPLE_RATIO", tc.val)
		if got := sampleRatio(); got != tc.want {
			t.Errorf("sampleRatio(%q) = %v, want %v", tc.val, got, tc.want)
		}
	}
}
