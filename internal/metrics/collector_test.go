package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounter_SameKeyReturnsSameCounter(t *testing.T) {
	c := NewMetricsCollector()
	a := c.Counter("x_total", "help", `k="v"`)
	b := c.Counter("x_total", "help", `k="v"`)
	a.Inc()
	b.Inc()
	if a.Value() != 2 {
		t.Fatalf("expected 2, got %d", a.Value())
	}
}

func TestHistogram_Observe(t *testing.T) {
	c := NewMetricsCollector()
	h := c.Histogram("lat_seconds", "help", "", []float64{1, 5})
	h.Observe(0.5)
	h.Observe(3)
	h.Observe(10)
	if h.count != 3 {
		t.Fatalf("expected count 3, got %d", h.count)
	}
	if h.buckets[0].count != 1 || h.buckets[1].count != 2 {
		t.Fatalf("unexpected buckets: %+v", h.buckets)
	}
}

func TestHandler_RendersToolCalls(t *testing.T) {
	ToolCall("calculator", "ok")
	ToolCall("calculator", "ok")

	rec := httptest.NewRecorder()
	Collector.Handler()(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	if !strings.Contains(body, "# TYPE toolchat_tool_calls_total counter") {
		t.Errorf("missing TYPE line:\n%s", body)
	}
	if !strings.Contains(body, `toolchat_tool_calls_total{tool="calculator",outcome="ok"}`) {
		t.Errorf("missing labelled counter:\n%s", body)
	}
	if !strings.Contains(body, "toolchat_uptime_seconds") {
		t.Errorf("missing uptime gauge")
	}
}

func TestHandler_RendersHistogramBuckets(t *testing.T) {
	c := NewMetricsCollector()
	c.Histogram("lat_seconds", "help", `tool="x"`, []float64{1}).Observe(0.2)

	rec := httptest.NewRecorder()
	c.Handler()(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`lat_seconds_bucket{tool="x",le="1"} 1`,
		`lat_seconds_bucket{tool="x",le="+Inf"} 1`,
		`lat_seconds_count{tool="x"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
}
