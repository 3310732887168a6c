// Package metrics provides a small Prometheus-compatible collector for
// tool dispatch and chat traffic, rendered in the text exposition format.
package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Collector is the process-wide collector served on /metrics.
var Collector = NewMetricsCollector()

// MetricsCollector aggregates counters, gauges, and histograms.
type MetricsCollector struct {
	counters   sync.Map // name -> *Counter
	gauges     sync.Map // name -> *Gauge
	histograms sync.Map // name -> *Histogram
	startTime  time.Time
}

// NewMetricsCollector creates a new collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{startTime: time.Now()}
}

// Uptime returns how long the collector has been running.
func (c *MetricsCollector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name   string
	help   string
	labels string
	value  atomic.Int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Value returns the current counter value.
func (c *Counter) Value() int64 { return c.value.Load() }

// Gauge is a value that can go up and down.
type Gauge struct {
	name   string
	help   string
	labels string
	value  atomic.Int64
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { g.value.Add(1) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { g.value.Add(-1) }

// Value returns the current gauge value.
func (g *Gauge) Value() int64 { return g.value.Load() }

// Histogram tracks the distribution of values.
type Histogram struct {
	name    string
	help    string
	labels  string
	mu      sync.Mutex
	count   int64
	sum     float64
	buckets []histBucket
}

type histBucket struct {
	le    float64
	count int64
}

// Observe records a value in the histogram.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += v
	for i := range h.buckets {
		if v <= h.buckets[i].le {
			h.buckets[i].count++
		}
	}
}

// --- Registration helpers ---

// Counter returns or creates a counter with the given name.
func (c *MetricsCollector) Counter(name, help, labels string) *Counter {
	key := name + "{" + labels + "}"
	if v, ok := c.counters.Load(key); ok {
		return v.(*Counter)
	}
	ctr := &Counter{name: name, help: help, labels: labels}
	actual, _ := c.counters.LoadOrStore(key, ctr)
	return actual.(*Counter)
}

// Gauge returns or creates a gauge with the given name.
func (c *MetricsCollector) Gauge(name, help, labels string) *Gauge {
	key := name + "{" + labels + "}"
	if v, ok := c.gauges.Load(key); ok {
		return v.(*Gauge)
	}
	g := &Gauge{name: name, help: help, labels: labels}
	actual, _ := c.gauges.LoadOrStore(key, g)
	return actual.(*Gauge)
}

// Histogram returns or creates a histogram with the given name.
func (c *MetricsCollector) Histogram(name, help, labels string, buckets []float64) *Histogram {
	key := name + "{" + labels + "}"
	if v, ok := c.histograms.Load(key); ok {
		return v.(*Histogram)
	}
	sort.Float64s(buckets)
	hb := make([]histBucket, 0, len(buckets)+1)
	for _, b := range buckets {
		hb = append(hb, histBucket{le: b})
	}
	hb = append(hb, histBucket{le: math.Inf(1)})
	h := &Histogram{name: name, help: help, labels: labels, buckets: hb}
	actual, _ := c.histograms.LoadOrStore(key, h)
	return actual.(*Histogram)
}

// --- Prometheus text rendering ---

// Handler returns an http.HandlerFunc that renders metrics in Prometheus text format.
func (c *MetricsCollector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		var sb strings.Builder

		helpWritten := make(map[string]bool)
		writeScalar(&sb, helpWritten, "gauge", "toolchat_uptime_seconds", "Time since start in seconds", "", int64(c.Uptime().Seconds()))
		c.counters.Range(func(_, value any) bool {
			ctr := value.(*Counter)
			writeScalar(&sb, helpWritten, "counter", ctr.name, ctr.help, ctr.labels, ctr.Value())
			return true
		})
		c.gauges.Range(func(_, value any) bool {
			g := value.(*Gauge)
			writeScalar(&sb, helpWritten, "gauge", g.name, g.help, g.labels, g.Value())
			return true
		})

		c.histograms.Range(func(_, value any) bool {
			h := value.(*Histogram)
			h.mu.Lock()
			defer h.mu.Unlock()

			fmt.Fprintf(&sb, "# HELP %s %s\n", h.name, h.help)
			fmt.Fprintf(&sb, "# TYPE %s histogram\n", h.name)
			prefix := h.name + "_bucket{"
			if h.labels != "" {
				prefix += h.labels + ","
			}
			for _, b := range h.buckets {
				le := fmt.Sprintf("%g", b.le)
				if math.IsInf(b.le, 1) {
					le = "+Inf"
				}
				fmt.Fprintf(&sb, "%sle=\"%s\"} %d\n", prefix, le, b.count)
			}
			labels := ""
			if h.labels != "" {
				labels = "{" + h.labels + "}"
			}
			fmt.Fprintf(&sb, "%s_count%s %d\n%s_sum%s %f\n", h.name, labels, h.count, h.name, labels, h.sum)
			return true
		})

		fmt.Fprint(w, sb.String())
	}
}

// writeScalar renders one counter or gauge sample, preceded by its HELP and
// TYPE lines the first time name is seen.
func writeScalar(sb *strings.Builder, seen map[string]bool, kind, name, help, labels string, v int64) {
	if !seen[name] {
		fmt.Fprintf(sb, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
		seen[name] = true
	}
	if labels != "" {
		fmt.Fprintf(sb, "%s{%s} %d\n", name, labels, v)
		return
	}
	fmt.Fprintf(sb, "%s %d\n", name, v)
}

// --- Metrics used across the application ---

var (
	ChatRequests = Collector.Counter("toolchat_chat_requests_total", "Chat requests handled", "")
	ChatFailures = Collector.Counter("toolchat_chat_failures_total", "Chat requests that returned an error", "")
	ActiveChats  = Collector.Gauge("toolchat_active_chats", "Chat requests currently generating", "")
	WSClients    = Collector.Gauge("toolchat_ws_clients", "Connected WebSocket clients", "")

	ModelLatency = Collector.Histogram("toolchat_model_latency_seconds", "Model backend latency in seconds", "",
		[]float64{0.5, 1, 2, 5, 10, 30, 60, 120})
	ToolLatency = Collector.Histogram("toolchat_tool_duration_seconds", "Tool execution latency in seconds", "",
		[]float64{0.01, 0.1, 0.5, 1, 5, 10, 30})
)

// ToolCall counts one dispatched tool call. Outcome is "ok" or a failure kind.
func ToolCall(tool, outcome string) {
	labels := fmt.Sprintf("tool=%q,outcome=%q", tool, outcome)
	Collector.Counter("toolchat_tool_calls_total", "Tool calls by tool and outcome", labels).Inc()
}
