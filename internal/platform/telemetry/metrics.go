// Package telemetry keeps in-process counters and latency histograms for
// tool calls and HTTP requests and renders them in the Prometheus text
// exposition format.
package telemetry

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

// Outcome label used for calls that returned no error.
const OutcomeOK = "ok"

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// PoolStats is a point-in-time view of the connection pool.
type PoolStats struct {
	Acquired int32
	Idle     int32
	Total    int32
}

type histogram struct {
	mu      sync.Mutex
	buckets []int64 // non-cumulative, one per boundary
	count   int64
	sum     uint64 // math.Float64bits
}

func newHistogram() *histogram {
	return &histogram{buckets: make([]int64, len(durationBuckets))}
}

func (h *histogram) observe(v float64) {
	atomic.AddInt64(&h.count, 1)
	for {
		old := atomic.LoadUint64(&h.sum)
		next := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(&h.sum, old, next) {
			break
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, b := range durationBuckets {
		if v <= b {
			h.buckets[i]++
			return
		}
	}
}

func (h *histogram) cumulative() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int64, len(h.buckets))
	var running int64
	for i, c := range h.buckets {
		running += c
		out[i] = running
	}
	return out
}

// Metrics is safe for concurrent use. The zero value is not usable; call
// NewMetrics.
type Metrics struct {
	mu        sync.RWMutex
	calls     map[string]*int64 // tool|outcome
	durations map[string]*histogram
	requests  map[string]*int64 // method|route|status
	inflight  int64
	pool      func() PoolStats
}

func NewMetrics() *Metrics {
	return &Metrics{
		calls:     make(map[string]*int64),
		durations: make(map[string]*histogram),
		requests:  make(map[string]*int64),
	}
}

// SetPoolStats installs the source for the db_pool_* gauges.
func (m *Metrics) SetPoolStats(fn func() PoolStats) {
	m.mu.Lock()
	m.pool = fn
	m.mu.Unlock()
}

// ObserveCall records one finished tool call. outcome is OutcomeOK or the
// error kind the caller saw.
func (m *Metrics) ObserveCall(tool, outcome string, d time.Duration) {
	atomic.AddInt64(m.counter(m.calls, tool+"|"+outcome), 1)
	m.histogram(tool).observe(d.Seconds())
}

// Calls returns how many calls of tool ended with outcome.
func (m *Metrics) Calls(tool, outcome string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.calls[tool+"|"+outcome]; ok {
		return atomic.LoadInt64(p)
	}
	return 0
}

func (m *Metrics) counter(store map[string]*int64, key string) *int64 {
	m.mu.RLock()
	p, ok := store[key]
	m.mu.RUnlock()
	if ok {
		return p
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok = store[key]; !ok {
		p = new(int64)
		store[key] = p
	}
	return p
}

func (m *Metrics) histogram(tool string) *histogram {
	m.mu.RLock()
	h, ok := m.durations[tool]
	m.mu.RUnlock()
	if ok {
		return h
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok = m.durations[tool]; !ok {
		h = newHistogram()
		m.durations[tool] = h
	}
	return h
}

// Middleware counts HTTP requests by method, route and status.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			atomic.AddInt64(&m.inflight, 1)
			defer atomic.AddInt64(&m.inflight, -1)

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			key := c.Request().Method + "|" + route + "|" + strconv.Itoa(status)
			atomic.AddInt64(m.counter(m.requests, key), 1)
			return err
		}
	}
}

// Handler serves the Prometheus text exposition.
func (m *Metrics) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, m.Render())
	}
}

// Render writes every metric in the Prometheus text format. Series are
// sorted so the output is stable.
func (m *Metrics) Render() string {
	m.mu.RLock()
	calls := snapshot(m.calls)
	requests := snapshot(m.requests)
	durations := make(map[string]*histogram, len(m.durations))
	for k, v := range m.durations {
		durations[k] = v
	}
	pool := m.pool
	m.mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP crm_tool_calls_total Tool calls by tool and outcome.\n")
	b.WriteString("# TYPE crm_tool_calls_total counter\n")
	for _, key := range sortedKeys(calls) {
		parts := strings.SplitN(key, "|", 2)
		fmt.Fprintf(&b, "crm_tool_calls_total{tool=%q,outcome=%q} %d\n", parts[0], parts[1], calls[key])
	}
	b.WriteByte('\n')

	b.WriteString("# HELP crm_tool_call_duration_seconds Tool call latency in seconds.\n")
	b.WriteString("# TYPE crm_tool_call_duration_seconds histogram\n")
	for _, tool := range sortedKeys(durations) {
		h := durations[tool]
		cum := h.cumulative()
		for i, le := range durationBuckets {
			fmt.Fprintf(&b, "crm_tool_call_duration_seconds_bucket{tool=%q,le=\"%g\"} %d\n", tool, le, cum[i])
		}
		total := atomic.LoadInt64(&h.count)
		fmt.Fprintf(&b, "crm_tool_call_duration_seconds_bucket{tool=%q,le=\"+Inf\"} %d\n", tool, total)
		fmt.Fprintf(&b, "crm_tool_call_duration_seconds_sum{tool=%q} %g\n", tool, math.Float64frombits(atomic.LoadUint64(&h.sum)))
		fmt.Fprintf(&b, "crm_tool_call_duration_seconds_count{tool=%q} %d\n", tool, total)
	}
	b.WriteByte('\n')

	b.WriteString("# HELP crm_http_requests_total HTTP requests by method, route and status.\n")
	b.WriteString("# TYPE crm_http_requests_total counter\n")
	for _, key := range sortedKeys(requests) {
		parts := strings.SplitN(key, "|", 3)
		fmt.Fprintf(&b, "crm_http_requests_total{method=%q,route=%q,status=%q} %d\n", parts[0], parts[1], parts[2], requests[key])
	}
	b.WriteByte('\n')

	b.WriteString("# HELP crm_http_requests_in_flight HTTP requests being served.\n")
	b.WriteString("# TYPE crm_http_requests_in_flight gauge\n")
	fmt.Fprintf(&b, "crm_http_requests_in_flight %d\n", atomic.LoadInt64(&m.inflight))

	if pool != nil {
		st := pool()
		gauges := []struct {
			name, help string
			v          int32
		}{
			{"crm_db_pool_acquired_connections", "Connections checked out of the pool.", st.Acquired},
			{"crm_db_pool_idle_connections", "Idle pool connections.", st.Idle},
			{"crm_db_pool_total_connections", "All pool connections.", st.Total},
		}
		for _, g := range gauges {
			fmt.Fprintf(&b, "\n# HELP %s %s\n# TYPE %s gauge\n%s %d\n", g.name, g.help, g.name, g.name, g.v)
		}
	}
	return b.String()
}

func snapshot(store map[string]*int64) map[string]int64 {
	out := make(map[string]int64, len(store))
	for k, p := range store {
		out[k] = atomic.LoadInt64(p)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
