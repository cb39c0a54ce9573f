package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// counter pairs a total with the failures among it.
type counter struct {
	total  atomic.Uint64
	failed atomic.Uint64
}

func (c *counter) record(ok bool) {
	c.total.Add(1)
	if !ok {
		c.failed.Add(1)
	}
}

type metrics struct {
	requests   counter
	inProgress atomic.Int64
	analyses   counter
	renders    counter
	startTime  time.Time
}

var globalMetrics = &metrics{startTime: time.Now()}

// RecordAnalysis counts one /getInfo call that reached the model.
func RecordAnalysis(ok bool) {
	globalMetrics.analyses.record(ok)
}

// RecordRender counts one /downloadPDF call that reached the renderer.
func RecordRender(ok bool) {
	globalMetrics.renders.record(ok)
}

// GetMetrics returns a snapshot for the metrics endpoint.
func GetMetrics() map[string]any {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	g := globalMetrics
	requests := g.requests.total.Load()
	requestsFailed := g.requests.failed.Load()
	return map[string]any{
		"requests_total":       requests,
		"requests_in_progress": g.inProgress.Load(),
		"requests_success":     requests - requestsFailed,
		"requests_failed":      requestsFailed,
		"analyses_total":       g.analyses.total.Load(),
		"analyses_failed":      g.analyses.failed.Load(),
		"renders_total":        g.renders.total.Load(),
		"renders_failed":       g.renders.failed.Load(),
		"uptime_seconds":       time.Since(g.startTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes": m.Alloc,
			"sys_bytes":   m.Sys,
			"num_gc":      m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware counts requests; anything outside 2xx/3xx is a failure.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		globalMetrics.inProgress.Add(1)
		defer globalMetrics.inProgress.Add(-1)

		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		globalMetrics.requests.record(wrapped.statusCode >= 200 && wrapped.statusCode < 400)
	})
}

// MetricsHandler serves GetMetrics. Extra sources (e.g. the janitor) are
// merged in under their own key.
func MetricsHandler(extra map[string]func() map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := GetMetrics()
		for name, fn := range extra {
			out[name] = fn()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}
