package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// checkTimeout bounds each dependency probe; the whole report shares it.
const checkTimeout = 3 * time.Second

// HealthChecker is one dependency of the service: the file store or the
// usage journal.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// HealthCheckFunc adapts a function such as Store.Check.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) Check(ctx context.Context) error {
	return f(ctx)
}

// Pinger is anything with a Ping, e.g. a usage repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseHealthChecker pings the usage journal.
type DatabaseHealthChecker struct {
	DB Pinger
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	return d.DB.Ping(ctx)
}

type HealthStatus struct {
	Status        string                 `json:"status"`
	Timestamp     time.Time              `json:"timestamp"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	Checks        map[string]CheckStatus `json:"checks"`
}

type CheckStatus struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Message   string `json:"message,omitempty"`
}

// HealthHandler probes every dependency in parallel and answers 503 if any
// of them fails. A service with no dependencies is healthy.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			wg     sync.WaitGroup
			checks = make(map[string]CheckStatus, len(checkers))
		)
		for name, checker := range checkers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				start := time.Now()
				err := checker.Check(ctx)

				cs := CheckStatus{Status: "healthy", LatencyMS: time.Since(start).Milliseconds()}
				if err != nil {
					cs.Status = "unhealthy"
					cs.Message = err.Error()
				}
				mu.Lock()
				checks[name] = cs
				mu.Unlock()
			}()
		}
		wg.Wait()

		health := HealthStatus{
			Status:        "healthy",
			Timestamp:     time.Now().UTC(),
			UptimeSeconds: time.Since(globalMetrics.startTime).Seconds(),
			Checks:        checks,
		}
		statusCode := http.StatusOK
		for _, cs := range checks {
			if cs.Status != "healthy" {
				health.Status = "unhealthy"
				statusCode = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(health)
	}
}
