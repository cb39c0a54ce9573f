package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

func TestTokenBucket_RefillsOverTime(t *testing.T) {
	tb := NewTokenBucket(2, 1)
	now := tb.lastRefill

	if !tb.allowAt(now) || !tb.allowAt(now) {
		t.Fatal("first two requests should pass")
	}
	if tb.allowAt(now) {
		t.Fatal("third request should be limited")
	}
	if !tb.allowAt(now.Add(1100 * time.Millisecond)) {
		t.Fatal("bucket should refill after a second")
	}
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(1)
	h := rl.Middleware(okHandler())

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/getInfo", nil)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do("1.1.1.1"); code != http.StatusOK {
		t.Fatalf("first request: %d", code)
	}
	if code := do("1.1.1.1"); code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", code)
	}
	if code := do("2.2.2.2"); code != http.StatusOK {
		t.Fatalf("other ip should have its own bucket: %d", code)
	}
}

func TestRateLimiter_SameIPDifferentPorts(t *testing.T) {
	rl := NewRateLimiter(1)
	h := rl.Middleware(okHandler())

	var codes []int
	for _, addr := range []string{"203.0.113.7:40001", "203.0.113.7:40002", "203.0.113.7"} {
		req := httptest.NewRequest(http.MethodPost, "/downloadPDF", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	want := []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}
}

func TestRateLimiter_Prune(t *testing.T) {
	rl := NewRateLimiter(10)
	rl.Allow("a")
	rl.Allow("b")

	if n := rl.Prune(time.Now()); n != 0 {
		t.Fatalf("fresh buckets pruned: %d", n)
	}
	if n := rl.Prune(time.Now().Add(11 * time.Minute)); n != 2 {
		t.Fatalf("expected 2 pruned, got %d", n)
	}
}

func TestHealthHandler(t *testing.T) {
	ok := HealthCheckFunc(func(ctx context.Context) error { return nil })
	bad := HealthCheckFunc(func(ctx context.Context) error { return errors.New("disk gone") })

	rec := httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"storage": ok}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthy: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"storage": ok, "database": bad}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy: %d", rec.Code)
	}
	var body HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Checks["database"].Message != "disk gone" || body.Checks["storage"].Status != "healthy" {
		t.Errorf("unexpected checks %+v", body.Checks)
	}
}

func TestLoggingAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	before := GetMetrics()["requests_failed"].(uint64)

	h := Logging(logger)(MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	if !strings.Contains(buf.String(), "status=418") || !strings.Contains(buf.String(), "path=/x") {
		t.Errorf("unexpected log line %q", buf.String())
	}
	if after := GetMetrics()["requests_failed"].(uint64); after != before+1 {
		t.Errorf("requests_failed %d -> %d", before, after)
	}

	rec := httptest.NewRecorder()
	MetricsHandler(map[string]func() map[string]any{
		"janitor": func() map[string]any { return map[string]any{"removed": 3} },
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var out map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if _, ok := out["janitor"]; !ok {
		t.Error("extra metrics not merged")
	}
}

func TestValidateImageType(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"image/jpeg", "image/jpeg", false},
		{"image/png; charset=binary", "image/png", false},
		{"text/plain", "", true},
		{"", "", true},
		{"not a type", "", true},
	}
	for _, tt := range tests {
		got, err := ValidateImageType(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ValidateImageType(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	got := SanitizeString("  line one\r\nline\x00 two\t")
	if got != "  line one\r\nline two\t" {
		t.Errorf("got %q", got)
	}
}

func TestHealthHandler_NoDependencies(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "healthy" || len(body.Checks) != 0 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestDatabaseHealthChecker(t *testing.T) {
	down := errors.New("connection refused")
	c := &DatabaseHealthChecker{DB: pingFunc(func(ctx context.Context) error { return down })}
	if err := c.Check(context.Background()); !errors.Is(err, down) {
		t.Fatalf("expected ping error, got %v", err)
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestRecordAnalysisAndRender(t *testing.T) {
	before := GetMetrics()

	RecordAnalysis(true)
	RecordAnalysis(false)
	RecordRender(false)

	after := GetMetrics()
	delta := func(key string) uint64 { return after[key].(uint64) - before[key].(uint64) }

	if delta("analyses_total") != 2 || delta("analyses_failed") != 1 {
		t.Errorf("analyses delta = %d/%d", delta("analyses_total"), delta("analyses_failed"))
	}
	if delta("renders_total") != 1 || delta("renders_failed") != 1 {
		t.Errorf("renders delta = %d/%d", delta("renders_total"), delta("renders_failed"))
	}
}
