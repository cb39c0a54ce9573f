package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "github.com/anushka-codergirl/workoutwise/internal/domain/ai"
)

func newFakeGemini(t *testing.T, status int, body string, seen *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if seen != nil {
			b, _ := io.ReadAll(r.Body)
			*seen = string(b)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDescribe(t *testing.T) {
	var seen string
	srv := newFakeGemini(t, http.StatusOK, `{
		"candidates": [{"content": {"role": "model", "parts": [{"text": "A kettlebell used for swings."}]}}]
	}`, &seen)

	c, err := NewClient(context.Background(), "test-key", "", srv.URL+"/")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.Model != defaultModel {
		t.Errorf("expected default model, got %q", c.Model)
	}

	img := domain.Image{Data: []byte("png-bytes"), MimeType: "image/png"}
	got, err := c.Describe(context.Background(), img, "what is this")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if got != "A kettlebell used for swings." {
		t.Errorf("unexpected text %q", got)
	}
	if !strings.Contains(seen, "what is this") {
		t.Errorf("prompt missing from request: %s", seen)
	}
	if !strings.Contains(seen, base64.StdEncoding.EncodeToString(img.Data)) || !strings.Contains(seen, "image/png") {
		t.Errorf("inline image missing from request: %s", seen)
	}
}

func TestDescribeQuotaExceeded(t *testing.T) {
	srv := newFakeGemini(t, http.StatusTooManyRequests,
		`{"error": {"code": 429, "message": "Resource has been exhausted", "status": "RESOURCE_EXHAUSTED"}}`, nil)

	c, err := NewClient(context.Background(), "test-key", "gemini-test", srv.URL+"/")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	_, err = c.Describe(context.Background(), domain.Image{Data: []byte("x"), MimeType: "image/jpeg"}, "p")
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestDescribeEmptyAnswer(t *testing.T) {
	srv := newFakeGemini(t, http.StatusOK, `{"candidates": []}`, nil)

	c, err := NewClient(context.Background(), "test-key", "gemini-test", srv.URL+"/")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	_, err = c.Describe(context.Background(), domain.Image{Data: []byte("x"), MimeType: "image/jpeg"}, "p")
	if !errors.Is(err, domain.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}
