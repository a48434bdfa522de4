package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"flint/internal/handlers"
	"flint/internal/middleware"
	"flint/internal/models"
	"flint/internal/services"
)

type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, req services.CompletionRequest) (*models.Message, error) {
	last := req.Messages[len(req.Messages)-1]
	return &models.Message{Role: models.RoleAssistant, Content: last.Content}, nil
}

func (echoCompleter) Provider() string { return "echo" }
func (echoCompleter) Model() string    { return "echo" }

func newTestRouter(limiter *middleware.RateLimiter) http.Handler {
	h := handlers.NewChatHandler(services.NewChatService(echoCompleter{}), false)
	return New(h, limiter, "*")
}

func TestRouter_OptionsPreflight(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(nil).ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/chat", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rr.Body.String())
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS headers on pre-flight response")
	}
}

func TestRouter_ChatRoundTrip(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"Hello"}]}`))
	rr := httptest.NewRecorder()
	newTestRouter(nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"message":{"role":"assistant","content":"Hello"}}` {
		t.Errorf("unexpected body %s", got)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID on response")
	}
}

func TestRouter_MethodNotAllowedHasJSONBody(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/chat", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"error":"Method not allowed"}` {
		t.Errorf("unexpected body %s", got)
	}
}

func TestRouter_Health(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Errorf("unexpected health response %d %s", rr.Code, rr.Body.String())
	}
}

func TestRouter_ChatLimiter(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	r := newTestRouter(limiter)

	var last int
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"x"}]}`))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected second request to be limited, got %d", last)
	}
}
