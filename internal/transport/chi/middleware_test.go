package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestRateLimit_NilLimiterPassesThrough(t *testing.T) {
	handler := rateLimit(nil)(okHandler())
	for i := 0; i < 10; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/chat/x", http.NoBody))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i, rr.Code)
		}
	}
}

func TestRateLimit_RejectsAfterBurst(t *testing.T) {
	handler := rateLimit(rate.NewLimiter(rate.Every(time.Hour), 2))(okHandler())

	codes := make([]int, 3)
	for i := range codes {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/chat/x", http.NoBody))
		codes[i] = rr.Code
		if i == 2 && rr.Header().Get("Retry-After") == "" {
			t.Error("missing Retry-After header")
		}
	}
	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: got %d, want %d", i, codes[i], want[i])
		}
	}
}

func TestCORS_Disabled(t *testing.T) {
	handler := CORSMiddleware(nil)(okHandler())
	req := httptest.NewRequest("GET", "/api/programs", http.NoBody)
	req.Header.Set("Origin", "https://example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow-origin = %q, want empty", got)
	}
}

func TestCORS_Wildcard(t *testing.T) {
	handler := CORSMiddleware([]string{"*"})(okHandler())
	req := httptest.NewRequest("GET", "/api/programs", http.NoBody)
	req.Header.Set("Origin", "https://example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q, want *", got)
	}
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestCORS_AllowList(t *testing.T) {
	handler := CORSMiddleware([]string{"https://app.example.com"})(okHandler())

	req := httptest.NewRequest("GET", "/api/programs", http.NoBody)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("allowed origin: got %q", got)
	}

	req = httptest.NewRequest("GET", "/api/programs", http.NoBody)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin: got %q, want empty", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { called = true })
	handler := CORSMiddleware([]string{"*"})(next)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat/quick-ask", http.NoBody)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rr.Code)
	}
	if called {
		t.Error("preflight should not reach the handler")
	}
	if rr.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("missing Access-Control-Allow-Methods")
	}
}
