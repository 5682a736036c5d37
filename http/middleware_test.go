package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}

func TestLoggerMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	handler := LoggerMiddleware(zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		if GetStartTime(r.Context()).IsZero() {
			t.Error("start time not set")
		}
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if seen == "" || rr.Header().Get("X-Request-ID") != seen {
		t.Errorf("request id %q not echoed, header %q", seen, rr.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if seen != "upstream-id" {
		t.Errorf("upstream request id not kept, got %q", seen)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimitMiddleware(0.001, 2, 16)(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/predict", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	req := httptest.NewRequest("POST", "/api/predict", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("second client limited: %d", rr.Code)
	}
}

func TestRateLimitMiddlewareDefaultCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		handler := RateLimitMiddleware(0.001, 1, capacity)(okHandler())

		codes := make([]int, 0, 2)
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest("POST", "/api/predict", nil)
			req.RemoteAddr = "10.0.0.3:5000"
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			codes = append(codes, rr.Code)
		}
		if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
			t.Errorf("capacity %d: codes = %v, want [200 429]", capacity, codes)
		}
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware([]string{"http://allowed.example"})(okHandler())

	req := httptest.NewRequest("OPTIONS", "/api/predict", nil)
	req.Header.Set("Origin", "http://allowed.example")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://allowed.example" {
		t.Errorf("origin not allowed")
	}

	req = httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("unexpected origin allowed")
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeadersMiddleware(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("X-Frame-Options missing")
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Errorf("CSP missing")
	}
}

func TestCheckOrigin(t *testing.T) {
	check := checkOrigin([]string{"http://allowed.example"})

	req := httptest.NewRequest("GET", "http://claims.local/api/ws/score", nil)
	if !check(req) {
		t.Errorf("request without origin rejected")
	}
	req.Header.Set("Origin", "http://claims.local")
	if !check(req) {
		t.Errorf("same host rejected")
	}
	req.Header.Set("Origin", "http://allowed.example")
	if !check(req) {
		t.Errorf("allowed origin rejected")
	}
	req.Header.Set("Origin", "http://evil.example")
	if check(req) {
		t.Errorf("foreign origin accepted")
	}
}
