package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func limitedHandler(cfg RateLimitConfig) (*echo.Echo, echo.HandlerFunc) {
	e := echo.New()
	h := RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e, h
}

func limitedRequest(e *echo.Echo, h echo.HandlerFunc, userID string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
	}
	return rec, h(c)
}

func TestRateLimit_AllowsBurstThenRejects(t *testing.T) {
	e, h := limitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 3})

	for i := 0; i < 3; i++ {
		rec, err := limitedRequest(e, h, "")
		if err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "1" {
			t.Errorf("request %d: X-RateLimit-Limit = %q, want \"1\"", i+1, got)
		}
	}

	rec, err := limitedRequest(e, h, "")
	if err == nil {
		t.Fatal("fourth request should be rejected")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", httpErr.Code)
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want \"0\"", rec.Header().Get("X-RateLimit-Remaining"))
	}

	ra, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if convErr != nil {
		t.Fatalf("Retry-After not an integer: %q", rec.Header().Get("Retry-After"))
	}
	if ra < 1 {
		t.Errorf("Retry-After = %d, want >= 1", ra)
	}
}

func TestRateLimit_UsersGetSeparateBuckets(t *testing.T) {
	e, h := limitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	if _, err := limitedRequest(e, h, "dr-alvarez"); err != nil {
		t.Fatalf("dr-alvarez first request: %v", err)
	}
	if _, err := limitedRequest(e, h, "dr-alvarez"); err == nil {
		t.Fatal("dr-alvarez second request should be rejected")
	}
	// A different user is unaffected by the first user's exhausted bucket.
	if _, err := limitedRequest(e, h, "front-desk"); err != nil {
		t.Fatalf("front-desk first request: %v", err)
	}
}

func TestRateLimit_TokensRefill(t *testing.T) {
	e, h := limitedHandler(RateLimitConfig{RequestsPerSecond: 50, BurstSize: 1})

	if _, err := limitedRequest(e, h, ""); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := limitedRequest(e, h, ""); err == nil {
		t.Fatal("second immediate request should be rejected")
	}

	time.Sleep(40 * time.Millisecond)

	if _, err := limitedRequest(e, h, ""); err != nil {
		t.Fatalf("request after refill window: %v", err)
	}
}

func TestRateLimit_ZeroRateRetryAfter(t *testing.T) {
	cl := &client{tokens: 0, lastSeen: time.Now()}
	ok, retryAfter := cl.take(RateLimitConfig{RequestsPerSecond: 0, BurstSize: 1}, time.Now())
	if ok {
		t.Fatal("take should fail with no tokens and zero refill")
	}
	if retryAfter != 1 {
		t.Errorf("retryAfter = %d, want 1", retryAfter)
	}
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 100 || cfg.BurstSize != 200 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
