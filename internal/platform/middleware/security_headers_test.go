package middleware

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"X-XSS-Protection", "0"},
		{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
		{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
		{"Referrer-Policy", "no-referrer"},
		{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
		{"Cache-Control", "no-store"},
	}

	rec, err := invoke(t, SecurityHeaders(), okHandler, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, tt := range tests {
		if got := rec.Header().Get(tt.header); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestSecurityHeaders_SetEvenWhenHandlerFails(t *testing.T) {
	rec, err := invoke(t, SecurityHeaders(), func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}, nil)
	if err == nil {
		t.Fatal("handler error should propagate")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("headers should be set before the handler runs")
	}
}
