package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestCIDRMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		allowlist  []string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		wantStatus int
	}{
		{name: "loopback allowed by default", remoteAddr: "127.0.0.1:5555", wantStatus: http.StatusOK},
		{name: "ipv6 loopback allowed by default", remoteAddr: "[::1]:5555", wantStatus: http.StatusOK},
		{name: "remote denied by default", remoteAddr: "203.0.113.9:5555", wantStatus: http.StatusForbidden},
		{name: "inside allowlist", allowlist: []string{"10.0.0.0/8"}, remoteAddr: "10.1.2.3:80", wantStatus: http.StatusOK},
		{name: "outside allowlist", allowlist: []string{"10.0.0.0/8"}, remoteAddr: "192.168.1.1:80", wantStatus: http.StatusForbidden},
		{name: "loopback outside explicit allowlist", allowlist: []string{"10.0.0.0/8"}, remoteAddr: "127.0.0.1:80", wantStatus: http.StatusForbidden},
		{
			name:       "forwarded header ignored from untrusted peer",
			remoteAddr: "203.0.113.9:80",
			headers:    map[string]string{echo.HeaderXForwardedFor: "127.0.0.1"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "forwarded header honoured from trusted proxy",
			allowlist:  []string{"198.51.100.0/24"},
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.5:80",
			headers:    map[string]string{echo.HeaderXForwardedFor: "198.51.100.7, 10.0.0.9"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "spoofed left hop does not win",
			allowlist:  []string{"198.51.100.0/24"},
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.5:80",
			headers:    map[string]string{echo.HeaderXForwardedFor: "198.51.100.7, 203.0.113.50"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "real ip header from trusted proxy",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.5:80",
			headers:    map[string]string{echo.HeaderXRealIP: "127.0.0.1"},
			wantStatus: http.StatusOK,
		},
		{name: "unparseable peer", remoteAddr: "not-an-ip", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.HTTPErrorHandler = errorHandler
			e.GET("/_sys/job", func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			}, CIDRMiddleware(tt.allowlist, tt.trusted))

			req := httptest.NewRequest(http.MethodGet, "/_sys/job", http.NoBody)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestParseCIDRsSkipsMalformedEntries(t *testing.T) {
	nets := parseCIDRs([]string{" 10.0.0.0/8 ", "office", "2001:db8::/32"})

	assert.Len(t, nets, 2)
}
