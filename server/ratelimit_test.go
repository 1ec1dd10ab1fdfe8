package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIP = "192.168.1.100"

func newRateLimitedEcho(rps int) *echo.Echo {
	e := echo.New()
	e.Use(RateLimit(rps))
	e.GET("/test", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	return e
}

func doFrom(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(echo.HeaderXRealIP, ip)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name           string
		requestsPerSec int
		requestCount   int
		expectAllowed  int
		expectBlocked  int
		sleepBetween   time.Duration
	}{
		{name: "requests_within_limit", requestsPerSec: 10, requestCount: 5, expectAllowed: 5},
		{name: "requests_exceed_burst", requestsPerSec: 2, requestCount: 10, expectAllowed: 4, expectBlocked: 6},
		{name: "requests_with_delay_allowed", requestsPerSec: 5, requestCount: 3, expectAllowed: 3, sleepBetween: 100 * time.Millisecond},
		{name: "disabled", requestsPerSec: 0, requestCount: 20, expectAllowed: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newRateLimitedEcho(tt.requestsPerSec)

			allowed, blocked := 0, 0
			for i := 0; i < tt.requestCount; i++ {
				switch doFrom(e, testIP).Code {
				case http.StatusOK:
					allowed++
				case http.StatusTooManyRequests:
					blocked++
				}
				if tt.sleepBetween > 0 {
					time.Sleep(tt.sleepBetween)
				}
			}

			assert.Equal(t, tt.expectAllowed, allowed)
			assert.Equal(t, tt.expectBlocked, blocked)
		})
	}
}

func TestRateLimitSeparateBucketsPerIP(t *testing.T) {
	e := newRateLimitedEcho(2)

	for _, ip := range []string{"192.168.1.1", "192.168.1.2", "192.168.1.3"} {
		allowed := 0
		for i := 0; i < 6; i++ {
			if doFrom(e, ip).Code == http.StatusOK {
				allowed++
			}
		}
		assert.GreaterOrEqual(t, allowed, 4, ip)
	}
}

func TestRateLimitErrorResponse(t *testing.T) {
	e := newRateLimitedEcho(1)

	var blocked *httptest.ResponseRecorder
	for i := 0; i < 5 && blocked == nil; i++ {
		if rec := doFrom(e, testIP); rec.Code == http.StatusTooManyRequests {
			blocked = rec
		}
	}
	require.NotNil(t, blocked)

	var body errorEnvelope
	require.NoError(t, json.Unmarshal(blocked.Body.Bytes(), &body))
	assert.Equal(t, "Rate limit exceeded", body.Error.Message)
	assert.Equal(t, http.StatusTooManyRequests, body.Error.Status)
	assert.Equal(t, echo.MIMEApplicationJSON, blocked.Header().Get(echo.HeaderContentType))
}
