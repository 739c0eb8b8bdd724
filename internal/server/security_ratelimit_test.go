package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestSecurityLoggingMiddleware_RateLimiting(t *testing.T) {
	// One token an hour keeps refill out of the picture.
	detector := NewSuspiciousActivityDetectorWithLimit(rate.Every(time.Hour), 5)
	handler := SecurityLoggingMiddleware(nil, detector)(okHandler())

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/attempts/a-1", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, send("192.168.1.100").Code, "request %d", i)
	}

	rec := send("192.168.1.100")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, RetryAfterSeconds, rec.Header().Get(HeaderRetryAfter))

	// Other clients keep their own bucket.
	assert.Equal(t, http.StatusOK, send("192.168.1.101").Code)
}

func TestSuspiciousActivityDetector_DefaultBurst(t *testing.T) {
	detector := NewSuspiciousActivityDetector()

	allowed := 0
	for i := 0; i < DefaultRateBurst; i++ {
		if detector.RecordRequest("203.0.113.5") {
			allowed++
		}
	}
	assert.Equal(t, DefaultRateBurst, allowed)
}
