package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_UnlimitedGeneral(t *testing.T) {
	mw := NewRateLimitMiddleware(0, 1, "/verify-pin")
	handler := mw.Handler(okHandler())

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimitMiddleware_LimitedPIN(t *testing.T) {
	mw := NewRateLimitMiddleware(0, 1, "/verify-pin")
	handler := mw.Handler(okHandler())

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, httptest.NewRequest(http.MethodPost, "/verify-pin", nil))
	assert.Equal(t, http.StatusOK, rec1.Code)

	// Burst is 1, so the immediate retry finds the bucket empty.
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, httptest.NewRequest(http.MethodPost, "/verify-pin", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
	assert.Equal(t, "60", rec2.Header().Get("Retry-After"))
	assert.Contains(t, rec2.Body.String(), "RATE_LIMITED")
}

func TestRateLimitMiddleware_ClientsAreIndependent(t *testing.T) {
	mw := NewRateLimitMiddleware(1, 10, "/verify-pin")
	handler := mw.Handler(okHandler())

	for _, addr := range []string{"10.0.0.1:5000", "10.0.0.2:5000"} {
		req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, addr)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.RemoteAddr = "10.0.0.1:6000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitMiddleware_ForwardedHeadersDoNotReset(t *testing.T) {
	mw := NewRateLimitMiddleware(0, 10, "/verify-pin")
	handler := ClientIP(nil)(mw.Handler(okHandler()))

	allowed := 0
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodPost, "/verify-pin", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("192.0.2.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}

	assert.Equal(t, 10, allowed)
	assert.Len(t, mw.clients, 1)
}

func TestRateLimitMiddleware_TrustedProxyForwardsClient(t *testing.T) {
	mw := NewRateLimitMiddleware(0, 1, "/verify-pin")
	handler := ClientIP([]netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")})(mw.Handler(okHandler()))

	send := func(client string) int {
		req := httptest.NewRequest(http.MethodPost, "/verify-pin", nil)
		req.RemoteAddr = "10.1.2.3:443"
		req.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
}

func TestRateLimitMiddleware_ClientTableIsBounded(t *testing.T) {
	mw := NewRateLimitMiddleware(0, 10, "/verify-pin")
	mw.maxClients = 5
	handler := mw.Handler(okHandler())

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
		req.RemoteAddr = fmt.Sprintf("10.0.0.%d:5000", i)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Len(t, mw.clients, 5)
	assert.Contains(t, mw.clients, "10.0.0.49")
}
