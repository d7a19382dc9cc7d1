package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
)

type countingLimiter struct {
	counts map[string]int64
}

func (c *countingLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if c.counts == nil {
		c.counts = map[string]int64{}
	}
	c.counts[scope]++
	return c.counts[scope] <= limit, c.counts[scope], nil
}

func loginRequest(addr, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.RemoteAddr = addr
	return req
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuthRateLimitKeepsBodyForHandler(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 5, 5)
	var seen string
	h := AuthRateLimit(policy, &countingLimiter{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
	}))

	body := `{"email":"tech@friotec.test","password":"secret"}`
	h.ServeHTTP(httptest.NewRecorder(), loginRequest("1.2.3.4:5678", body))
	require.Equal(t, body, seen)
}

func TestAuthRateLimitBlocksByEmailAcrossIPs(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 2)
	h := AuthRateLimit(policy, &countingLimiter{}, nil)(http.HandlerFunc(okHandler))

	var last *httptest.ResponseRecorder
	for i, addr := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.3:1"} {
		last = httptest.NewRecorder()
		h.ServeHTTP(last, loginRequest(addr, `{"email":" Tech@Friotec.test ","password":"x"}`))
		if i < 2 {
			require.Equal(t, http.StatusOK, last.Code)
		}
	}
	require.Equal(t, http.StatusTooManyRequests, last.Code)
	require.Equal(t, "60", last.Header().Get("Retry-After"))
	require.Equal(t, string(pkgerrors.CodeRateLimit), errorCode(t, last))
}

func TestAuthRateLimitScopesPerIP(t *testing.T) {
	limiter := &countingLimiter{}
	h := AuthRateLimit(NewAuthRateLimitPolicy("", time.Minute, 1, 0), limiter, nil)(http.HandlerFunc(okHandler))

	for _, addr := range []string{"10.0.0.1:1000", "10.0.0.2:1000"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, loginRequest(addr, `{}`))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, loginRequest("10.0.0.1:2000", `{}`))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Contains(t, limiter.counts, "auth:ip:10.0.0.1")
}

func TestAuthRateLimitStoresHashedEmail(t *testing.T) {
	limiter := &countingLimiter{}
	h := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 0, 3), limiter, nil)(http.HandlerFunc(okHandler))
	h.ServeHTTP(httptest.NewRecorder(), loginRequest("1.1.1.1:1", `{"email":"tech@friotec.test"}`))

	require.Len(t, limiter.counts, 1)
	for scope := range limiter.counts {
		require.True(t, strings.HasPrefix(scope, "login:email:"))
		require.NotContains(t, scope, "friotec")
	}
}

func TestClientIPPrefersForwardedHeader(t *testing.T) {
	req := loginRequest("192.168.0.9:4000", `{}`)
	require.Equal(t, "192.168.0.9", clientIP(req))
	req.Header.Set("X-Real-IP", "172.16.0.1")
	require.Equal(t, "172.16.0.1", clientIP(req))
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, "203.0.113.7", clientIP(req))
}
