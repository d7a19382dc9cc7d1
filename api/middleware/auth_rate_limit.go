package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/friotec/fieldservice-backend/api/responses"
	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
	"github.com/friotec/fieldservice-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy throttles a credential endpoint per client IP and per
// submitted email. A zero limit switches that dimension off.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// rateSubject is one counter a request is charged against. The email is
// only ever stored hashed.
type rateSubject struct {
	dimension string
	value     string
	limit     int
}

func (p AuthRateLimitPolicy) subjects(r *http.Request, body []byte) []rateSubject {
	var out []rateSubject
	if ip := clientIP(r); p.ipLimit > 0 && ip != "" {
		out = append(out, rateSubject{dimension: "ip", value: ip, limit: p.ipLimit})
	}
	if email := loginEmail(body); p.emailLimit > 0 && email != "" {
		sum := sha256.Sum256([]byte(email))
		out = append(out, rateSubject{dimension: "email", value: hex.EncodeToString(sum[:]), limit: p.emailLimit})
	}
	return out
}

func (p AuthRateLimitPolicy) scope(s rateSubject) string {
	return p.name + ":" + s.dimension + ":" + s.value
}

// AuthRateLimit rejects with 429 once any subject of the request exceeds
// its fixed window. The body is restored for the next handler.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var body []byte
			if policy.emailLimit > 0 {
				var err error
				if body, err = io.ReadAll(r.Body); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			for _, subject := range policy.subjects(r, body) {
				allowed, count, err := store.FixedWindowAllow(ctx, policy.scope(subject), int64(subject.limit), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"policy":    policy.name,
							"dimension": subject.dimension,
							"subject":   subject.value,
							"attempts":  count,
							"limit":     subject.limit,
						}), "auth.rate_limit.blocked")
					}
					w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP trusts the first X-Forwarded-For hop; the API only runs behind
// the platform load balancer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func loginEmail(body []byte) string {
	var payload struct {
		Email string `json:"email"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}
