package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/friotec/fieldservice-backend/api/responses"
	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
	"github.com/friotec/fieldservice-backend/pkg/logger"
)

// IdempotencyHeader names the client-supplied replay key.
const IdempotencyHeader = "Idempotency-Key"

const (
	orderMutationTTL = 7 * 24 * time.Hour
	annotationTTL    = 24 * time.Hour
	// pendingTTL frees the key if the process dies mid-request.
	pendingTTL = 5 * time.Minute
)

// ReplayStore is the Redis surface the middleware needs.
type ReplayStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

type idempotentRoute struct {
	method   string
	template string
	ttl      time.Duration
}

// Templates use chi syntax; a {param} segment matches any value.
var idempotentRoutes = []idempotentRoute{
	{http.MethodPost, "/api/v1/service-orders", orderMutationTTL},
	{http.MethodPost, "/api/v1/service-orders/bulk-status", orderMutationTTL},
	{http.MethodPost, "/api/v1/service-orders/{orderId}/status", orderMutationTTL},
	{http.MethodPost, "/api/v1/service-orders/{orderId}/notes", annotationTTL},
	{http.MethodPost, "/api/v1/admin/users", annotationTTL},
}

const (
	replayPending  = "pending"
	replayComplete = "complete"
)

type replayRecord struct {
	State       string `json:"state"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency makes the order mutations safe to retry. The first request
// with a key reserves it; repeats with the same body replay the stored
// response, repeats with another body are rejected, and repeats that arrive
// while the first is still running get a conflict. 5xx responses release
// the key so the client can retry.
func Idempotency(store ReplayStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := idempotencyTTL(r.Method, routePattern(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			fail := func(err error) { responses.WriteError(ctx, logg, w, err) }

			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if clientKey == "" {
				fail(pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}
			body, err := io.ReadAll(r.Body)
			if err != nil {
				fail(pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := requestHash(body)
			key := store.IdempotencyKey(replayScope(r), clientKey)
			pending, _ := json.Marshal(replayRecord{State: replayPending, RequestHash: hash})

			reserved, err := store.SetNX(ctx, key, string(pending), pendingTTL)
			if err != nil {
				fail(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !reserved {
				replay(ctx, store, key, hash, w, fail)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusCode()
			if status >= http.StatusInternalServerError {
				if err := store.Del(ctx, key); err != nil && logg != nil {
					logg.Error(ctx, "release idempotency key", err)
				}
				return
			}
			done, _ := json.Marshal(replayRecord{
				State:       replayComplete,
				RequestHash: hash,
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			})
			if err := store.Set(ctx, key, string(done), ttl); err != nil && logg != nil {
				logg.Error(ctx, "persist idempotency record", err)
			}
		})
	}
}

func replay(ctx context.Context, store ReplayStore, key, hash string, w http.ResponseWriter, fail func(error)) {
	stored, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// The holder released the key between our SETNX and GET.
		fail(pkgerrors.New(pkgerrors.CodeConflict, "request with this Idempotency-Key was retried concurrently"))
		return
	}
	if err != nil {
		fail(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record"))
		return
	}
	var record replayRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		fail(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case record.RequestHash != hash:
		fail(pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case record.State != replayComplete:
		fail(pkgerrors.New(pkgerrors.CodeConflict, "request with this Idempotency-Key is still in progress"))
	default:
		if record.ContentType != "" {
			w.Header().Set("Content-Type", record.ContentType)
		}
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(record.Status)
		_, _ = w.Write(record.Body)
	}
}

// replayScope keeps keys from colliding across users, stores and endpoints.
func replayScope(r *http.Request) string {
	return strings.Join([]string{
		UserIDFromContext(r.Context()),
		string(StoreFromContext(r.Context())),
		r.Method,
		r.URL.Path,
	}, "|")
}

func requestHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// routePattern returns the chi pattern once routing has resolved it. Used as
// group middleware the pattern still ends in "/*", so the raw path is used.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" && !strings.Contains(p, "*") {
			return p
		}
	}
	return r.URL.Path
}

func idempotencyTTL(method, path string) (time.Duration, bool) {
	for _, route := range idempotentRoutes {
		if route.method == method && matchTemplate(route.template, path) {
			return route.ttl, true
		}
	}
	return 0, false
}

func matchTemplate(template, path string) bool {
	want := strings.Split(strings.Trim(template, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i, seg := range want {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if got[i] == "" {
				return false
			}
			continue
		}
		if seg != got[i] {
			return false
		}
	}
	return true
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
