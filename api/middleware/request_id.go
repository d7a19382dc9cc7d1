package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/friotec/fieldservice-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// Caller supplied ids end up in logs, so only short opaque tokens are kept.
var acceptableRequestID = regexp.MustCompile(`^[A-Za-z0-9._:-]{8,64}$`)

// RequestID echoes a well-formed X-Request-Id or mints a new one, and tags
// the request's log context with it.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if !acceptableRequestID.MatchString(id) {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)
			if logg != nil {
				r = r.WithContext(logg.WithRequestID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}
