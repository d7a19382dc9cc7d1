package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/friotec/fieldservice-backend/api/responses"
	"github.com/friotec/fieldservice-backend/internal/serviceorders"
	pkgAuth "github.com/friotec/fieldservice-backend/pkg/auth"
	"github.com/friotec/fieldservice-backend/pkg/auth/session"
	"github.com/friotec/fieldservice-backend/pkg/config"
	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
	"github.com/friotec/fieldservice-backend/pkg/logger"
)

// TokenHeader carries the access token when Authorization is not used.
const TokenHeader = "X-FS-Token"

// Auth validates the access token, checks the backing session is still live
// and seeds the request with the SessionContext the workflow expects.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := BearerToken(r)
			if token == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(ctx, claims.ID)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			sess := serviceorders.SessionContext{
				UserID:      claims.UserID,
				DisplayName: claims.DisplayName,
				Role:        claims.Role,
				Store:       claims.Store,
			}
			if err := sess.Validate(); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = serviceorders.WithSession(ctx, sess)
			ctx = context.WithValue(ctx, ctxAccessID, claims.ID)
			if logg != nil {
				ctx = logg.WithActor(ctx, claims.UserID.String(), string(claims.Role), string(claims.Store))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the raw access token from Authorization or X-FS-Token.
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		raw = strings.TrimSpace(r.Header.Get(TokenHeader))
	}
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw
}
