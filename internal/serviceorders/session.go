package serviceorders

import (
	"context"
	"strings"

	"github.com/friotec/fieldservice-backend/pkg/enums"
	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
	"github.com/friotec/fieldservice-backend/pkg/visibility"
	"github.com/google/uuid"
)

// SessionContext is the acting user, passed explicitly into every workflow call.
type SessionContext struct {
	UserID      uuid.UUID
	DisplayName string
	Role        enums.UserRole
	Store       enums.Store
}

type sessionContextKey struct{}

// WithSession stores the session on ctx for handlers further down the chain.
func WithSession(ctx context.Context, session SessionContext) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFromContext returns the session placed by the auth middleware.
func SessionFromContext(ctx context.Context) (SessionContext, bool) {
	if ctx == nil {
		return SessionContext{}, false
	}
	session, ok := ctx.Value(sessionContextKey{}).(SessionContext)
	return session, ok
}

// Validate rejects sessions that cannot be attributed in the audit trail.
func (s SessionContext) Validate() error {
	if s.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing")
	}
	if strings.TrimSpace(s.DisplayName) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session has no display name")
	}
	if !s.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session role invalid")
	}
	if !s.Store.IsPersistable() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session store invalid")
	}
	return nil
}

func (s SessionContext) viewer() visibility.Viewer {
	return visibility.Viewer{Role: s.Role, Store: s.Store}
}

func (s SessionContext) actorName() string {
	return strings.TrimSpace(s.DisplayName)
}
