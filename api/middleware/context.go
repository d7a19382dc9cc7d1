package middleware

import (
	"context"

	"github.com/friotec/fieldservice-backend/internal/serviceorders"
	"github.com/friotec/fieldservice-backend/pkg/enums"
)

type contextKey string

const ctxAccessID contextKey = "access_id"

// SessionFromContext returns the acting user placed on the request by Auth.
func SessionFromContext(ctx context.Context) (serviceorders.SessionContext, bool) {
	return serviceorders.SessionFromContext(ctx)
}

func UserIDFromContext(ctx context.Context) string {
	if session, ok := serviceorders.SessionFromContext(ctx); ok {
		return session.UserID.String()
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	if session, ok := serviceorders.SessionFromContext(ctx); ok {
		return session.Role
	}
	return ""
}

func StoreFromContext(ctx context.Context) enums.Store {
	if session, ok := serviceorders.SessionFromContext(ctx); ok {
		return session.Store
	}
	return ""
}

// AccessIDFromContext returns the token id (jti) that keys the refresh session.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}
