package errors

import "net/http"

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// CodeCompletionBlocked rejects a completion while required fields are missing.
	CodeCompletionBlocked Code = "COMPLETION_BLOCKED"
	// CodeReasonRequired rejects a cancellation submitted without a reason.
	CodeReasonRequired Code = "CANCELLATION_REASON_REQUIRED"
)

// Metadata decides how a code is rendered to API clients.
type Metadata struct {
	HTTPStatus int
	Retryable  bool
	// PublicMessage is shown unless ExposeMessage lets the error's own message through.
	PublicMessage  string
	ExposeMessage  bool
	DetailsAllowed bool
}

func rejection(status int, public string) Metadata {
	return Metadata{HTTPStatus: status, PublicMessage: public, ExposeMessage: true}
}

func (m Metadata) withDetails() Metadata {
	m.DetailsAllowed = true
	return m
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:        rejection(http.StatusBadRequest, "validation failed").withDetails(),
	CodeUnauthorized:      rejection(http.StatusUnauthorized, "authentication required"),
	CodeForbidden:         rejection(http.StatusForbidden, "access denied"),
	CodeNotFound:          rejection(http.StatusNotFound, "resource not found"),
	CodeConflict:          rejection(http.StatusConflict, "conflict detected"),
	CodeStateConflict:     rejection(http.StatusUnprocessableEntity, "state transition disallowed").withDetails(),
	CodeCompletionBlocked: rejection(http.StatusUnprocessableEntity, "service order cannot be completed").withDetails(),
	CodeReasonRequired:    rejection(http.StatusBadRequest, "a cancellation reason is required"),
	CodeIdempotency:       rejection(http.StatusConflict, "idempotency key reused").withDetails(),
	CodeRateLimit:         rejection(http.StatusTooManyRequests, "rate limit exceeded"),

	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}
