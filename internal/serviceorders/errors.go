package serviceorders

import (
	"errors"

	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
	"gorm.io/gorm"
)

// CompletionBlockedDetails is attached to COMPLETION_BLOCKED errors.
type CompletionBlockedDetails struct {
	MissingFields []string `json:"missing_fields"`
}

func completionBlocked(missing []string) error {
	return pkgerrors.New(pkgerrors.CodeCompletionBlocked, "service order cannot be completed").
		WithDetails(CompletionBlockedDetails{MissingFields: missing})
}

func reasonRequired() error {
	return pkgerrors.New(pkgerrors.CodeReasonRequired, "a cancellation reason is required")
}

// MissingFieldsFrom extracts the missing completion fields from a blocked error.
func MissingFieldsFrom(err error) []string {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCompletionBlocked {
		return nil
	}
	details, ok := typed.Details().(CompletionBlockedDetails)
	if !ok {
		return nil
	}
	return details.MissingFields
}

// persistenceError keeps typed errors intact and wraps everything else as a dependency failure.
func persistenceError(err error, op string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func lookupError(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "service order not found")
	}
	return persistenceError(err, op)
}
