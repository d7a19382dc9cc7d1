package serviceorders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/friotec/fieldservice-backend/api/validators"
	internal "github.com/friotec/fieldservice-backend/internal/serviceorders"
	"github.com/friotec/fieldservice-backend/pkg/enums"
	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
	"github.com/friotec/fieldservice-backend/pkg/pagination"
)

const maxQueryLength = 120

type changeStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason,omitempty"`
	Origin string `json:"origin,omitempty"`
}

type bulkStatusRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" validate:"required,min=1,max=200"`
	Status   string      `json:"status" validate:"required"`
	Reason   string      `json:"reason,omitempty"`
}

type noteRequest struct {
	Content string `json:"content" validate:"required"`
}

func (req changeStatusRequest) toInput(orderID uuid.UUID) (internal.ChangeStatusInput, error) {
	status, err := parseStatus(req.Status)
	if err != nil {
		return internal.ChangeStatusInput{}, err
	}
	input := internal.ChangeStatusInput{
		OrderID: orderID,
		Status:  status,
		Reason:  req.Reason,
	}
	if raw := strings.TrimSpace(req.Origin); raw != "" {
		origin, err := enums.ParseStatusChangeOrigin(raw)
		if err != nil {
			return internal.ChangeStatusInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid origin")
		}
		input.Origin = origin
	}
	return input, nil
}

func (req bulkStatusRequest) toInput() (internal.BulkChangeStatusInput, error) {
	status, err := parseStatus(req.Status)
	if err != nil {
		return internal.BulkChangeStatusInput{}, err
	}
	return internal.BulkChangeStatusInput{
		OrderIDs: req.OrderIDs,
		Status:   status,
		Reason:   req.Reason,
	}, nil
}

func parseStatus(raw string) (enums.ServiceOrderStatus, error) {
	status, err := enums.ParseServiceOrderStatus(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return status, nil
}

// parseListFilters reads status, type, client_id, store, updated_since, q,
// limit and offset from the query string.
func parseListFilters(r *http.Request) (internal.ListFilters, error) {
	filters := internal.ListFilters{
		Store: strings.TrimSpace(r.URL.Query().Get("store")),
		Query: validators.SanitizeString(r.URL.Query().Get("q"), maxQueryLength),
	}

	for _, raw := range validators.ParseQueryList(r, "status") {
		status, err := parseStatus(raw)
		if err != nil {
			return filters, err
		}
		filters.Statuses = append(filters.Statuses, status)
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		orderType, err := enums.ParseServiceOrderType(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type")
		}
		filters.Type = &orderType
	}

	clientID, err := validators.ParseQueryUUID(r, "client_id")
	if err != nil {
		return filters, err
	}
	filters.ClientID = clientID

	since, err := validators.ParseQueryTime(r, "updated_since")
	if err != nil {
		return filters, err
	}
	filters.UpdatedSince = since

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return filters, err
	}
	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
	if err != nil {
		return filters, err
	}
	filters.Page = pagination.Params{Limit: limit, Offset: offset}
	return filters, nil
}
