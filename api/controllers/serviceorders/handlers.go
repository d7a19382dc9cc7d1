package serviceorders

import (
	"net/http"

	"github.com/friotec/fieldservice-backend/api/middleware"
	"github.com/friotec/fieldservice-backend/api/responses"
	"github.com/friotec/fieldservice-backend/api/validators"
	internal "github.com/friotec/fieldservice-backend/internal/serviceorders"
	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
	"github.com/friotec/fieldservice-backend/pkg/logger"
)

const orderIDParam = "orderId"

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "service orders unavailable"))
}

func sessionFrom(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (internal.SessionContext, bool) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing"))
		return internal.SessionContext{}, false
	}
	return session, true
}

// List returns the sorted, paged order list for the session's visible stores.
func List(svc internal.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		session, ok := sessionFrom(w, r, logg)
		if !ok {
			return
		}
		filters, err := parseListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), session, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Create(svc internal.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		session, ok := sessionFrom(w, r, logg)
		if !ok {
			return
		}
		var body internal.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Create(r.Context(), session, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func Detail(svc internal.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		session, ok := sessionFrom(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParsePathUUID(r, orderIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), session, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Update applies a partial edit of the editable fields.
func Update(svc internal.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		session, ok := sessionFrom(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParsePathUUID(r, orderIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body internal.UpdateFieldsInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.UpdateFields(r.Context(), session, orderID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ChangeStatus moves one order. A blocked completion answers 422 with the
// missing field list in error.details.
func ChangeStatus(svc internal.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		session, ok := sessionFrom(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParsePathUUID(r, orderIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body changeStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput(orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.ChangeStatus(r.Context(), session, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// BulkChangeStatus answers 200 with per-order results even when some fail.
func BulkChangeStatus(svc internal.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		session, ok := sessionFrom(w, r, logg)
		if !ok {
			return
		}
		var body bulkStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.BulkChangeStatus(r.Context(), session, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func StartTimer(svc internal.Service, logg *logger.Logger) http.HandlerFunc {
	return timerHandler(svc, logg, true)
}

func StopTimer(svc internal.Service, logg *logger.Logger) http.HandlerFunc {
	return timerHandler(svc, logg, false)
}

func timerHandler(svc internal.Service, logg *logger.Logger, start bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		session, ok := sessionFrom(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParsePathUUID(r, orderIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var order *internal.ServiceOrderDTO
		if start {
			order, err = svc.StartTimer(r.Context(), session, orderID)
		} else {
			order, err = svc.StopTimer(r.Context(), session, orderID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func AddNote(svc internal.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		session, ok := sessionFrom(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParsePathUUID(r, orderIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body noteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		note, err := svc.AddNote(r.Context(), session, orderID, body.Content)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, note)
	}
}

func ListNotes(svc internal.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		session, ok := sessionFrom(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParsePathUUID(r, orderIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		notes, err := svc.ListNotes(r.Context(), session, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, notes)
	}
}

// ListActivities returns the audit trail, newest first.
func ListActivities(svc internal.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		session, ok := sessionFrom(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParsePathUUID(r, orderIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		activities, err := svc.ListActivities(r.Context(), session, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, activities)
	}
}
