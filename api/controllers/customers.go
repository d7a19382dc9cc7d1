package controllers

import (
	"net/http"

	"github.com/friotec/fieldservice-backend/api/responses"
	"github.com/friotec/fieldservice-backend/api/validators"
	"github.com/friotec/fieldservice-backend/internal/customers"
	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
	"github.com/friotec/fieldservice-backend/pkg/logger"
	"github.com/friotec/fieldservice-backend/pkg/pagination"
)

const maxSearchLength = 120

// ListClients backs the client picker on the create form.
func ListClients(repo customers.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers repository unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLength)

		rows, err := repo.ListClients(r.Context(), query, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clients"))
			return
		}
		responses.WriteSuccess(w, customers.ClientsFromModels(rows))
	}
}

func ListEstablishments(repo customers.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers repository unavailable"))
			return
		}
		clientID, err := validators.ParsePathUUID(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := repo.ListEstablishments(r.Context(), clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list establishments"))
			return
		}
		responses.WriteSuccess(w, customers.EstablishmentsFromModels(rows))
	}
}

func ListEquipment(repo customers.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers repository unavailable"))
			return
		}
		establishmentID, err := validators.ParsePathUUID(r, "establishmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := repo.ListEquipment(r.Context(), establishmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list equipment"))
			return
		}
		responses.WriteSuccess(w, customers.EquipmentFromModels(rows))
	}
}
