package controllers

import (
	"net/http"

	"github.com/friotec/fieldservice-backend/api/responses"
	"github.com/friotec/fieldservice-backend/api/validators"
	"github.com/friotec/fieldservice-backend/internal/auth"
	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
	"github.com/friotec/fieldservice-backend/pkg/logger"
)

// AdminRegisterStaff provisions a staff account. Routed behind RequireRoles(admin).
func AdminRegisterStaff(svc auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		var body auth.RegisterStaffRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.RegisterStaff(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}
