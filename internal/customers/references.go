package customers

import (
	"context"
	"errors"

	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// References is the client/site/asset triple a service order points at.
type References struct {
	ClientID        uuid.UUID
	EstablishmentID *uuid.UUID
	EquipmentID     *uuid.UUID
}

// ValidateReferences checks that every referenced row exists and that the
// establishment belongs to the client and the equipment to the establishment.
func ValidateReferences(ctx context.Context, repo Repository, refs References) error {
	if refs.ClientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "client_id is required")
	}
	if _, err := repo.FindClient(ctx, refs.ClientID); err != nil {
		return lookupError(err, "client not found", "load client")
	}

	if refs.EquipmentID != nil && refs.EstablishmentID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "equipment requires an establishment")
	}
	if refs.EstablishmentID == nil {
		return nil
	}

	est, err := repo.FindEstablishment(ctx, *refs.EstablishmentID)
	if err != nil {
		return lookupError(err, "establishment not found", "load establishment")
	}
	if est.ClientID != refs.ClientID {
		return pkgerrors.New(pkgerrors.CodeValidation, "establishment does not belong to client")
	}

	if refs.EquipmentID == nil {
		return nil
	}
	eq, err := repo.FindEquipment(ctx, *refs.EquipmentID)
	if err != nil {
		return lookupError(err, "equipment not found", "load equipment")
	}
	if eq.EstablishmentID != est.ID {
		return pkgerrors.New(pkgerrors.CodeValidation, "equipment does not belong to establishment")
	}
	return nil
}

func lookupError(err error, notFound, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
