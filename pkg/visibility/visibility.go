package visibility

import (
	"strings"

	"github.com/friotec/fieldservice-backend/pkg/enums"
	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
)

// Viewer is the slice of the session needed for store visibility rules.
type Viewer struct {
	Role  enums.UserRole
	Store enums.Store
}

// ResolveListStore returns the store filter a viewer may list with.
// An empty request defaults to the viewer's own store. The aggregate "all"
// view is reserved for roles that can see every branch.
func ResolveListStore(viewer Viewer, requested string) (enums.Store, error) {
	if strings.TrimSpace(requested) == "" {
		return viewer.Store, nil
	}
	store, err := enums.ParseStore(requested)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if store == viewer.Store || viewer.Role.CanViewAllStores() {
		return store, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeForbidden, "store not visible to this user")
}

// EnsureOrderVisible rejects records from a store the viewer cannot access.
// Hidden records are reported as not found so ids from other branches do not leak.
func EnsureOrderVisible(viewer Viewer, recordStore enums.Store) error {
	if viewer.Role.CanViewAllStores() || viewer.Store == recordStore {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "service order not found")
}

// ResolveWriteStore picks the store a new record is written to.
func ResolveWriteStore(viewer Viewer, requested enums.Store) (enums.Store, error) {
	if requested == "" {
		requested = viewer.Store
	}
	if !requested.IsPersistable() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "store must be main or branch")
	}
	if requested != viewer.Store && !viewer.Role.CanViewAllStores() {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "cannot create orders for another store")
	}
	return requested, nil
}
