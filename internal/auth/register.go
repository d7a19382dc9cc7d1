package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/friotec/fieldservice-backend/internal/users"
	"github.com/friotec/fieldservice-backend/pkg/config"
	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
	"github.com/friotec/fieldservice-backend/pkg/security"
	"gorm.io/gorm"
)

// RegisterService provisions staff accounts. Only admins reach it.
type RegisterService interface {
	RegisterStaff(ctx context.Context, req RegisterStaffRequest) (*users.UserDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterServiceParams names the dependencies for staff registration.
type RegisterServiceParams struct {
	DB             txRunner
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          txRunner
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds the staff registration service.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) RegisterStaff(ctx context.Context, req RegisterStaffRequest) (*users.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display_name is required")
	}
	if !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role is invalid")
	}
	if !req.Store.IsPersistable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store must be main or branch")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "hash password")
	}

	var created *users.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := users.NewRepository(tx).Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			DisplayName:  name,
			Role:         req.Role,
			Store:        req.Store,
		})
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
