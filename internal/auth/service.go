package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/friotec/fieldservice-backend/internal/users"
	pkgAuth "github.com/friotec/fieldservice-backend/pkg/auth"
	"github.com/friotec/fieldservice-backend/pkg/auth/session"
	"github.com/friotec/fieldservice-backend/pkg/config"
	"github.com/friotec/fieldservice-backend/pkg/db/models"
	pkgerrors "github.com/friotec/fieldservice-backend/pkg/errors"
	"github.com/friotec/fieldservice-backend/pkg/security"
)

// Login failures share one message so callers cannot probe which emails exist.
func errBadCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

func errBadRefresh() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
}

type service struct {
	users   userRepository
	session sessionManager
	jwtCfg  config.JWTConfig
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.UserRepo == nil:
		return nil, errors.New("user repository is required")
	case params.SessionManager == nil:
		return nil, errors.New("session manager is required")
	}
	return &service{
		users:   params.UserRepo,
		session: params.SessionManager,
		jwtCfg:  params.JWTConfig,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.verifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	accessID := session.NewAccessID()
	access, err := s.accessToken(now, user, accessID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return &LoginResponse{AccessToken: access, RefreshToken: refresh, User: users.FromModel(user)}, nil
}

// Refresh accepts an expired access token as proof of the session it names.
// The user row is re-read so role, store and deactivation apply immediately.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	if blank(req.AccessToken) || blank(req.RefreshToken) {
		return nil, errBadRefresh()
	}
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil || claims.ID == "" {
		return nil, errBadRefresh()
	}
	user, err := s.activeUser(s.users.FindByID(ctx, claims.UserID))
	if err != nil {
		return nil, refreshFailure(err)
	}

	accessID, refresh, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if errors.Is(err, session.ErrInvalidRefreshToken) {
		return nil, errBadRefresh()
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}
	access, err := s.accessToken(s.now(), user, accessID)
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if blank(accessID) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) verifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errBadCredentials()
	}
	user, err := s.activeUser(s.users.FindByEmail(ctx, email))
	if errors.Is(err, errInactive) || errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errBadCredentials()
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, errBadCredentials()
	}
	return user, nil
}

var errInactive = errors.New("user inactive")

func (s *service) activeUser(user *models.User, err error) (*models.User, error) {
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errInactive
	}
	return user, nil
}

func refreshFailure(err error) error {
	if errors.Is(err, errInactive) || errors.Is(err, gorm.ErrRecordNotFound) {
		return errBadRefresh()
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
}

func (s *service) accessToken(now time.Time, user *models.User, accessID string) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		Store:       user.Store,
		JTI:         accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
