package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/friotec/fieldservice-backend/pkg/enums"
)

// AccessTokenPayload is what a caller supplies to mint a token.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	DisplayName string
	Role        enums.UserRole
	Store       enums.Store
	// JTI doubles as the refresh session key; generated when empty.
	JTI string
}

func (p AccessTokenPayload) validate() error {
	switch {
	case p.UserID == uuid.Nil:
		return errors.New("user id is required")
	case !p.Role.IsValid():
		return fmt.Errorf("invalid user role %q", p.Role)
	case !p.Store.IsPersistable():
		return fmt.Errorf("invalid store %q", p.Store)
	}
	return nil
}

// AccessTokenClaims is the body of the HS256 access token.
type AccessTokenClaims struct {
	UserID      uuid.UUID      `json:"user_id"`
	DisplayName string         `json:"display_name,omitempty"`
	Role        enums.UserRole `json:"role"`
	Store       enums.Store    `json:"store"`
	jwt.RegisteredClaims
}

// Validate runs after the registered-claim checks, so a correctly signed
// token still cannot carry a role or store the API does not know.
func (c AccessTokenClaims) Validate() error {
	if err := (AccessTokenPayload{UserID: c.UserID, Role: c.Role, Store: c.Store}).validate(); err != nil {
		return err
	}
	if c.Subject != c.UserID.String() {
		return errors.New("subject does not match user id")
	}
	return nil
}
