// internal/auth/service.go
package auth

import (
	"context"

	"bookvault/internal/clients"
)

// Service defines the interface for the authentication state.
type Service interface {
	Login(ctx context.Context, creds clients.Credentials) (*Profile, error)
	Register(ctx context.Context, reg clients.Registration) (*Profile, error)
	Logout(ctx context.Context)
	Session(ctx context.Context) Session
	IsLoggedIn(ctx context.Context) bool
	Role(ctx context.Context) Role
	IsAdmin(ctx context.Context) bool
	IsSeller(ctx context.Context) bool
	CurrentUser(ctx context.Context) *Profile
	DisplayName(ctx context.Context) string
	Require(ctx context.Context, role Role) (Session, error)
	ValidateToken(ctx context.Context) (bool, error)
	Profile(ctx context.Context) (*clients.User, error)
	UpdateProfile(ctx context.Context, in clients.ProfileUpdate) (*clients.User, error)
}

// Backend is the auth service API.
type Backend interface {
	Login(ctx context.Context, creds clients.Credentials) (*clients.AuthResponse, error)
	Register(ctx context.Context, reg clients.Registration) (*clients.AuthResponse, error)
	Validate(ctx context.Context, token string) error
	Profile(ctx context.Context, userID string) (*clients.User, error)
	UpdateProfile(ctx context.Context, userID string, in clients.ProfileUpdate) (*clients.User, error)
}

// CartClearer empties the cart on logout.
type CartClearer interface {
	Clear(ctx context.Context)
}
