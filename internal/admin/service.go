// internal/admin/service.go
package admin

import (
	"context"

	"bookvault/internal/auth"
	"bookvault/internal/clients"
)

// Service defines the admin and seller dashboards.
type Service interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	Stats(ctx context.Context) (*clients.DashboardStats, error)
	Users(ctx context.Context, page, size int) (*clients.Page[clients.User], error)
	AllUsers(ctx context.Context) ([]clients.User, error)
	Sellers(ctx context.Context, page, size int) (*clients.Page[clients.User], error)
	SetUserStatus(ctx context.Context, id, action string) error
	SetUserRole(ctx context.Context, id, role string) error
	ResetPassword(ctx context.Context, id string) (map[string]string, error)
	VerifyUser(ctx context.Context, id string) error
	UpdateUser(ctx context.Context, id string, in clients.UserUpdate) (*clients.User, error)
	DeleteUser(ctx context.Context, id string) error
	ToggleSeller(ctx context.Context, id string) error
	DeleteSeller(ctx context.Context, id string) error
	Orders(ctx context.Context, page, size int) (*clients.Page[clients.Order], error)
	SetOrderStatus(ctx context.Context, id, status string) (*clients.Order, error)

	SellerDashboard(ctx context.Context) (*SellerDashboard, error)
}

// Accounts is the auth service's admin API.
type Accounts interface {
	Stats(ctx context.Context) (*clients.DashboardStats, error)
	Users(ctx context.Context, page, size int) (*clients.Page[clients.User], error)
	AllUsers(ctx context.Context) ([]clients.User, error)
	Sellers(ctx context.Context, page, size int) (*clients.Page[clients.User], error)
	SetUserStatus(ctx context.Context, id, action string) error
	SetUserRole(ctx context.Context, id, role string) error
	ResetPassword(ctx context.Context, id string) (map[string]string, error)
	VerifyUser(ctx context.Context, id string) error
	UpdateUser(ctx context.Context, id string, in clients.UserUpdate) (*clients.User, error)
	DeleteUser(ctx context.Context, id string) error
	ToggleSeller(ctx context.Context, id string) error
	DeleteSeller(ctx context.Context, id string) error
}

// Orders is the order service's admin API.
type Orders interface {
	All(ctx context.Context, page, size int) (*clients.Page[clients.Order], error)
	UpdateStatus(ctx context.Context, id, status string) (*clients.Order, error)
}

// SellerBooks lists a seller's catalog.
type SellerBooks interface {
	BySeller(ctx context.Context, sellerID string) ([]clients.Book, error)
}

type Authenticator interface {
	Require(ctx context.Context, role auth.Role) (auth.Session, error)
}
