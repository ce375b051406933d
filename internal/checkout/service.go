// internal/checkout/service.go
package checkout

import (
	"context"

	"bookvault/internal/auth"
	"bookvault/internal/cart"
	"bookvault/internal/clients"
)

// Service defines the interface for the checkout orchestrator.
type Service interface {
	StartCheckout(ctx context.Context) error
	Submit(ctx context.Context, form Form) (*clients.Order, error)
	Cancel(ctx context.Context) error
	Reset(ctx context.Context) error
	State() Snapshot
}

// Authenticator resolves the signed-in session.
type Authenticator interface {
	Require(ctx context.Context, role auth.Role) (auth.Session, error)
}

// OrderCreator places orders with the order service.
type OrderCreator interface {
	Create(ctx context.Context, userID string, req clients.OrderRequest) (*clients.Order, error)
}

// Cart is the part of the cart the orchestrator reads and clears.
type Cart interface {
	Items(ctx context.Context) []cart.LineItem
	Clear(ctx context.Context)
}
