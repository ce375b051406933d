// internal/orders/service.go
package orders

import (
	"context"

	"bookvault/internal/auth"
	"bookvault/internal/cart"
	"bookvault/internal/clients"
)

// Service defines the interface for the signed-in user's order history.
type Service interface {
	MyOrders(ctx context.Context) ([]View, error)
	Get(ctx context.Context, id string) (*View, error)
	Cancel(ctx context.Context, id, reason string) (*View, error)
	Track(ctx context.Context, id string) (map[string]any, error)
	BuyAgain(ctx context.Context, id string) (int, error)
}

// Backend is the order service API.
type Backend interface {
	Get(ctx context.Context, id string) (*clients.Order, error)
	Mine(ctx context.Context, userID string) ([]clients.Order, error)
	ByUser(ctx context.Context, userID string) ([]clients.Order, error)
	Cancel(ctx context.Context, id, reason string) (*clients.Order, error)
	Track(ctx context.Context, id string) (map[string]any, error)
}

type Authenticator interface {
	Require(ctx context.Context, role auth.Role) (auth.Session, error)
}

// Cart receives the items of a repeated order.
type Cart interface {
	Add(ctx context.Context, item cart.LineItem, quantity int) cart.LineItem
}
