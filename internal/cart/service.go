// internal/cart/service.go
package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// Service is the persisted cart. Mutations never fail: storage errors are
// logged and the in-memory result is still returned to the caller.
type Service interface {
	Items(ctx context.Context) []LineItem
	Add(ctx context.Context, item LineItem, quantity int) LineItem
	Remove(ctx context.Context, id string)
	SetQuantity(ctx context.Context, id string, quantity int)
	Clear(ctx context.Context)
	Total(ctx context.Context) decimal.Decimal
	ItemCount(ctx context.Context) int
}
