// internal/wishlist/service.go
package wishlist

import (
	"context"

	"bookvault/internal/auth"
	"bookvault/internal/clients"
)

// Service is the signed-in user's wishlist.
type Service interface {
	List(ctx context.Context) ([]clients.Book, error)
	Add(ctx context.Context, bookID string) ([]clients.Book, error)
	Remove(ctx context.Context, bookID string) ([]clients.Book, error)
}

type Authenticator interface {
	Require(ctx context.Context, role auth.Role) (auth.Session, error)
}

// BookLookup resolves a catalog id to a book.
type BookLookup interface {
	Get(ctx context.Context, id string) (*clients.Book, error)
}
