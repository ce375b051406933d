// internal/catalog/service.go
package catalog

import (
	"context"
	"net/url"

	"bookvault/internal/auth"
	"bookvault/internal/clients"
)

type BookPage = clients.Page[clients.Book]

// Service defines the interface for catalog browsing and seller catalog
// management.
type Service interface {
	List(ctx context.Context, page, size int) (*BookPage, error)
	Get(ctx context.Context, id string) (*clients.Book, error)
	Search(ctx context.Context, query string, page, size int) (*BookPage, error)
	ByCategory(ctx context.Context, category string, page, size int) (*BookPage, error)
	ByAuthor(ctx context.Context, author string, page, size int) (*BookPage, error)
	Featured(ctx context.Context, page, size int) (*BookPage, error)
	Bestsellers(ctx context.Context, page, size int) (*BookPage, error)
	NewReleases(ctx context.Context, page, size int) (*BookPage, error)
	Categories(ctx context.Context) ([]clients.Category, error)
	Filter(ctx context.Context, filters url.Values, page, size int) (*BookPage, error)
	BySeller(ctx context.Context, sellerID string) ([]clients.Book, error)

	MyBooks(ctx context.Context) ([]clients.Book, error)
	CreateBook(ctx context.Context, in clients.BookInput) (*clients.Book, error)
	UpdateBook(ctx context.Context, id string, in clients.BookInput) (*clients.Book, error)
	DeleteBook(ctx context.Context, id string) error
}

// Backend is the catalog service API.
type Backend interface {
	ListBooks(ctx context.Context, page, size int) (*BookPage, error)
	GetBook(ctx context.Context, id string) (*clients.Book, error)
	Search(ctx context.Context, query string, page, size int) (*BookPage, error)
	ByCategory(ctx context.Context, category string, page, size int) (*BookPage, error)
	ByAuthor(ctx context.Context, author string, page, size int) (*BookPage, error)
	Listing(ctx context.Context, name string, page, size int) (*BookPage, error)
	Categories(ctx context.Context) ([]clients.Category, error)
	Filter(ctx context.Context, filters url.Values, page, size int) (*BookPage, error)
	BySeller(ctx context.Context, sellerID string) ([]clients.Book, error)
	CreateBook(ctx context.Context, in clients.BookInput) (*clients.Book, error)
	UpdateBook(ctx context.Context, id string, in clients.BookInput) (*clients.Book, error)
	DeleteBook(ctx context.Context, id string) error
}

// Authenticator resolves the signed-in session for seller operations.
type Authenticator interface {
	Require(ctx context.Context, role auth.Role) (auth.Session, error)
}
