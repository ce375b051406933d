// internal/catalog/implementation.go
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"bookvault/internal/auth"
	"bookvault/internal/clients"
	"bookvault/internal/events"
)

// service implements the Service interface. Read responses are cached by
// request key; any seller mutation purges the cache.
type service struct {
	backend  Backend
	auth     Authenticator
	notifier events.Notifier
	log      logrus.FieldLogger
	opts     Options
	cache    *expirable.LRU[string, any]
}

// NewService creates a new catalog service instance. A zero CacheSize
// disables caching.
func NewService(backend Backend, a Authenticator, notifier events.Notifier, log logrus.FieldLogger, opts Options) Service {
	s := &service{
		backend:  backend,
		auth:     a,
		notifier: notifier,
		log:      log,
		opts:     opts,
	}
	if opts.CacheSize > 0 {
		s.cache = expirable.NewLRU[string, any](opts.CacheSize, nil, opts.CacheTTL)
	}
	return s
}

// cached returns the cached value for key or fetches and stores it.
func cached[T any](s *service, key string, fetch func() (T, error)) (T, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if t, ok := v.(T); ok {
				return t, nil
			}
		}
	}
	v, err := fetch()
	if err != nil {
		return v, err
	}
	if s.cache != nil {
		s.cache.Add(key, v)
	}
	return v, nil
}

func (s *service) invalidate() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

func pageKey(kind, arg string, page, size int) string {
	return fmt.Sprintf("%s:%s:%d:%d", kind, arg, page, size)
}

func (s *service) List(ctx context.Context, page, size int) (*BookPage, error) {
	page, size = s.opts.paging(page, size)
	return cached(s, pageKey("list", "", page, size), func() (*BookPage, error) {
		return s.backend.ListBooks(ctx, page, size)
	})
}

// Get implements cart.BookLookup.
func (s *service) Get(ctx context.Context, id string) (*clients.Book, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, clients.ErrNotFound
	}
	return cached(s, "book:"+id, func() (*clients.Book, error) {
		return s.backend.GetBook(ctx, id)
	})
}

func (s *service) Search(ctx context.Context, query string, page, size int) (*BookPage, error) {
	query = strings.TrimSpace(query)
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	page, size = s.opts.paging(page, size)
	return cached(s, pageKey("search", query, page, size), func() (*BookPage, error) {
		return s.backend.Search(ctx, query, page, size)
	})
}

func (s *service) ByCategory(ctx context.Context, category string, page, size int) (*BookPage, error) {
	page, size = s.opts.paging(page, size)
	return cached(s, pageKey("category", category, page, size), func() (*BookPage, error) {
		return s.backend.ByCategory(ctx, category, page, size)
	})
}

func (s *service) ByAuthor(ctx context.Context, author string, page, size int) (*BookPage, error) {
	page, size = s.opts.paging(page, size)
	return cached(s, pageKey("author", author, page, size), func() (*BookPage, error) {
		return s.backend.ByAuthor(ctx, author, page, size)
	})
}

func (s *service) listing(ctx context.Context, name string, page, size int) (*BookPage, error) {
	page, size = s.opts.paging(page, size)
	return cached(s, pageKey("listing", name, page, size), func() (*BookPage, error) {
		return s.backend.Listing(ctx, name, page, size)
	})
}

func (s *service) Featured(ctx context.Context, page, size int) (*BookPage, error) {
	return s.listing(ctx, ListingFeatured, page, size)
}

func (s *service) Bestsellers(ctx context.Context, page, size int) (*BookPage, error) {
	return s.listing(ctx, ListingBestsellers, page, size)
}

func (s *service) NewReleases(ctx context.Context, page, size int) (*BookPage, error) {
	return s.listing(ctx, ListingNewReleases, page, size)
}

func (s *service) Categories(ctx context.Context) ([]clients.Category, error) {
	return cached(s, "categories", func() ([]clients.Category, error) {
		return s.backend.Categories(ctx)
	})
}

func (s *service) Filter(ctx context.Context, filters url.Values, page, size int) (*BookPage, error) {
	page, size = s.opts.paging(page, size)
	clean := url.Values{}
	for k, v := range filters {
		if k == "page" || k == "size" || len(v) == 0 || v[0] == "" {
			continue
		}
		clean[k] = v
	}
	return cached(s, pageKey("filter", clean.Encode(), page, size), func() (*BookPage, error) {
		return s.backend.Filter(ctx, clean, page, size)
	})
}

func (s *service) BySeller(ctx context.Context, sellerID string) ([]clients.Book, error) {
	return cached(s, "seller:"+sellerID, func() ([]clients.Book, error) {
		return s.backend.BySeller(ctx, sellerID)
	})
}

// MyBooks lists the signed-in seller's own books, bypassing the cache.
func (s *service) MyBooks(ctx context.Context) ([]clients.Book, error) {
	session, err := s.auth.Require(ctx, auth.RoleSeller)
	if err != nil {
		return nil, err
	}
	return s.backend.BySeller(ctx, session.UserID())
}

func (s *service) CreateBook(ctx context.Context, in clients.BookInput) (*clients.Book, error) {
	session, err := s.auth.Require(ctx, auth.RoleSeller)
	if err != nil {
		return nil, err
	}
	if err := validateBook(&in); err != nil {
		return nil, err
	}
	if in.SellerID == "" {
		in.SellerID = session.UserID()
	}

	book, err := s.backend.CreateBook(ctx, in)
	if err != nil {
		s.log.WithError(err).Warn("create book")
		return nil, err
	}
	s.invalidate()
	s.log.WithFields(logrus.Fields{"book.id": book.ID, "seller.id": in.SellerID}).Info("book created")
	s.notifier.Notify(ctx, events.Message(events.LevelSuccess, "Book added successfully!"))
	return book, nil
}

func (s *service) UpdateBook(ctx context.Context, id string, in clients.BookInput) (*clients.Book, error) {
	if _, err := s.auth.Require(ctx, auth.RoleSeller); err != nil {
		return nil, err
	}
	if err := validateBook(&in); err != nil {
		return nil, err
	}

	book, err := s.backend.UpdateBook(ctx, id, in)
	if err != nil {
		s.log.WithError(err).WithField("book.id", id).Warn("update book")
		return nil, err
	}
	s.invalidate()
	s.notifier.Notify(ctx, events.Message(events.LevelSuccess, "Book updated successfully!"))
	return book, nil
}

func (s *service) DeleteBook(ctx context.Context, id string) error {
	if _, err := s.auth.Require(ctx, auth.RoleSeller); err != nil {
		return err
	}
	if err := s.backend.DeleteBook(ctx, id); err != nil {
		s.log.WithError(err).WithField("book.id", id).Warn("delete book")
		return err
	}
	s.invalidate()
	s.notifier.Notify(ctx, events.Message(events.LevelSuccess, "Book deleted successfully!"))
	return nil
}
