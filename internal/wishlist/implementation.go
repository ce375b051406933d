// internal/wishlist/implementation.go
package wishlist

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"bookvault/internal/auth"
	"bookvault/internal/clients"
	"bookvault/internal/events"
	"bookvault/internal/storage"
)

const msgLoginRequired = "Please log in to add books to your wishlist."

// service implements the Service interface. Each user's list lives under
// its own storage key.
type service struct {
	mu       sync.Mutex
	store    storage.Store
	auth     Authenticator
	books    BookLookup
	notifier events.Notifier
	log      logrus.FieldLogger
}

func NewService(store storage.Store, a Authenticator, books BookLookup, notifier events.Notifier, log logrus.FieldLogger) Service {
	return &service{
		store:    store,
		auth:     a,
		books:    books,
		notifier: notifier,
		log:      log,
	}
}

func (s *service) userKey(ctx context.Context) (string, error) {
	session, err := s.auth.Require(ctx, auth.RoleUser)
	if err != nil {
		return "", err
	}
	id := session.UserID()
	if id == "" {
		return "", auth.ErrLoginRequired
	}
	return storage.WishlistKey(id), nil
}

// load reads a list, treating unreadable data as empty. Callers hold s.mu.
func (s *service) load(ctx context.Context, key string) []clients.Book {
	var books []clients.Book
	_, err := storage.ReadJSON(ctx, s.store, key, &books)
	if errors.Is(err, storage.ErrMalformed) {
		s.log.WithError(err).WithField("storage.key", key).Warn("discarding unreadable wishlist")
		return []clients.Book{}
	}
	if err != nil {
		s.log.WithError(err).Warn("read wishlist")
		return []clients.Book{}
	}
	if books == nil {
		books = []clients.Book{}
	}
	return books
}

func (s *service) save(ctx context.Context, key string, books []clients.Book) error {
	if err := storage.WriteJSON(ctx, s.store, key, books); err != nil {
		s.log.WithError(err).Error("persist wishlist")
		return err
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]clients.Book, error) {
	key, err := s.userKey(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, key), nil
}

// Add fetches the book and appends it unless it is already listed.
func (s *service) Add(ctx context.Context, bookID string) ([]clients.Book, error) {
	key, err := s.userKey(ctx)
	if errors.Is(err, auth.ErrLoginRequired) {
		s.notifier.Notify(ctx, events.Message(events.LevelError, msgLoginRequired))
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		v := clients.NewValidationError()
		v.Add("bookId", "Book id is required")
		return nil, v
	}

	s.mu.Lock()
	books := s.load(ctx, key)
	for _, b := range books {
		if b.ID == bookID {
			s.mu.Unlock()
			return books, nil
		}
	}
	s.mu.Unlock()

	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		s.notifier.Notify(ctx, events.Message(events.LevelError, "Failed to add book to wishlist."))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	books = s.load(ctx, key)
	for _, b := range books {
		if b.ID == book.ID {
			return books, nil
		}
	}
	books = append(books, *book)
	if err := s.save(ctx, key, books); err != nil {
		s.notifier.Notify(ctx, events.Message(events.LevelError, "Failed to add book to wishlist."))
		return nil, err
	}
	s.notifier.Notify(ctx, events.Message(events.LevelSuccess, "Book added to wishlist!"))
	return books, nil
}

func (s *service) Remove(ctx context.Context, bookID string) ([]clients.Book, error) {
	key, err := s.userKey(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	books := s.load(ctx, key)
	kept := books[:0]
	for _, b := range books {
		if b.ID != bookID {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(books) {
		return kept, nil
	}
	if err := s.save(ctx, key, kept); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, events.Message(events.LevelInfo, "Book removed from wishlist."))
	return kept, nil
}
