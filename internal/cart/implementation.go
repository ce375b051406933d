// internal/cart/implementation.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bookvault/internal/events"
	"bookvault/internal/storage"
)

// service implements the Service interface. The mutex serialises each
// read-modify-write cycle against the store.
type service struct {
	mu       sync.Mutex
	store    storage.Store
	notifier events.Notifier
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewService creates a cart backed by store.
func NewService(store storage.Store, notifier events.Notifier, log logrus.FieldLogger) Service {
	return &service{
		store:    store,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// load reads the cart, dropping corrupt items and writing the cleaned cart
// back when anything was dropped. Callers hold s.mu.
func (s *service) load(ctx context.Context) []LineItem {
	var raw []LineItem
	_, err := storage.ReadJSON(ctx, s.store, storage.KeyCart, &raw)
	if errors.Is(err, storage.ErrMalformed) {
		s.log.WithError(err).Warn("discarding unreadable cart")
		return []LineItem{}
	}
	if err != nil {
		s.log.WithError(err).Warn("read cart")
		return []LineItem{}
	}

	items := make([]LineItem, 0, len(raw))
	dirty := false
	for _, it := range raw {
		if !it.valid() {
			s.log.WithFields(logrus.Fields{"item.id": it.ID, "item.title": it.Title}).Warn("removing corrupted cart item")
			dirty = true
			continue
		}
		if it.Quantity > MaxQuantity {
			it.Quantity = MaxQuantity
			dirty = true
		}
		items = append(items, it)
	}
	if dirty {
		s.save(ctx, items)
	}
	return items
}

func (s *service) save(ctx context.Context, items []LineItem) {
	if err := storage.WriteJSON(ctx, s.store, storage.KeyCart, items); err != nil {
		s.log.WithError(err).Error("persist cart")
	}
}

func (s *service) changed(ctx context.Context, items []LineItem, level events.Level, msg string) {
	s.notifier.Notify(ctx, events.CartChanged(count(items)))
	if msg != "" {
		s.notifier.Notify(ctx, events.Message(level, msg))
	}
}

func count(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func (s *service) Items(ctx context.Context) []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Add merges item into the cart. An existing line keeps its details and gains
// quantity, saturating at MaxQuantity; a new line is appended. Items missing a
// title or author, or with a negative price, are not added and the zero
// LineItem is returned.
func (s *service) Add(ctx context.Context, item LineItem, quantity int) LineItem {
	quantity = ClampQuantity(quantity)
	item.ID = LineID(item.ID, item.Title, item.Author)
	item.Title = strings.TrimSpace(item.Title)
	item.Author = strings.TrimSpace(item.Author)
	item.Quantity = quantity
	if !item.valid() {
		s.log.WithField("item.id", item.ID).Warn("rejecting incomplete cart item")
		s.notifier.Notify(ctx, events.Message(events.LevelError, "Unable to add book to cart. Missing book information."))
		return LineItem{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load(ctx)
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity = ClampQuantity(items[i].Quantity + quantity)
			s.save(ctx, items)
			s.changed(ctx, items, events.LevelSuccess, fmt.Sprintf("Updated quantity to %d!", items[i].Quantity))
			return items[i]
		}
	}

	if item.ImageURL == "" {
		item.ImageURL = PlaceholderImage
	}
	item.AddedAt = s.now().UTC()
	items = append(items, item)
	s.save(ctx, items)
	s.changed(ctx, items, events.LevelSuccess, fmt.Sprintf("Added %q to cart!", item.Title))
	return item
}

func (s *service) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load(ctx)
	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		s.changed(ctx, kept, "", "")
		return
	}
	s.save(ctx, kept)
	s.changed(ctx, kept, events.LevelInfo, "Item removed from cart!")
}

// SetQuantity overwrites a line's quantity, capped at MaxQuantity; zero or
// less removes the line.
func (s *service) SetQuantity(ctx context.Context, id string, quantity int) {
	if quantity <= 0 {
		s.Remove(ctx, id)
		return
	}
	quantity = ClampQuantity(quantity)

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load(ctx)
	for i := range items {
		if items[i].ID == id {
			items[i].Quantity = quantity
			s.save(ctx, items)
			s.changed(ctx, items, "", "")
			return
		}
	}
}

func (s *service) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, storage.KeyCart); err != nil {
		s.log.WithError(err).Error("clear cart")
	}
	s.changed(ctx, nil, "", "")
}

func (s *service) Total(ctx context.Context) decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items(ctx) {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (s *service) ItemCount(ctx context.Context) int {
	return count(s.Items(ctx))
}
