// internal/orders/implementation.go
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"bookvault/internal/auth"
	"bookvault/internal/cart"
	"bookvault/internal/clients"
	"bookvault/internal/events"
)

// service implements the Service interface.
type service struct {
	backend  Backend
	auth     Authenticator
	cart     Cart
	notifier events.Notifier
	log      logrus.FieldLogger
}

// NewService creates a new order history service.
func NewService(backend Backend, a Authenticator, c Cart, notifier events.Notifier, log logrus.FieldLogger) Service {
	return &service{
		backend:  backend,
		auth:     a,
		cart:     c,
		notifier: notifier,
		log:      log,
	}
}

// MyOrders lists the user's orders. Order services without /orders/my-orders
// are asked for /orders/user/{id} instead.
func (s *service) MyOrders(ctx context.Context) ([]View, error) {
	session, err := s.auth.Require(ctx, auth.RoleUser)
	if err != nil {
		return nil, err
	}
	list, err := s.backend.Mine(ctx, session.UserID())
	if errors.Is(err, clients.ErrNotFound) {
		s.log.WithField("user.id", session.UserID()).Debug("my-orders unavailable, listing by user")
		list, err = s.backend.ByUser(ctx, session.UserID())
	}
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(list))
	for _, o := range list {
		views = append(views, newView(o))
	}
	return views, nil
}

func (s *service) Get(ctx context.Context, id string) (*View, error) {
	if _, err := s.auth.Require(ctx, auth.RoleUser); err != nil {
		return nil, err
	}
	o, err := s.backend.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := newView(*o)
	return &v, nil
}

// Cancel asks the order service to cancel id. A blank reason is replaced by
// DefaultCancelReason.
func (s *service) Cancel(ctx context.Context, id, reason string) (*View, error) {
	if _, err := s.auth.Require(ctx, auth.RoleUser); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		reason = DefaultCancelReason
	}
	o, err := s.backend.Cancel(ctx, id, reason)
	if err != nil {
		s.log.WithError(err).WithField("order.id", id).Warn("cancel order")
		s.notifier.Notify(ctx, events.Message(events.LevelError, "Failed to cancel order."))
		return nil, err
	}
	s.notifier.Notify(ctx, events.Message(events.LevelSuccess, "Order cancelled successfully."))
	v := newView(*o)
	return &v, nil
}

func (s *service) Track(ctx context.Context, id string) (map[string]any, error) {
	if _, err := s.auth.Require(ctx, auth.RoleUser); err != nil {
		return nil, err
	}
	return s.backend.Track(ctx, id)
}

// BuyAgain adds every item of order id to the cart with its original
// quantity and unit price and returns the number of units added.
func (s *service) BuyAgain(ctx context.Context, id string) (int, error) {
	if _, err := s.auth.Require(ctx, auth.RoleUser); err != nil {
		return 0, err
	}
	o, err := s.backend.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if len(o.OrderItems) == 0 {
		s.notifier.Notify(ctx, events.Message(events.LevelError, noItemsMessage))
		return 0, ErrNoItems
	}

	added := 0
	for _, it := range o.OrderItems {
		line := s.cart.Add(ctx, cart.FromOrderItem(it), it.Quantity)
		if line.ID == "" {
			s.log.WithFields(logrus.Fields{"order.id": id, "book.id": it.BookID}).Warn("skipping unusable order item")
			continue
		}
		added += cart.ClampQuantity(it.Quantity)
	}
	if added > 0 {
		s.notifier.Notify(ctx, events.Message(events.LevelSuccess, fmt.Sprintf("%d item(s) added to your cart!", added)))
	}
	return added, nil
}
