// internal/checkout/implementation.go
package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bookvault/internal/auth"
	"bookvault/internal/clients"
	"bookvault/internal/events"
)

const msgOrderFailed = "Order processing failed. Please try again."

// service implements the Service interface. mu guards the state fields and
// is released while the order request is in flight.
type service struct {
	cart     Cart
	auth     Authenticator
	orders   OrderCreator
	notifier events.Notifier
	log      logrus.FieldLogger
	tracer   trace.Tracer

	mu      sync.Mutex
	state   State
	order   *clients.Order
	lastErr string
}

// NewService creates a new checkout orchestrator in the Idle state.
func NewService(c Cart, a Authenticator, orders OrderCreator, notifier events.Notifier, log logrus.FieldLogger) Service {
	return &service{
		cart:     c,
		auth:     a,
		orders:   orders,
		notifier: notifier,
		log:      log,
		tracer:   otel.Tracer("bookvault/checkout"),
		state:    StateIdle,
	}
}

// transition moves to the next state. Callers hold s.mu.
func (s *service) transition(to State) {
	s.log.WithFields(logrus.Fields{"checkout.from": s.state, "checkout.to": to}).Debug("checkout state")
	s.state = to
}

func (s *service) emit(ctx context.Context, evs ...events.Event) {
	for _, e := range evs {
		s.notifier.Notify(ctx, e)
	}
}

// StartCheckout opens the form when the cart has items and the user is
// signed in. On failure the orchestrator stays where it was.
func (s *service) StartCheckout(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateSubmitting:
		s.mu.Unlock()
		return ErrSubmissionInFlight
	case StateFormOpen, StateFailed:
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if len(s.cart.Items(ctx)) == 0 {
		s.emit(ctx, events.Message(events.LevelError, Message(ErrEmptyCart)))
		return ErrEmptyCart
	}
	if _, err := s.auth.Require(ctx, auth.RoleUser); err != nil {
		return s.loginRequired(ctx, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return ErrSubmissionInFlight
	}
	s.order = nil
	s.lastErr = ""
	s.transition(StateFormOpen)
	return nil
}

func (s *service) loginRequired(ctx context.Context, err error) error {
	if !errors.Is(err, ErrLoginRequired) {
		return err
	}
	s.emit(ctx,
		events.Message(events.LevelWarning, "You need to be logged in to checkout."),
		events.Navigate(events.PageLogin),
	)
	return ErrLoginRequired
}

// Submit validates the form, places the order and clears the cart. Only one
// submission may be in flight.
func (s *service) Submit(ctx context.Context, form Form) (*clients.Order, error) {
	s.mu.Lock()
	switch s.state {
	case StateSubmitting:
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	case StateIdle, StateConfirmed:
		s.mu.Unlock()
		return nil, ErrNotStarted
	}

	form = form.normalized()
	if err := form.Validate(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	session, err := s.auth.Require(ctx, auth.RoleUser)
	if err != nil {
		s.mu.Unlock()
		return nil, s.loginRequired(ctx, err)
	}
	items := s.cart.Items(ctx)
	if len(items) == 0 {
		s.mu.Unlock()
		s.emit(ctx, events.Message(events.LevelError, Message(ErrEmptyCart)))
		return nil, ErrEmptyCart
	}
	req := newOrderRequest(items, form)
	s.transition(StateSubmitting)
	s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "checkout.submit",
		trace.WithAttributes(
			attribute.Int("order.lines", len(req.Items)),
			attribute.String("order.payment_method", req.PaymentMethod),
		),
	)
	defer span.End()

	order, err := s.orders.Create(ctx, session.UserID(), req)
	if err == nil && order == nil {
		order = &clients.Order{}
	}

	s.mu.Lock()
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = msgOrderFailed
		}
		s.transition(StateFailed)
		s.lastErr = msg
		s.transition(StateFormOpen)
		s.mu.Unlock()

		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		s.log.WithError(err).Warn("order submission failed")
		s.emit(ctx, events.Message(events.LevelError, msg))
		return nil, err
	}
	s.order = order
	s.lastErr = ""
	s.transition(StateConfirmed)
	s.mu.Unlock()

	s.cart.Clear(ctx)
	span.SetAttributes(attribute.String("order.id", order.Reference()))
	s.log.WithField("order.id", order.Reference()).Info("order placed")
	s.emit(ctx, events.OrderConfirmed(order.Reference()))
	return order, nil
}

// Cancel closes an open form.
func (s *service) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateSubmitting:
		return ErrSubmissionInFlight
	case StateFormOpen, StateFailed:
		s.lastErr = ""
		s.transition(StateIdle)
	}
	return nil
}

// Reset makes a confirmed checkout ready for the next one.
func (s *service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateSubmitting:
		return ErrSubmissionInFlight
	case StateConfirmed:
		s.order = nil
		s.transition(StateIdle)
	}
	return nil
}

func (s *service) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{State: s.state, Order: s.order, LastError: s.lastErr}
	if s.order != nil {
		snap.OrderID = s.order.Reference()
	}
	return snap
}
