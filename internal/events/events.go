// internal/events/events.go
package events

import (
	"context"
	"strings"
	"time"
)

// Kind identifies what the UI layer should do with an event.
type Kind string

const (
	KindCartChanged    Kind = "cart_changed"
	KindNavigate       Kind = "navigate"
	KindNotify         Kind = "notify"
	KindOrderConfirmed Kind = "order_confirmed"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Pages the core asks the UI to navigate to.
const (
	PageLogin = "login.html"
	PageHome  = "index.html"
)

// Event is a render, navigation or notification request for the UI layer.
type Event struct {
	Kind      Kind      `json:"kind"`
	To        string    `json:"to,omitempty"`
	Level     Level     `json:"level,omitempty"`
	Message   string    `json:"message,omitempty"`
	OrderID   string    `json:"order_id,omitempty"`
	ItemCount int       `json:"item_count,omitempty"`
	At        time.Time `json:"at"`
}

// Notifier receives UI events. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

func CartChanged(itemCount int) Event {
	return Event{Kind: KindCartChanged, ItemCount: itemCount, At: time.Now().UTC()}
}

func Navigate(to string) Event {
	return Event{Kind: KindNavigate, To: to, At: time.Now().UTC()}
}

func Message(level Level, msg string) Event {
	return Event{Kind: KindNotify, Level: level, Message: msg, At: time.Now().UTC()}
}

func OrderConfirmed(orderID string) Event {
	return Event{
		Kind:    KindOrderConfirmed,
		OrderID: orderID,
		Level:   LevelSuccess,
		Message: "Order placed successfully! Order ID: " + orderID,
		At:      time.Now().UTC(),
	}
}

type pageKey struct{}

// WithPage records the page the user is currently on.
func WithPage(ctx context.Context, page string) context.Context {
	return context.WithValue(ctx, pageKey{}, page)
}

func PageFrom(ctx context.Context) string {
	page, _ := ctx.Value(pageKey{}).(string)
	return page
}

// IsAuthPage reports whether page is one a session expiry should not redirect
// away from.
func IsAuthPage(page string) bool {
	p := strings.ToLower(page)
	return strings.Contains(p, "login") || strings.Contains(p, "register") || strings.Contains(p, "index")
}

// Discard drops every event.
type Discard struct{}

func (Discard) Notify(context.Context, Event) {}

// Multi fans an event out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, e)
		}
	}
}
