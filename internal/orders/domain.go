// internal/orders/domain.go
package orders

import (
	"errors"

	"bookvault/internal/clients"
)

const DefaultCancelReason = "User requested cancellation"

var ErrNoItems = errors.New("orders: order has no items")

// noItemsMessage is shown when an order to repeat has no items.
const noItemsMessage = "No items found in this order."

// View is an order as shown in the order history.
type View struct {
	clients.Order
	Cancellable bool `json:"cancellable"`
}

// Cancellable reports whether the user may still cancel o.
func Cancellable(o clients.Order) bool {
	return o.Status == clients.StatusPending
}

func newView(o clients.Order) View {
	return View{Order: o, Cancellable: Cancellable(o)}
}
