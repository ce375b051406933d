// internal/admin/domain.go
package admin

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"bookvault/internal/clients"
)

// User status actions understood by the auth service.
const (
	ActionActivate = "ACTIVATE"
	ActionSuspend  = "SUSPEND"
)

const StatusOutForDelivery = "OUT_FOR_DELIVERY"

var orderStatuses = []string{
	clients.StatusPending, clients.StatusConfirmed, clients.StatusProcessing,
	clients.StatusShipped, StatusOutForDelivery, clients.StatusDelivered,
	clients.StatusCancelled, clients.StatusRefunded,
}

// Dashboard is the admin overview. Sections that failed to load are named
// in Unavailable and left empty.
type Dashboard struct {
	Stats       *clients.DashboardStats `json:"stats"`
	Users       []clients.User          `json:"users"`
	Sellers     []clients.User          `json:"sellers"`
	Orders      []clients.Order         `json:"orders"`
	Unavailable []string                `json:"unavailable,omitempty"`
}

type SellerStats struct {
	TotalBooks     int             `json:"totalBooks"`
	ActiveBooks    int             `json:"activeBooks"`
	OutOfStock     int             `json:"outOfStock"`
	InventoryValue decimal.Decimal `json:"inventoryValue"`
}

type SellerDashboard struct {
	Seller string         `json:"seller"`
	Books  []clients.Book `json:"books"`
	Stats  SellerStats    `json:"stats"`
}

func sellerStats(books []clients.Book) SellerStats {
	st := SellerStats{TotalBooks: len(books), InventoryValue: decimal.Zero}
	for _, b := range books {
		if b.IsActive {
			st.ActiveBooks++
		}
		if b.StockQuantity <= 0 {
			st.OutOfStock++
			continue
		}
		st.InventoryValue = st.InventoryValue.Add(b.Price.Mul(decimal.NewFromInt(int64(b.StockQuantity))))
	}
	return st
}

func normalizeAction(action string) (string, bool) {
	a := strings.ToUpper(strings.TrimSpace(action))
	return a, a == ActionActivate || a == ActionSuspend
}

func normalizeRole(role string) (string, bool) {
	r := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(role)), "ROLE_")
	return r, r == "USER" || r == "SELLER" || r == "ADMIN"
}

func normalizeOrderStatus(status string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(status))
	return s, slices.Contains(orderStatuses, s)
}

func invalid(field, msg string) error {
	v := clients.NewValidationError()
	v.Add(field, msg)
	return v
}
