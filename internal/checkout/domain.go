// internal/checkout/domain.go
package checkout

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"bookvault/internal/auth"
	"bookvault/internal/cart"
	"bookvault/internal/clients"
)

// State is a step of the checkout flow.
type State string

const (
	StateIdle       State = "idle"
	StateFormOpen   State = "form_open"
	StateSubmitting State = "submitting"
	StateConfirmed  State = "confirmed"
	StateFailed     State = "failed"
)

const (
	DefaultCountry       = "United States"
	DefaultPaymentMethod = "CREDIT_CARD"
)

var (
	ErrEmptyCart          = errors.New("checkout: cart is empty")
	ErrLoginRequired      = auth.ErrLoginRequired
	ErrSubmissionInFlight = errors.New("checkout: submission in flight")
	ErrNotStarted         = errors.New("checkout: not started")
)

// Message returns the text shown to the user for err.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "Your cart is empty!"
	case errors.Is(err, ErrSubmissionInFlight):
		return "Your order is already being submitted."
	case errors.Is(err, ErrNotStarted):
		return "Checkout has not been started."
	}
	return err.Error()
}

// Form is the shipping and payment form. Card details are checked but never
// leave the storefront.
type Form struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Address       string `json:"address"`
	City          string `json:"city"`
	ZipCode       string `json:"zipCode"`
	Country       string `json:"country"`
	PaymentMethod string `json:"paymentMethod"`
	CardNumber    string `json:"cardNumber"`
	ExpiryDate    string `json:"expiryDate"`
	CVV           string `json:"cvv"`
	Notes         string `json:"notes"`
}

var (
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

// normalized trims every field and fills in the defaults.
func (f Form) normalized() Form {
	for _, p := range []*string{
		&f.FirstName, &f.LastName, &f.Address, &f.City, &f.ZipCode, &f.Country,
		&f.PaymentMethod, &f.CardNumber, &f.ExpiryDate, &f.CVV, &f.Notes,
	} {
		*p = strings.TrimSpace(*p)
	}
	if f.Country == "" {
		f.Country = DefaultCountry
	}
	if f.PaymentMethod == "" {
		f.PaymentMethod = DefaultPaymentMethod
	}
	f.PaymentMethod = strings.ToUpper(f.PaymentMethod)
	return f
}

func paysByCard(method string) bool {
	return method == "CREDIT_CARD" || method == "DEBIT_CARD"
}

func cardDigits(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(number)
}

// Validate reports every missing or malformed field. Call it on a normalized
// form.
func (f Form) Validate() error {
	v := clients.NewValidationError()
	required := []struct{ field, value, msg string }{
		{"firstName", f.FirstName, "First name is required"},
		{"lastName", f.LastName, "Last name is required"},
		{"address", f.Address, "Address is required"},
		{"city", f.City, "City is required"},
		{"zipCode", f.ZipCode, "ZIP code is required"},
	}
	for _, r := range required {
		if r.value == "" {
			v.Add(r.field, r.msg)
		}
	}
	if !slices.Contains(clients.PaymentMethods, f.PaymentMethod) {
		v.Add("paymentMethod", "Unsupported payment method")
	}

	if paysByCard(f.PaymentMethod) {
		digits := cardDigits(f.CardNumber)
		switch {
		case digits == "":
			v.Add("cardNumber", "Card number is required")
		case len(digits) < 13 || len(digits) > 19 || strings.Trim(digits, "0123456789") != "":
			v.Add("cardNumber", "Invalid card number")
		}
		switch {
		case f.ExpiryDate == "":
			v.Add("expiryDate", "Expiry date is required")
		case !expiryPattern.MatchString(f.ExpiryDate):
			v.Add("expiryDate", "Expiry date must be MM/YY")
		}
		switch {
		case f.CVV == "":
			v.Add("cvv", "CVV is required")
		case !cvvPattern.MatchString(f.CVV):
			v.Add("cvv", "Invalid CVV")
		}
	}
	return v.OrNil()
}

// newOrderRequest assembles the order-creation body from the cart and a
// normalized form.
func newOrderRequest(items []cart.LineItem, f Form) clients.OrderRequest {
	lines := make([]clients.OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, clients.OrderLine{
			BookID:    it.ID,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
		})
	}
	return clients.OrderRequest{
		Items: lines,
		ShippingAddress: clients.ShippingAddress{
			FullName:     strings.TrimSpace(f.FirstName + " " + f.LastName),
			AddressLine1: f.Address,
			City:         f.City,
			PostalCode:   f.ZipCode,
			Country:      f.Country,
		},
		PaymentMethod: f.PaymentMethod,
		Notes:         f.Notes,
	}
}

// Snapshot is the orchestrator's state as shown to the UI.
type Snapshot struct {
	State     State          `json:"state"`
	OrderID   string         `json:"orderId,omitempty"`
	Order     *clients.Order `json:"order,omitempty"`
	LastError string         `json:"lastError,omitempty"`
}
