package checkout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookvault/internal/auth"
	"bookvault/internal/cart"
	"bookvault/internal/clients"
	"bookvault/internal/events"
	"bookvault/internal/storage"
	"bookvault/internal/telemetry"
)

type fakeAuth struct {
	loggedIn bool
}

func (f *fakeAuth) Require(_ context.Context, _ auth.Role) (auth.Session, error) {
	if !f.loggedIn {
		return auth.Session{}, auth.ErrLoginRequired
	}
	return auth.Session{Token: "t", Role: auth.RoleUser, Profile: &auth.Profile{UserID: "u-1"}}, nil
}

type fakeOrders struct {
	mu      sync.Mutex
	calls   int
	userID  string
	req     clients.OrderRequest
	order   *clients.Order
	err     error
	release chan struct{}
	entered chan struct{}
}

func (f *fakeOrders) Create(ctx context.Context, userID string, req clients.OrderRequest) (*clients.Order, error) {
	f.mu.Lock()
	f.calls++
	f.userID = userID
	f.req = req
	f.mu.Unlock()
	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		<-f.release
	}
	return f.order, f.err
}

type fixture struct {
	svc    Service
	cart   cart.Service
	auth   *fakeAuth
	orders *fakeOrders
	rec    *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := events.NewRecorder(0)
	c := cart.NewService(storage.NewMemoryStore(), events.Discard{}, telemetry.Discard())
	f := &fixture{
		cart:   c,
		auth:   &fakeAuth{loggedIn: true},
		orders: &fakeOrders{order: &clients.Order{ID: "ord-42"}},
		rec:    rec,
	}
	f.svc = NewService(c, f.auth, f.orders, rec, telemetry.Discard())
	return f
}

func (f *fixture) fill(ctx context.Context) {
	f.cart.Add(ctx, cart.LineItem{ID: "b1", Title: "Dune", Author: "Herbert", Price: decimal.RequireFromString("10.50")}, 2)
	f.cart.Add(ctx, cart.LineItem{ID: "b2", Title: "Emma", Author: "Austen", Price: decimal.NewFromInt(4)}, 1)
}

func validForm() Form {
	return Form{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Address:    "12 Analytical Way",
		City:       "London",
		ZipCode:    "N1 9GU",
		CardNumber: "4111 1111 1111 1111",
		ExpiryDate: "09/29",
		CVV:        "123",
	}
}

func TestStartCheckoutEmptyCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.svc.StartCheckout(ctx)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, StateIdle, f.svc.State().State)

	evs := f.rec.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.LevelError, evs[0].Level)
	assert.Equal(t, "Your cart is empty!", evs[0].Message)
}

func TestStartCheckoutRequiresLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fill(ctx)
	f.auth.loggedIn = false

	err := f.svc.StartCheckout(ctx)
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Equal(t, StateIdle, f.svc.State().State)

	kinds := f.rec.Kinds()
	require.NotEmpty(t, kinds)
	last := f.rec.Events()[len(kinds)-1]
	assert.Equal(t, events.KindNavigate, last.Kind)
	assert.Equal(t, events.PageLogin, last.To)
}

func TestStartCheckoutOpensForm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fill(ctx)

	require.NoError(t, f.svc.StartCheckout(ctx))
	assert.Equal(t, StateFormOpen, f.svc.State().State)
	require.NoError(t, f.svc.StartCheckout(ctx))
	assert.Equal(t, StateFormOpen, f.svc.State().State)
}

func TestSubmitBeforeStart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Submit(context.Background(), validForm())
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.Zero(t, f.orders.calls)
}

func TestSubmitPlacesOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fill(ctx)
	require.NoError(t, f.svc.StartCheckout(ctx))

	order, err := f.svc.Submit(ctx, validForm())
	require.NoError(t, err)
	assert.Equal(t, "ord-42", order.ID)

	assert.Equal(t, "u-1", f.orders.userID)
	req := f.orders.req
	require.Len(t, req.Items, 2)
	assert.Equal(t, "b1", req.Items[0].BookID)
	assert.Equal(t, 2, req.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("10.50").Equal(req.Items[0].UnitPrice))
	assert.Equal(t, "Ada Lovelace", req.ShippingAddress.FullName)
	assert.Equal(t, "12 Analytical Way", req.ShippingAddress.AddressLine1)
	assert.Equal(t, "N1 9GU", req.ShippingAddress.PostalCode)
	assert.Equal(t, DefaultCountry, req.ShippingAddress.Country)
	assert.Equal(t, DefaultPaymentMethod, req.PaymentMethod)

	assert.Empty(t, f.cart.Items(ctx))
	snap := f.svc.State()
	assert.Equal(t, StateConfirmed, snap.State)
	assert.Equal(t, "ord-42", snap.OrderID)

	evs := f.rec.Events()
	last := evs[len(evs)-1]
	assert.Equal(t, events.KindOrderConfirmed, last.Kind)
	assert.Equal(t, "ord-42", last.OrderID)

	require.NoError(t, f.svc.Reset(ctx))
	assert.Equal(t, StateIdle, f.svc.State().State)
}

func TestSubmitOrderReference(t *testing.T) {
	tests := []struct {
		name  string
		order *clients.Order
		want  string
	}{
		{"id", &clients.Order{ID: "a"}, "a"},
		{"orderId", &clients.Order{OrderID: "b"}, "b"},
		{"neither", &clients.Order{}, "N/A"},
		{"nil body", nil, "N/A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			f.orders.order = tt.order
			f.fill(ctx)
			require.NoError(t, f.svc.StartCheckout(ctx))

			_, err := f.svc.Submit(ctx, validForm())
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.svc.State().OrderID)
		})
	}
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fill(ctx)
	require.NoError(t, f.svc.StartCheckout(ctx))

	form := validForm()
	form.City = "   "
	form.CardNumber = "12"
	form.ExpiryDate = "13/30"
	_, err := f.svc.Submit(ctx, form)

	var v *clients.ValidationError
	require.ErrorAs(t, err, &v)
	assert.ErrorIs(t, err, clients.ErrValidation)
	assert.Equal(t, "City is required", v.Fields["city"])
	assert.Equal(t, "Invalid card number", v.Fields["cardNumber"])
	assert.Equal(t, "Expiry date must be MM/YY", v.Fields["expiryDate"])
	assert.NotContains(t, v.Fields, "cvv")
	assert.Equal(t, StateFormOpen, f.svc.State().State)
	assert.Zero(t, f.orders.calls)
}

func TestFormValidatePaymentMethods(t *testing.T) {
	form := validForm()
	form.PaymentMethod = "paypal"
	form.CardNumber, form.ExpiryDate, form.CVV = "", "", ""
	assert.NoError(t, form.normalized().Validate())

	form.PaymentMethod = "IOU"
	err := form.normalized().Validate()
	var v *clients.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "paymentMethod")
}

func TestSubmitRejectsEmptiedCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fill(ctx)
	require.NoError(t, f.svc.StartCheckout(ctx))
	f.cart.Clear(ctx)

	_, err := f.svc.Submit(ctx, validForm())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.orders.calls)
	assert.Equal(t, StateFormOpen, f.svc.State().State)
}

func TestSubmitFailureReturnsToForm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fill(ctx)
	f.orders.err = clients.RequestFailed("Insufficient stock", 400)
	require.NoError(t, f.svc.StartCheckout(ctx))

	_, err := f.svc.Submit(ctx, validForm())
	require.Error(t, err)
	assert.Equal(t, clients.KindRequestFailed, clients.KindOf(err))

	snap := f.svc.State()
	assert.Equal(t, StateFormOpen, snap.State)
	assert.Equal(t, "Insufficient stock (400)", snap.LastError)
	assert.Len(t, f.cart.Items(ctx), 2)

	evs := f.rec.Events()
	last := evs[len(evs)-1]
	assert.Equal(t, events.LevelError, last.Level)
	assert.Equal(t, "Insufficient stock (400)", last.Message)

	f.orders.err = nil
	_, err = f.svc.Submit(ctx, validForm())
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, f.svc.State().State)
}

func TestSubmitSessionLost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fill(ctx)
	require.NoError(t, f.svc.StartCheckout(ctx))
	f.auth.loggedIn = false

	_, err := f.svc.Submit(ctx, validForm())
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Zero(t, f.orders.calls)
}

func TestSingleSubmissionInFlight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fill(ctx)
	f.orders.release = make(chan struct{})
	f.orders.entered = make(chan struct{})
	require.NoError(t, f.svc.StartCheckout(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Submit(ctx, validForm())
		done <- err
	}()
	<-f.orders.entered

	assert.Equal(t, StateSubmitting, f.svc.State().State)
	_, err := f.svc.Submit(ctx, validForm())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.ErrorIs(t, f.svc.Cancel(ctx), ErrSubmissionInFlight)
	assert.ErrorIs(t, f.svc.StartCheckout(ctx), ErrSubmissionInFlight)

	close(f.orders.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.orders.calls)
	assert.Equal(t, StateConfirmed, f.svc.State().State)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fill(ctx)
	require.NoError(t, f.svc.StartCheckout(ctx))

	require.NoError(t, f.svc.Cancel(ctx))
	assert.Equal(t, StateIdle, f.svc.State().State)
	assert.Len(t, f.cart.Items(ctx), 2)
}

type errOnlyOrders struct{}

func (errOnlyOrders) Create(context.Context, string, clients.OrderRequest) (*clients.Order, error) {
	return nil, errors.New("")
}

func TestSubmitFallbackMessage(t *testing.T) {
	ctx := context.Background()
	rec := events.NewRecorder(0)
	c := cart.NewService(storage.NewMemoryStore(), events.Discard{}, telemetry.Discard())
	c.Add(ctx, cart.LineItem{ID: "b1", Title: "Dune", Author: "Herbert", Price: decimal.NewFromInt(1)}, 1)
	svc := NewService(c, &fakeAuth{loggedIn: true}, errOnlyOrders{}, rec, telemetry.Discard())
	require.NoError(t, svc.StartCheckout(ctx))

	_, err := svc.Submit(ctx, validForm())
	require.Error(t, err)
	assert.Equal(t, msgOrderFailed, svc.State().LastError)
}

func TestHandler(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h := NewHandler(f.svc)

	rr := httptest.NewRecorder()
	h.HandleStart(rr, httptest.NewRequest(http.MethodPost, "/api/checkout/start", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Your cart is empty!")

	rr = httptest.NewRecorder()
	h.HandleSubmit(rr, httptest.NewRequest(http.MethodPost, "/api/checkout/submit", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "Checkout has not been started.")

	f.fill(ctx)
	rr = httptest.NewRecorder()
	h.HandleStart(rr, httptest.NewRequest(http.MethodPost, "/api/checkout/start", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"state":"form_open"`)

	rr = httptest.NewRecorder()
	h.HandleSubmit(rr, httptest.NewRequest(http.MethodPost, "/api/checkout/submit", strings.NewReader(`{"firstName":"Ada"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"lastName":"Last name is required"`)

	body := `{"firstName":"Ada","lastName":"Lovelace","address":"1 Way","city":"London","zipCode":"N1","paymentMethod":"PAYPAL"}`
	rr = httptest.NewRecorder()
	h.HandleSubmit(rr, httptest.NewRequest(http.MethodPost, "/api/checkout/submit", strings.NewReader(body)))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"ord-42"`)

	rr = httptest.NewRecorder()
	h.HandleState(rr, httptest.NewRequest(http.MethodGet, "/api/checkout", nil))
	assert.Contains(t, rr.Body.String(), `"state":"confirmed"`)

	rr = httptest.NewRecorder()
	h.HandleState(rr, httptest.NewRequest(http.MethodPost, "/api/checkout", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
