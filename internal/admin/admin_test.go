package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookvault/internal/auth"
	"bookvault/internal/clients"
	"bookvault/internal/events"
	"bookvault/internal/telemetry"
)

type fakeAccounts struct {
	mu        sync.Mutex
	statsErr  error
	usersErr  error
	calls     []string
	failWrite error
}

func (f *fakeAccounts) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAccounts) Stats(context.Context) (*clients.DashboardStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &clients.DashboardStats{TotalUsers: 7, TotalSellers: 2}, nil
}

func (f *fakeAccounts) Users(_ context.Context, page, size int) (*clients.Page[clients.User], error) {
	f.record("users")
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return &clients.Page[clients.User]{Content: []clients.User{{ID: "u1"}, {ID: "u2"}}, Page: page, Size: size}, nil
}

func (f *fakeAccounts) AllUsers(context.Context) ([]clients.User, error) {
	return []clients.User{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}}, nil
}

func (f *fakeAccounts) Sellers(context.Context, int, int) (*clients.Page[clients.User], error) {
	return &clients.Page[clients.User]{Content: []clients.User{{ID: "s1", Role: "SELLER"}}}, nil
}

func (f *fakeAccounts) SetUserStatus(_ context.Context, id, action string) error {
	f.record("status:" + id + ":" + action)
	return f.failWrite
}

func (f *fakeAccounts) SetUserRole(_ context.Context, id, role string) error {
	f.record("role:" + id + ":" + role)
	return f.failWrite
}

func (f *fakeAccounts) ResetPassword(_ context.Context, id string) (map[string]string, error) {
	f.record("reset:" + id)
	return map[string]string{"message": "sent"}, f.failWrite
}

func (f *fakeAccounts) VerifyUser(_ context.Context, id string) error {
	f.record("verify:" + id)
	return f.failWrite
}

func (f *fakeAccounts) UpdateUser(_ context.Context, id string, in clients.UserUpdate) (*clients.User, error) {
	f.record("update:" + id + ":" + in.Role)
	return &clients.User{ID: id, Role: in.Role}, f.failWrite
}

func (f *fakeAccounts) DeleteUser(_ context.Context, id string) error {
	f.record("delete:" + id)
	return f.failWrite
}

func (f *fakeAccounts) ToggleSeller(_ context.Context, id string) error {
	f.record("toggle:" + id)
	return f.failWrite
}

func (f *fakeAccounts) DeleteSeller(_ context.Context, id string) error {
	f.record("delete-seller:" + id)
	return f.failWrite
}

type fakeOrders struct {
	allErr  error
	updated string
}

func (f *fakeOrders) All(context.Context, int, int) (*clients.Page[clients.Order], error) {
	if f.allErr != nil {
		return nil, f.allErr
	}
	return &clients.Page[clients.Order]{Content: []clients.Order{{ID: "o1"}}}, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id, status string) (*clients.Order, error) {
	f.updated = id + ":" + status
	return &clients.Order{ID: id, Status: status}, nil
}

type fakeBooks struct{ seller string }

func (f *fakeBooks) BySeller(_ context.Context, sellerID string) ([]clients.Book, error) {
	f.seller = sellerID
	return []clients.Book{
		{ID: "b1", IsActive: true, StockQuantity: 3, Price: decimal.RequireFromString("10.00")},
		{ID: "b2", IsActive: true, StockQuantity: 0, Price: decimal.RequireFromString("99.00")},
		{ID: "b3", IsActive: false, StockQuantity: 2, Price: decimal.RequireFromString("2.50")},
	}, nil
}

type fakeAuth struct {
	role     auth.Role
	loggedIn bool
}

func (f fakeAuth) Require(_ context.Context, need auth.Role) (auth.Session, error) {
	if !f.loggedIn {
		return auth.Session{}, auth.ErrLoginRequired
	}
	if !f.role.Can(need) {
		return auth.Session{}, clients.Forbidden("")
	}
	return auth.Session{Token: "t", Role: f.role, Profile: &auth.Profile{ID: "seller-9", FirstName: "Ada", LastName: "Byron"}}, nil
}

type fixture struct {
	svc      Service
	accounts *fakeAccounts
	orders   *fakeOrders
	books    *fakeBooks
	rec      *events.Recorder
}

func newFixture(role auth.Role) *fixture {
	f := &fixture{
		accounts: &fakeAccounts{},
		orders:   &fakeOrders{},
		books:    &fakeBooks{},
		rec:      events.NewRecorder(0),
	}
	f.svc = NewService(f.accounts, f.orders, f.books, fakeAuth{role: role, loggedIn: true}, f.rec, telemetry.Discard(), 0)
	return f
}

func lastMessage(t *testing.T, rec *events.Recorder) events.Event {
	t.Helper()
	evs := rec.Events()
	require.NotEmpty(t, evs)
	return evs[len(evs)-1]
}

func TestDashboard(t *testing.T) {
	f := newFixture(auth.RoleAdmin)
	d, err := f.svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d.Stats)
	assert.EqualValues(t, 7, d.Stats.TotalUsers)
	assert.Len(t, d.Users, 2)
	assert.Len(t, d.Sellers, 1)
	assert.Len(t, d.Orders, 1)
	assert.Empty(t, d.Unavailable)
}

func TestDashboardToleratesSectionFailures(t *testing.T) {
	f := newFixture(auth.RoleAdmin)
	f.accounts.statsErr = clients.ErrServerError
	f.orders.allErr = clients.ErrNetwork

	d, err := f.svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Nil(t, d.Stats)
	assert.Equal(t, []string{"orders", "stats"}, d.Unavailable)
	assert.Empty(t, d.Orders)
	assert.Len(t, d.Users, 2)
}

func TestDashboardAbortsOnExpiredSession(t *testing.T) {
	f := newFixture(auth.RoleAdmin)
	f.accounts.usersErr = clients.ErrSessionExpired

	_, err := f.svc.Dashboard(context.Background())
	assert.ErrorIs(t, err, clients.ErrSessionExpired)
}

func TestAdminOnly(t *testing.T) {
	ctx := context.Background()
	for _, role := range []auth.Role{auth.RoleUser, auth.RoleSeller} {
		f := newFixture(role)
		_, err := f.svc.Dashboard(ctx)
		assert.ErrorIs(t, err, clients.ErrForbidden)
		assert.ErrorIs(t, f.svc.DeleteUser(ctx, "u1"), clients.ErrForbidden)
		_, err = f.svc.SetOrderStatus(ctx, "o1", "SHIPPED")
		assert.ErrorIs(t, err, clients.ErrForbidden)
		assert.Empty(t, f.accounts.calls)
		assert.Empty(t, f.orders.updated)
	}

	svc := NewService(&fakeAccounts{}, &fakeOrders{}, &fakeBooks{}, fakeAuth{}, events.Discard{}, telemetry.Discard(), 0)
	_, err := svc.Stats(ctx)
	assert.ErrorIs(t, err, clients.ErrLoginRequired)
}

func TestSetUserStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(auth.RoleAdmin)

	require.NoError(t, f.svc.SetUserStatus(ctx, "u1", " suspend "))
	assert.Equal(t, "User has been suspended successfully.", lastMessage(t, f.rec).Message)
	require.NoError(t, f.svc.SetUserStatus(ctx, "u1", "ACTIVATE"))
	assert.Equal(t, "User has been activated successfully.", lastMessage(t, f.rec).Message)
	assert.Equal(t, []string{"status:u1:SUSPEND", "status:u1:ACTIVATE"}, f.accounts.calls)

	err := f.svc.SetUserStatus(ctx, "u1", "ban")
	assert.ErrorIs(t, err, clients.ErrValidation)
	assert.Len(t, f.accounts.calls, 2)
}

func TestSetUserRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(auth.RoleAdmin)

	require.NoError(t, f.svc.SetUserRole(ctx, "u1", "role_seller"))
	assert.Equal(t, []string{"role:u1:SELLER"}, f.accounts.calls)
	assert.ErrorIs(t, f.svc.SetUserRole(ctx, "u1", "ROOT"), clients.ErrValidation)

	_, err := f.svc.UpdateUser(ctx, "u2", clients.UserUpdate{Role: "wizard"})
	assert.ErrorIs(t, err, clients.ErrValidation)
	u, err := f.svc.UpdateUser(ctx, "u2", clients.UserUpdate{Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", u.Role)
}

func TestWriteFailureNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(auth.RoleAdmin)
	f.accounts.failWrite = clients.RequestFailed("Cannot delete", 409)

	err := f.svc.DeleteSeller(ctx, "s1")
	require.Error(t, err)
	msg := lastMessage(t, f.rec)
	assert.Equal(t, events.LevelError, msg.Level)
	assert.Equal(t, "Failed to delete seller.", msg.Message)

	f.accounts.failWrite = nil
	_, err = f.svc.ResetPassword(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Password reset email sent successfully.", lastMessage(t, f.rec).Message)
}

func TestSetOrderStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(auth.RoleAdmin)

	o, err := f.svc.SetOrderStatus(ctx, "o1", "out_for_delivery")
	require.NoError(t, err)
	assert.Equal(t, StatusOutForDelivery, o.Status)
	assert.Equal(t, "o1:OUT_FOR_DELIVERY", f.orders.updated)
	assert.Equal(t, "Order status updated to out for delivery.", lastMessage(t, f.rec).Message)

	_, err = f.svc.SetOrderStatus(ctx, "o1", "LOST")
	assert.ErrorIs(t, err, clients.ErrValidation)
}

func TestSellerDashboard(t *testing.T) {
	f := newFixture(auth.RoleSeller)
	d, err := f.svc.SellerDashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "seller-9", f.books.seller)
	assert.Equal(t, "Ada Byron", d.Seller)
	assert.Equal(t, 3, d.Stats.TotalBooks)
	assert.Equal(t, 2, d.Stats.ActiveBooks)
	assert.Equal(t, 1, d.Stats.OutOfStock)
	assert.True(t, decimal.RequireFromString("35.00").Equal(d.Stats.InventoryValue))

	_, err = newFixture(auth.RoleUser).svc.SellerDashboard(context.Background())
	assert.ErrorIs(t, err, clients.ErrForbidden)
	assert.Contains(t, err.Error(), "Seller privileges required")
}

func TestHandler(t *testing.T) {
	f := newFixture(auth.RoleAdmin)
	h := NewHandler(f.svc)

	r := chi.NewRouter()
	r.Get("/admin/dashboard", h.HandleDashboard)
	r.Get("/admin/users", h.HandleUsers)
	r.Put("/admin/users/{id}/status", h.HandleUserStatus)
	r.Delete("/admin/users/{id}", h.HandleUser)
	r.Put("/admin/orders/{id}/status", h.HandleOrderStatus)

	do := func(method, target, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(method, target, strings.NewReader(body)))
		return rr
	}

	rr := do(http.MethodGet, "/admin/dashboard", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"totalUsers":7`)

	rr = do(http.MethodGet, "/admin/users?all=true", "")
	assert.Contains(t, rr.Body.String(), `"u3"`)

	assert.Equal(t, http.StatusNoContent, do(http.MethodPut, "/admin/users/u1/status", `{"action":"SUSPEND"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPut, "/admin/users/u1/status", `{"action":"nope"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/admin/users/u1", "").Code)

	rr = do(http.MethodPut, "/admin/orders/o1/status", `{"status":"shipped"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"SHIPPED"`)
}
