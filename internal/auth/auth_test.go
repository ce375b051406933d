package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookvault/internal/clients"
	"bookvault/internal/events"
	"bookvault/internal/storage"
	"bookvault/internal/telemetry"
)

type fakeBackend struct {
	loginResp   *clients.AuthResponse
	loginErr    error
	registered  *clients.Registration
	validateErr error
	updated     clients.ProfileUpdate
}

func (f *fakeBackend) Login(_ context.Context, creds clients.Credentials) (*clients.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResp, nil
}

func (f *fakeBackend) Register(_ context.Context, reg clients.Registration) (*clients.AuthResponse, error) {
	f.registered = &reg
	return &clients.AuthResponse{Email: reg.Email}, nil
}

func (f *fakeBackend) Validate(context.Context, string) error { return f.validateErr }

func (f *fakeBackend) Profile(_ context.Context, id string) (*clients.User, error) {
	return &clients.User{ID: id, Email: "reader@example.com"}, nil
}

func (f *fakeBackend) UpdateProfile(_ context.Context, id string, in clients.ProfileUpdate) (*clients.User, error) {
	f.updated = in
	return &clients.User{ID: id, FirstName: in.FirstName, LastName: in.LastName}, nil
}

type fakeCart struct{ cleared int }

func (c *fakeCart) Clear(context.Context) { c.cleared++ }

type fixture struct {
	svc      Service
	store    *storage.MemoryStore
	backend  *fakeBackend
	cart     *fakeCart
	recorder *events.Recorder
}

func newFixture() *fixture {
	f := &fixture{
		store:    storage.NewMemoryStore(),
		backend:  &fakeBackend{},
		cart:     &fakeCart{},
		recorder: events.NewRecorder(0),
	}
	repo := NewSessionRepository(f.store, telemetry.Discard())
	f.svc = NewService(f.backend, repo, f.cart, f.recorder, telemetry.Discard())
	return f
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func TestRoleHierarchy(t *testing.T) {
	assert.True(t, RoleAdmin.Can(RoleSeller))
	assert.True(t, RoleAdmin.Can(RoleUser))
	assert.True(t, RoleSeller.Can(RoleUser))
	assert.False(t, RoleSeller.Can(RoleAdmin))
	assert.False(t, RoleUser.Can(RoleSeller))

	assert.Equal(t, RoleAdmin, ParseRole("ROLE_ADMIN"))
	assert.Equal(t, RoleSeller, ParseRole("seller"))
	assert.Equal(t, RoleUser, ParseRole(""))
	assert.Equal(t, RoleUser, ParseRole("OWNER"))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", Profile{FirstName: "Ada", LastName: "Lovelace", Email: "x@y"}.DisplayName())
	assert.Equal(t, "Ada", Profile{FirstName: "Ada"}.DisplayName())
	assert.Equal(t, "countess", Profile{Name: "countess", Email: "ada@example.com"}.DisplayName())
	assert.Equal(t, "ada", Profile{Email: "ada@example.com"}.DisplayName())
	assert.Equal(t, "User", Profile{}.DisplayName())
}

func TestLoginPersistsSession(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.backend.loginResp = &clients.AuthResponse{
		Token: "opaque-token", UserID: "u-1", Email: "ada@example.com",
		FirstName: "Ada", LastName: "Lovelace", Role: "SELLER",
	}

	p, err := f.svc.Login(ctx, clients.Credentials{Email: " ada@example.com ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.Identifier())

	tok, _, _ := f.store.Get(ctx, storage.KeyAuthToken)
	role, _, _ := f.store.Get(ctx, storage.KeyUserRole)
	profile, _, _ := f.store.Get(ctx, storage.KeyUserProfile)
	assert.Equal(t, "opaque-token", tok)
	assert.Equal(t, "SELLER", role)
	assert.Contains(t, profile, `"userId":"u-1"`)
	assert.NotContains(t, profile, "opaque-token")

	assert.True(t, f.svc.IsLoggedIn(ctx))
	assert.True(t, f.svc.IsSeller(ctx))
	assert.False(t, f.svc.IsAdmin(ctx))
	assert.Equal(t, "Ada Lovelace", f.svc.DisplayName(ctx))
}

func TestLoginFailures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Login(ctx, clients.Credentials{Email: "not-an-email"})
	var v *clients.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "Invalid email format", v.Fields["email"])
	assert.Equal(t, "Password is required", v.Fields["password"])

	f.backend.loginResp = &clients.AuthResponse{Email: "ada@example.com"}
	_, err = f.svc.Login(ctx, clients.Credentials{Email: "ada@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.False(t, f.svc.IsLoggedIn(ctx))

	f.backend.loginErr = &clients.Error{Kind: clients.KindForbidden, Reason: clients.ReasonTemporaryLock, Message: "locked"}
	_, err = f.svc.Login(ctx, clients.Credentials{Email: "ada@example.com", Password: "pw"})
	assert.ErrorIs(t, err, clients.ErrForbidden)
	_, ok, _ := f.store.Get(ctx, storage.KeyAuthToken)
	assert.False(t, ok)
}

func TestLogout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, storage.KeyAuthToken, "t"))
	require.NoError(t, f.store.Set(ctx, storage.KeyUserRole, "ADMIN"))
	require.NoError(t, f.store.Set(ctx, storage.KeyUserProfile, `{"userId":"u-1"}`))

	f.svc.Logout(ctx)

	for _, key := range []string{storage.KeyAuthToken, storage.KeyUserRole, storage.KeyUserProfile} {
		_, ok, _ := f.store.Get(ctx, key)
		assert.False(t, ok, key)
	}
	assert.Equal(t, 1, f.cart.cleared)
	evs := f.recorder.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.PageHome, evs[0].To)
	assert.False(t, f.svc.IsLoggedIn(ctx))
	assert.Equal(t, RoleUser, f.svc.Role(ctx))
}

func TestCorruptProfileReadsAsAbsent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, storage.KeyAuthToken, "t"))
	require.NoError(t, f.store.Set(ctx, storage.KeyUserProfile, `{"userId":`))

	assert.True(t, f.svc.IsLoggedIn(ctx))
	assert.Nil(t, f.svc.CurrentUser(ctx))
	assert.Equal(t, "User", f.svc.DisplayName(ctx))
	// No stored role means a plain user.
	assert.Equal(t, RoleUser, f.svc.Role(ctx))
}

func TestExpiredTokenReadsLoggedOut(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	repo := NewSessionRepository(f.store, telemetry.Discard())

	require.NoError(t, f.store.Set(ctx, storage.KeyAuthToken, signedToken(t, time.Now().Add(-time.Minute))))
	assert.False(t, f.svc.IsLoggedIn(ctx))
	assert.Empty(t, repo.Token(ctx))

	live := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, f.store.Set(ctx, storage.KeyAuthToken, live))
	assert.True(t, f.svc.IsLoggedIn(ctx))
	assert.Equal(t, live, repo.Token(ctx))
}

func TestRequire(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Require(ctx, RoleUser)
	assert.ErrorIs(t, err, ErrLoginRequired)

	require.NoError(t, f.store.Set(ctx, storage.KeyAuthToken, "t"))
	require.NoError(t, f.store.Set(ctx, storage.KeyUserRole, "USER"))
	_, err = f.svc.Require(ctx, RoleSeller)
	assert.ErrorIs(t, err, clients.ErrForbidden)

	require.NoError(t, f.store.Set(ctx, storage.KeyUserRole, "ADMIN"))
	_, err = f.svc.Require(ctx, RoleSeller)
	assert.NoError(t, err)
}

func TestValidateToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	ok, err := f.svc.ValidateToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.store.Set(ctx, storage.KeyAuthToken, "t"))
	ok, err = f.svc.ValidateToken(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	f.backend.validateErr = clients.ErrSessionExpired
	ok, err = f.svc.ValidateToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	f.backend.validateErr = clients.ErrNetwork
	_, err = f.svc.ValidateToken(ctx)
	assert.ErrorIs(t, err, clients.ErrNetwork)
}

func TestRegister(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, clients.Registration{Email: "a@b.co", Password: "12345", FirstName: "A", LastName: "B", Role: "ADMIN"})
	var v *clients.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "password")
	assert.Contains(t, v.Fields, "role")

	p, err := f.svc.Register(ctx, clients.Registration{Email: "a@b.co", Password: "123456", FirstName: "A", LastName: "B", Role: "seller"})
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, "SELLER", f.backend.registered.Role)
	assert.False(t, f.svc.IsLoggedIn(ctx))
}

func TestUpdateProfileRefreshesStoredProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, storage.KeyAuthToken, "t"))
	require.NoError(t, f.store.Set(ctx, storage.KeyUserProfile, `{"userId":"u-1","firstName":"Old"}`))

	_, err := f.svc.UpdateProfile(ctx, clients.ProfileUpdate{FirstName: "New", LastName: "Name"})
	require.NoError(t, err)
	assert.Equal(t, "New Name", f.svc.DisplayName(ctx))

	_, err = f.svc.UpdateProfile(ctx, clients.ProfileUpdate{Phone: strings.Repeat("9", 21)})
	var v *clients.ValidationError
	assert.True(t, errors.As(err, &v))
}

func TestHandlerLoginAndSession(t *testing.T) {
	f := newFixture()
	f.backend.loginResp = &clients.AuthResponse{Token: "t", UserID: "u-1", Email: "ada@example.com", Role: "ADMIN"}
	h := NewHandler(f.svc)

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, httptest.NewRequest(http.MethodPost, "/api/session/login",
		strings.NewReader(`{"email":"ada@example.com","password":"pw"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleSession(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"loggedIn":true,"role":"ADMIN","isAdmin":true,"isSeller":true,"displayName":"ada",
		"profile":{"userId":"u-1","email":"ada@example.com","role":"ADMIN"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.HandleLogin(rec, httptest.NewRequest(http.MethodGet, "/api/session/login", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	f.backend.loginResp = &clients.AuthResponse{Email: "ada@example.com"}
	rec = httptest.NewRecorder()
	h.HandleLogin(rec, httptest.NewRequest(http.MethodPost, "/api/session/login",
		strings.NewReader(`{"email":"ada@example.com","password":"pw"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"Login failed"`)
}
