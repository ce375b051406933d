package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookvault/internal/config"
	"bookvault/internal/events"
	"bookvault/internal/telemetry"
)

type fakeSession struct {
	mu     sync.Mutex
	token  string
	purged int
}

func (f *fakeSession) Token(context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeSession) Purge(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.purged++
	return nil
}

type harness struct {
	client   *Client
	session  *fakeSession
	recorder *events.Recorder
}

// newHarness points every service at the same handler.
func newHarness(t *testing.T, h http.HandlerFunc, opts Options) *harness {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return newHarnessFor(t, config.Services{
		AuthURL: srv.URL, CatalogURL: srv.URL, OrderURL: srv.URL, DefaultURL: srv.URL,
	}, opts)
}

func newHarnessFor(t *testing.T, services config.Services, opts Options) *harness {
	t.Helper()
	session := &fakeSession{token: "tok-123"}
	rec := events.NewRecorder(0)
	opts.Notifier = rec
	opts.Logger = telemetry.Discard()
	return &harness{
		client:   New(NewRouter(services), session, opts),
		session:  session,
		recorder: rec,
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func TestServiceFor(t *testing.T) {
	cases := map[string]Service{
		"/auth/login":              ServiceAuth,
		"/auth/admin/users?page=0": ServiceAuth,
		"/admin/orders":            ServiceAuth,
		"/admin/users/1/status":    ServiceAuth,
		"/books":                   ServiceCatalog,
		"/books/search?q=/orders":  ServiceCatalog,
		"/orders":                  ServiceOrders,
		"/orders/my-orders":        ServiceOrders,
		"/health":                  ServiceDefault,
		"/search?next=/auth/login": ServiceDefault,
	}
	for endpoint, want := range cases {
		assert.Equal(t, want, ServiceFor(endpoint), endpoint)
	}
}

func TestRoutesToServiceBaseURL(t *testing.T) {
	hits := map[string]*int32{"auth": new(int32), "books": new(int32), "orders": new(int32)}
	serve := func(name string) *httptest.Server {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(hits[name], 1)
			writeJSON(w, 200, `{}`)
		}))
		t.Cleanup(srv.Close)
		return srv
	}
	auth, books, orders := serve("auth"), serve("books"), serve("orders")

	h := newHarnessFor(t, config.Services{
		AuthURL: auth.URL + "/api", CatalogURL: books.URL + "/api", OrderURL: orders.URL + "/api", DefaultURL: auth.URL,
	}, Options{})
	ctx := context.Background()

	for _, ep := range []string{"/auth/validate", "/books/1", "/orders/my-orders", "/auth/admin/users"} {
		_, err := h.client.Request(ctx, ep, RequestOptions{})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(hits["auth"]))
	assert.EqualValues(t, 1, atomic.LoadInt32(hits["books"]))
	assert.EqualValues(t, 1, atomic.LoadInt32(hits["orders"]))
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	var body map[string]any
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, 201, `{"id":"o-1"}`)
	}, Options{})

	_, err := h.client.Request(context.Background(), "/orders", RequestOptions{
		Method:  http.MethodPost,
		Body:    map[string]int{"quantity": 2},
		Headers: map[string]string{"X-User-Id": "u-9"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "u-9", got.Get("X-User-Id"))
	assert.Len(t, got.Get("X-Request-Id"), 36)
	assert.EqualValues(t, 2, body["quantity"])
}

func TestNoTokenNoAuthorization(t *testing.T) {
	var auth string
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(w, 200, `[]`)
	}, Options{})
	h.session.token = ""

	_, err := h.client.Request(context.Background(), "/books", RequestOptions{})
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestUnauthorizedPurgesSession(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, `{"message":"expired"}`)
	}, Options{})

	ctx := events.WithPage(context.Background(), "/orders.html")
	_, err := h.client.Request(ctx, "/orders/my-orders", RequestOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, MsgSessionExpired, err.Error())
	assert.Equal(t, 1, h.session.purged)

	evs := h.recorder.Drain()
	require.Len(t, evs, 1)
	assert.Equal(t, events.KindNavigate, evs[0].Kind)
	assert.Equal(t, events.PageLogin, evs[0].To)

	// Already on an auth page: purge but stay put.
	ctx = events.WithPage(context.Background(), "/login.html")
	_, err = h.client.Request(ctx, "/auth/validate", RequestOptions{})
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 2, h.session.purged)
	assert.Empty(t, h.recorder.Drain())
}

func TestForbiddenMessages(t *testing.T) {
	cases := []struct {
		endpoint string
		body     string
		reason   Reason
		message  string
	}{
		{EndpointLogin, "Account PERMANENT ban", ReasonPermanentBan, msgPermanentBan},
		{EndpointLogin, "account temporarily locked", ReasonTemporaryLock, msgTemporaryLock},
		{EndpointLogin, "locked for 15 minutes", ReasonTemporaryLock, msgTemporaryLock},
		{EndpointLogin, "blocked IP address", ReasonIPBlock, msgIPBlock},
		{EndpointLogin, "nope", ReasonGeneric, msgLoginLocked},
		{EndpointRegister, "temporarily locked", ReasonTemporaryLock, MsgRegisterUnavailable},
		{"/books/1", "permanently banned", ReasonPermanentBan, MsgForbidden},
		{"/auth/admin/users", "", ReasonGeneric, MsgForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.endpoint+"/"+tc.body, func(t *testing.T) {
			h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 403, tc.body)
			}, Options{})
			_, err := h.client.Request(context.Background(), tc.endpoint, RequestOptions{Method: http.MethodPost})
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, KindForbidden, apiErr.Kind)
			assert.Equal(t, tc.reason, apiErr.Reason)
			assert.Equal(t, tc.message, apiErr.Message)
			assert.ErrorIs(t, err, ErrForbidden)
		})
	}
}

func TestForbiddenRuleOrder(t *testing.T) {
	// Earlier rules win even when later needles also match.
	assert.Equal(t, ReasonPermanentBan, ClassifyForbidden("PERMANENT ban from this IP"))
	assert.Equal(t, ReasonTemporaryLock, ClassifyForbidden("temporarily locked at this location"))
	assert.Equal(t, ReasonGeneric, ClassifyForbidden("permanent"))
}

func TestStatusKinds(t *testing.T) {
	cases := []struct {
		status int
		target error
		msg    string
	}{
		{404, ErrNotFound, MsgNotFound},
		{429, ErrRateLimited, MsgRateLimited},
		{500, ErrServerError, MsgServerError},
		{503, ErrServerError, MsgServerError},
	}
	for _, tc := range cases {
		h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, tc.status, `{"message":"ignored"}`)
		}, Options{})
		_, err := h.client.Request(context.Background(), "/books/x", RequestOptions{})
		assert.ErrorIs(t, err, tc.target)
		assert.Equal(t, tc.msg, err.Error())
	}
}

func TestRequestFailedMessages(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"message", "application/json", `{"message":"Email already in use","error":"x"}`, "Email already in use (400)"},
		{"error", "application/json", `{"error":"Bad Request"}`, "Bad Request (400)"},
		{"errors array", "application/json", `{"errors":["a is required","b is required"]}`, "a is required, b is required (400)"},
		{"errors object", "application/json; charset=utf-8", `{"errors":{"email":["invalid","taken"],"password":"short"}}`, "invalid, taken, short (400)"},
		{"empty errors", "application/json", `{"errors":{}}`, "Request failed (400)"},
		{"nothing", "application/json", `{}`, "Request failed (400)"},
		{"bad json", "application/json", `{oops`, "Request failed (400)"},
		{"text", "text/plain", "plain failure", "plain failure (400)"},
		{"empty text", "text/plain", "", "Unknown response format (400)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.contentType)
				w.WriteHeader(400)
				w.Write([]byte(tc.body))
			}, Options{})
			_, err := h.client.Request(context.Background(), "/auth/register", RequestOptions{Method: http.MethodPost})
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, KindRequestFailed, apiErr.Kind)
			assert.Equal(t, 400, apiErr.Status)
			assert.Equal(t, tc.want, apiErr.Message)
		})
	}
}

func TestSuccessNormalization(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/text":
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("pong"))
		case "/broken":
			writeJSON(w, 200, `{"data":`)
		default:
			writeJSON(w, 200, `{"success":true,"message":"ok","data":{"id":"b-1","title":"Dune","price":9.99}}`)
		}
	}, Options{})
	ctx := context.Background()

	resp, err := h.client.Request(ctx, "/text", RequestOptions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"pong"}`, string(resp.Body))
	assert.Equal(t, "pong", resp.Message())

	resp, err = h.client.Request(ctx, "/broken", RequestOptions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(resp.Body))

	var b Book
	require.NoError(t, h.client.Do(ctx, "/books/b-1", RequestOptions{}, &b))
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, "9.99", b.Price.String())
}

func TestOrderListings(t *testing.T) {
	var paths, users []string
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		users = append(users, r.Header.Get("X-User-Id"))
		writeJSON(w, http.StatusOK, `[{"id":"o1","status":"PENDING"}]`)
	}, Options{})
	orders := NewOrderClient(h.client)

	mine, err := orders.Mine(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	byUser, err := orders.ByUser(context.Background(), "u 1")
	require.NoError(t, err)
	assert.Equal(t, "o1", byUser[0].ID)

	assert.Equal(t, []string{"/orders/my-orders", "/orders/user/u 1"}, paths)
	assert.Equal(t, []string{"u-1", ""}, users)
}

func TestNetworkAndTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	h := newHarnessFor(t, config.Services{AuthURL: srv.URL, CatalogURL: srv.URL, OrderURL: srv.URL, DefaultURL: srv.URL}, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := h.client.Request(ctx, "/books", RequestOptions{})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, MsgTimeout, err.Error())

	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	h = newHarnessFor(t, config.Services{AuthURL: dead.URL, CatalogURL: dead.URL, OrderURL: dead.URL, DefaultURL: dead.URL}, Options{})
	_, err = h.client.Request(context.Background(), "/books", RequestOptions{})
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, MsgNetwork, err.Error())
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, 502, `{}`)
	}, Options{Breaker: true})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := h.client.Request(ctx, "/books", RequestOptions{})
		assert.ErrorIs(t, err, ErrServerError)
	}
	_, err := h.client.Request(ctx, "/books", RequestOptions{})
	assert.ErrorIs(t, err, ErrServerError)
	assert.EqualValues(t, 5, atomic.LoadInt32(&hits))

	// Other services keep their own breaker.
	_, err = h.client.Request(ctx, "/orders/1", RequestOptions{})
	assert.ErrorIs(t, err, ErrServerError)
	assert.EqualValues(t, 6, atomic.LoadInt32(&hits))
}

func TestRateLimitRespectsContext(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{}`)
	}, Options{RateLimit: 0.5})

	_, err := h.client.Request(context.Background(), "/books", RequestOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = h.client.Request(ctx, "/books", RequestOptions{})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestErrorIs(t *testing.T) {
	err := error(&Error{Kind: KindForbidden, Reason: ReasonIPBlock, Message: msgIPBlock})
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.True(t, errors.Is(err, &Error{Kind: KindForbidden, Reason: ReasonIPBlock}))
	assert.False(t, errors.Is(err, &Error{Kind: KindForbidden, Reason: ReasonPermanentBan}))
	assert.False(t, errors.Is(err, ErrNotFound))

	v := NewValidationError()
	v.Add("city", "City is required")
	v.Add("city", "ignored")
	v.Add("fullName", "Full name is required")
	assert.ErrorIs(t, v, ErrValidation)
	assert.Equal(t, KindValidation, KindOf(v))
	assert.Equal(t, "City is required, Full name is required", v.Error())
	assert.NoError(t, NewValidationError().OrNil())
}
