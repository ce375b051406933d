// internal/storefront/server.go
package storefront

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"bookvault/internal/admin"
	"bookvault/internal/auth"
	"bookvault/internal/cart"
	"bookvault/internal/catalog"
	"bookvault/internal/checkout"
	"bookvault/internal/events"
	"bookvault/internal/httpx"
	"bookvault/internal/orders"
	"bookvault/internal/wishlist"
)

// Services are the storefront modules exposed over HTTP.
type Services struct {
	Auth     auth.Service
	Cart     cart.Service
	Catalog  catalog.Service
	Checkout checkout.Service
	Orders   orders.Service
	Wishlist wishlist.Service
	Admin    admin.Service
	// Events, when set, is drained by GET /api/events.
	Events *events.Recorder
}

type Options struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// NewRouter mounts every module under /api.
func NewRouter(s Services, opts Options, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(logRequests(log))
	r.Use(recoverPanics(log))
	r.Use(withPage)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		authH := auth.NewHandler(s.Auth)
		r.Get("/session", authH.HandleSession)
		r.Post("/session/login", authH.HandleLogin)
		r.Post("/session/register", authH.HandleRegister)
		r.Post("/session/logout", authH.HandleLogout)
		r.Post("/session/validate", authH.HandleValidate)
		r.Get("/profile", authH.HandleProfile)
		r.Put("/profile", authH.HandleProfile)

		cartH := cart.NewHandler(s.Cart, s.Catalog)
		r.Get("/cart", cartH.HandleCart)
		r.Delete("/cart", cartH.HandleCart)
		r.Post("/cart/items", cartH.HandleItems)
		r.Put("/cart/items/{id}", cartH.HandleItem)
		r.Patch("/cart/items/{id}", cartH.HandleItem)
		r.Delete("/cart/items/{id}", cartH.HandleItem)

		checkoutH := checkout.NewHandler(s.Checkout)
		r.Get("/checkout", checkoutH.HandleState)
		r.Post("/checkout/start", checkoutH.HandleStart)
		r.Post("/checkout/submit", checkoutH.HandleSubmit)
		r.Post("/checkout/cancel", checkoutH.HandleCancel)
		r.Post("/checkout/reset", checkoutH.HandleReset)

		catalogH := catalog.NewHandler(s.Catalog)
		r.Get("/books", catalogH.HandleBooks)
		r.Get("/books/search", catalogH.HandleSearch)
		r.Get("/books/filter", catalogH.HandleFilter)
		r.Get("/books/categories", catalogH.HandleCategories)
		r.Get("/books/category/{category}", catalogH.HandleCategory)
		r.Get("/books/author/{author}", catalogH.HandleAuthor)
		r.Get("/books/seller/{sellerId}", catalogH.HandleSeller)
		r.Get("/books/listing/{listing}", catalogH.HandleListing)
		r.Get("/books/{id}", catalogH.HandleBook)

		adminH := admin.NewHandler(s.Admin)
		r.Route("/seller", func(r chi.Router) {
			r.Get("/dashboard", adminH.HandleSellerDashboard)
			r.Get("/books", catalogH.HandleMyBooks)
			r.Post("/books", catalogH.HandleMyBooks)
			r.Put("/books/{id}", catalogH.HandleMyBook)
			r.Delete("/books/{id}", catalogH.HandleMyBook)
		})

		ordersH := orders.NewHandler(s.Orders)
		r.Get("/orders", ordersH.HandleOrders)
		r.Get("/orders/{id}", ordersH.HandleOrder)
		r.Post("/orders/{id}/cancel", ordersH.HandleCancel)
		r.Get("/orders/{id}/tracking", ordersH.HandleTracking)
		r.Post("/orders/{id}/buy-again", ordersH.HandleBuyAgain)

		wishlistH := wishlist.NewHandler(s.Wishlist)
		r.Get("/wishlist", wishlistH.HandleWishlist)
		r.Post("/wishlist", wishlistH.HandleWishlist)
		r.Delete("/wishlist/{id}", wishlistH.HandleItem)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/dashboard", adminH.HandleDashboard)
			r.Get("/stats", adminH.HandleStats)
			r.Get("/users", adminH.HandleUsers)
			r.Put("/users/{id}", adminH.HandleUser)
			r.Delete("/users/{id}", adminH.HandleUser)
			r.Put("/users/{id}/status", adminH.HandleUserStatus)
			r.Put("/users/{id}/role", adminH.HandleUserRole)
			r.Post("/users/{id}/reset-password", adminH.HandleResetPassword)
			r.Post("/users/{id}/verify", adminH.HandleVerify)
			r.Get("/sellers", adminH.HandleSellers)
			r.Put("/sellers/{id}/toggle", adminH.HandleSeller)
			r.Delete("/sellers/{id}", adminH.HandleSeller)
			r.Get("/orders", adminH.HandleOrders)
			r.Put("/orders/{id}/status", adminH.HandleOrderStatus)
		})

		if s.Events != nil {
			r.Get("/events", func(w http.ResponseWriter, _ *http.Request) {
				httpx.JSON(w, http.StatusOK, s.Events.Drain())
			})
		}
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Authorization", PageHeader, "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
