// internal/storefront/wire.go
package storefront

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"bookvault/internal/admin"
	"bookvault/internal/auth"
	"bookvault/internal/cart"
	"bookvault/internal/catalog"
	"bookvault/internal/checkout"
	"bookvault/internal/clients"
	"bookvault/internal/config"
	"bookvault/internal/events"
	"bookvault/internal/orders"
	"bookvault/internal/storage"
	"bookvault/internal/wishlist"
)

// NewServices assembles every module over one store and one API client.
// A nil httpClient uses a client bounded by cfg.RequestTimeout.
func NewServices(cfg config.Config, store storage.Store, notifier events.Notifier, httpClient *http.Client, log logrus.FieldLogger) Services {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	sessions := auth.NewSessionRepository(store, log)
	api := clients.New(clients.NewRouter(cfg.Services), sessions, clients.Options{
		HTTPClient: httpClient,
		RateLimit:  cfg.ClientRateLimit,
		Breaker:    cfg.BreakerEnabled,
		Notifier:   notifier,
		Logger:     log.WithField("component", "clients"),
	})

	authAPI := clients.NewAuthClient(api)
	catalogAPI := clients.NewCatalogClient(api)
	orderAPI := clients.NewOrderClient(api)
	adminAPI := clients.NewAdminClient(api)

	cartSvc := cart.NewService(store, notifier, log.WithField("component", "cart"))
	authSvc := auth.NewService(authAPI, sessions, cartSvc, notifier, log.WithField("component", "auth"))
	catalogSvc := catalog.NewService(catalogAPI, authSvc, notifier, log.WithField("component", "catalog"), catalog.Options{
		PageSize:  cfg.PageSize,
		CacheSize: cfg.CatalogCache,
		CacheTTL:  cfg.CatalogCacheTTL,
	})

	var recorder *events.Recorder
	switch n := notifier.(type) {
	case *events.Recorder:
		recorder = n
	case events.Multi:
		for _, inner := range n {
			if r, ok := inner.(*events.Recorder); ok {
				recorder = r
				break
			}
		}
	}

	return Services{
		Auth:     authSvc,
		Cart:     cartSvc,
		Catalog:  catalogSvc,
		Checkout: checkout.NewService(cartSvc, authSvc, orderAPI, notifier, log.WithField("component", "checkout")),
		Orders:   orders.NewService(orderAPI, authSvc, cartSvc, notifier, log.WithField("component", "orders")),
		Wishlist: wishlist.NewService(store, authSvc, catalogSvc, notifier, log.WithField("component", "wishlist")),
		Admin:    admin.NewService(adminAPI, orderAPI, catalogAPI, authSvc, notifier, log.WithField("component", "admin"), cfg.PageSize),
		Events:   recorder,
	}
}
