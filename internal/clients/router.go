// internal/clients/router.go
package clients

import (
	"strings"

	"bookvault/internal/config"
)

// Service names one of the backend base URLs.
type Service int

const (
	ServiceDefault Service = iota
	ServiceAuth
	ServiceCatalog
	ServiceOrders
)

func (s Service) String() string {
	switch s {
	case ServiceAuth:
		return "auth"
	case ServiceCatalog:
		return "catalog"
	case ServiceOrders:
		return "orders"
	default:
		return "default"
	}
}

const (
	EndpointLogin    = "/auth/login"
	EndpointRegister = "/auth/register"
	EndpointValidate = "/auth/validate"
	EndpointProfile  = "/auth/profile"
)

var routes = []struct {
	prefix  string
	service Service
}{
	{"/auth/", ServiceAuth},
	{"/admin/", ServiceAuth},
	{"/books", ServiceCatalog},
	{"/orders", ServiceOrders},
}

// ServiceFor resolves a logical endpoint to the service that serves it. Rules
// are ordered; the first matching path prefix wins.
func ServiceFor(endpoint string) Service {
	path := stripQuery(endpoint)
	for _, r := range routes {
		if strings.HasPrefix(path, r.prefix) {
			return r.service
		}
	}
	return ServiceDefault
}

// Router turns logical endpoints into absolute URLs.
type Router struct {
	bases map[Service]string
}

func NewRouter(s config.Services) *Router {
	return &Router{bases: map[Service]string{
		ServiceAuth:    strings.TrimRight(s.AuthURL, "/"),
		ServiceCatalog: strings.TrimRight(s.CatalogURL, "/"),
		ServiceOrders:  strings.TrimRight(s.OrderURL, "/"),
		ServiceDefault: strings.TrimRight(s.DefaultURL, "/"),
	}}
}

func (r *Router) URL(endpoint string) (string, Service) {
	svc := ServiceFor(endpoint)
	return r.bases[svc] + endpoint, svc
}

func stripQuery(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
