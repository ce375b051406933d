// internal/catalog/domain.go
package catalog

import (
	"strings"
	"time"
	"unicode/utf8"

	"bookvault/internal/clients"
)

// Curated listings served by the catalog service.
const (
	ListingFeatured    = "featured"
	ListingBestsellers = "bestsellers"
	ListingNewReleases = "new-releases"
)

const (
	MinQueryLength = 2
	MaxPageSize    = 100
)

// Options tunes the catalog service.
type Options struct {
	PageSize  int
	CacheSize int
	CacheTTL  time.Duration
}

// paging clamps page and size to what the backend accepts. A size of zero
// means the default.
func (o Options) paging(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = o.PageSize
	}
	if size <= 0 {
		size = 12
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func validListing(name string) bool {
	switch name {
	case ListingFeatured, ListingBestsellers, ListingNewReleases:
		return true
	}
	return false
}

func validateQuery(q string) error {
	if utf8.RuneCountInString(q) < MinQueryLength {
		v := clients.NewValidationError()
		v.Add("q", "Please enter at least 2 characters to search.")
		return v
	}
	return nil
}

// validateBook checks a seller's create or update payload.
func validateBook(in *clients.BookInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	v := clients.NewValidationError()
	if in.Title == "" {
		v.Add("title", "Title is required")
	}
	if in.Author == "" {
		v.Add("author", "Author is required")
	}
	if in.Price.IsNegative() {
		v.Add("price", "Price cannot be negative")
	}
	if in.StockQuantity < 0 {
		v.Add("stockQuantity", "Stock quantity cannot be negative")
	}
	return v.OrNil()
}
