// internal/cart/domain.go
package cart

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bookvault/internal/clients"
)

// PlaceholderImage is used for items added without a cover.
const PlaceholderImage = "asset/img/books/placeholder.jpg"

// MaxQuantity caps the quantity of a single line.
const MaxQuantity = 999

// ClampQuantity maps q into [1, MaxQuantity].
func ClampQuantity(q int) int {
	return min(max(q, 1), MaxQuantity)
}

// lineNamespace scopes synthetic line ids.
var lineNamespace = uuid.MustParse("5b0f7d0e-2c55-4a61-9d4e-6f1b3c2a8e90")

// LineItem is one book in the cart.
type LineItem struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
	Quantity int             `json:"quantity"`
	AddedAt  time.Time       `json:"addedAt"`
}

// Subtotal is price times quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l LineItem) valid() bool {
	return l.ID != "" && l.Title != "" && l.Author != "" &&
		!l.Price.IsNegative() && l.Quantity >= 1
}

// LineID returns the id a book is stored under. Catalog ids are used as is;
// a book without one gets a stable id derived from its title and author.
func LineID(id, title, author string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	key := strings.ToLower(strings.TrimSpace(title)) + "\x00" + strings.ToLower(strings.TrimSpace(author))
	return uuid.NewSHA1(lineNamespace, []byte(key)).String()
}

// FromBook builds a line item for one copy of a catalog book.
func FromBook(b clients.Book) LineItem {
	return LineItem{
		ID:       LineID(b.ID, b.Title, b.Author),
		Title:    b.Title,
		Author:   b.Author,
		Price:    b.Price,
		ImageURL: b.CoverImageURL,
		Quantity: 1,
	}
}

// FromOrderItem rebuilds a line item from a past order at its original price.
func FromOrderItem(it clients.OrderItem) LineItem {
	author := it.BookAuthor
	if author == "" {
		author = "Unknown Author"
	}
	return LineItem{
		ID:       LineID(it.BookID, it.BookTitle, author),
		Title:    it.BookTitle,
		Author:   author,
		Price:    it.UnitPrice,
		ImageURL: it.BookImageURL,
		Quantity: it.Quantity,
	}
}
