// internal/cart/handler.go
package cart

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"bookvault/internal/clients"
	"bookvault/internal/httpx"
)

// BookLookup resolves a catalog id to a book.
type BookLookup interface {
	Get(ctx context.Context, id string) (*clients.Book, error)
}

type Handler struct {
	service Service
	books   BookLookup
}

func NewHandler(service Service, books BookLookup) *Handler {
	return &Handler{service: service, books: books}
}

type cartView struct {
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

func (h *Handler) view(ctx context.Context) cartView {
	items := h.service.Items(ctx)
	v := cartView{Items: items, Total: decimal.Zero}
	for _, it := range items {
		v.Total = v.Total.Add(it.Subtotal())
		v.ItemCount += it.Quantity
	}
	return v
}

func (h *Handler) HandleCart(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httpx.JSON(w, http.StatusOK, h.view(r.Context()))
	case http.MethodDelete:
		h.service.Clear(r.Context())
		httpx.JSON(w, http.StatusOK, h.view(r.Context()))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type addRequest struct {
	BookID   string          `json:"bookId"`
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
	Quantity int             `json:"quantity"`
}

// checkQuantity answers 400 for quantities above MaxQuantity.
func checkQuantity(w http.ResponseWriter, q int) bool {
	if q <= MaxQuantity {
		return true
	}
	v := clients.NewValidationError()
	v.Add("quantity", fmt.Sprintf("Quantity cannot exceed %d", MaxQuantity))
	httpx.Error(w, v)
	return false
}

// HandleItems adds a line. A bare bookId is resolved through the catalog.
func (h *Handler) HandleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req addRequest
	if !httpx.Decode(w, r, &req) || !checkQuantity(w, req.Quantity) {
		return
	}

	item := LineItem{ID: req.BookID, Title: req.Title, Author: req.Author, Price: req.Price, ImageURL: req.ImageURL}
	if req.Title == "" && req.BookID != "" && h.books != nil {
		b, err := h.books.Get(r.Context(), req.BookID)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		item = FromBook(*b)
	}

	added := h.service.Add(r.Context(), item, req.Quantity)
	if added.ID == "" {
		v := clients.NewValidationError()
		v.Add("book", "Unable to add book to cart. Missing book information.")
		httpx.Error(w, v)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(r.Context()))
}

func (h *Handler) HandleItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	switch r.Method {
	case http.MethodPut, http.MethodPatch:
		var req struct {
			Quantity int `json:"quantity"`
		}
		if !httpx.Decode(w, r, &req) || !checkQuantity(w, req.Quantity) {
			return
		}
		h.service.SetQuantity(r.Context(), id, req.Quantity)
	case http.MethodDelete:
		h.service.Remove(r.Context(), id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(r.Context()))
}
