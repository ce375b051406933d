// internal/catalog/handler.go
package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookvault/internal/clients"
	"bookvault/internal/httpx"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func paging(r *http.Request) (int, int) {
	return httpx.IntQuery(r, "page", 0), httpx.IntQuery(r, "size", 0)
}

func respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) HandleBooks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	page, size := paging(r)
	books, err := h.service.List(r.Context(), page, size)
	respond(w, books, err)
}

func (h *Handler) HandleBook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	book, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	respond(w, book, err)
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	page, size := paging(r)
	books, err := h.service.Search(r.Context(), r.URL.Query().Get("q"), page, size)
	respond(w, books, err)
}

func (h *Handler) HandleCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	page, size := paging(r)
	books, err := h.service.ByCategory(r.Context(), chi.URLParam(r, "category"), page, size)
	respond(w, books, err)
}

func (h *Handler) HandleAuthor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	page, size := paging(r)
	books, err := h.service.ByAuthor(r.Context(), chi.URLParam(r, "author"), page, size)
	respond(w, books, err)
}

// HandleListing serves the featured, bestsellers and new-releases lists.
func (h *Handler) HandleListing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := chi.URLParam(r, "listing")
	if !validListing(name) {
		httpx.Error(w, clients.ErrNotFound)
		return
	}
	page, size := paging(r)
	var (
		books *BookPage
		err   error
	)
	switch name {
	case ListingFeatured:
		books, err = h.service.Featured(r.Context(), page, size)
	case ListingBestsellers:
		books, err = h.service.Bestsellers(r.Context(), page, size)
	default:
		books, err = h.service.NewReleases(r.Context(), page, size)
	}
	respond(w, books, err)
}

func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cats, err := h.service.Categories(r.Context())
	respond(w, cats, err)
}

// HandleFilter passes every query parameter except page and size through as
// a filter.
func (h *Handler) HandleFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	page, size := paging(r)
	books, err := h.service.Filter(r.Context(), r.URL.Query(), page, size)
	respond(w, books, err)
}

func (h *Handler) HandleSeller(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	books, err := h.service.BySeller(r.Context(), chi.URLParam(r, "sellerId"))
	respond(w, books, err)
}

// HandleMyBooks lists or creates the signed-in seller's books.
func (h *Handler) HandleMyBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		books, err := h.service.MyBooks(r.Context())
		respond(w, books, err)
	case http.MethodPost:
		var in clients.BookInput
		if !httpx.Decode(w, r, &in) {
			return
		}
		book, err := h.service.CreateBook(r.Context(), in)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, book)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleMyBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	switch r.Method {
	case http.MethodPut:
		var in clients.BookInput
		if !httpx.Decode(w, r, &in) {
			return
		}
		book, err := h.service.UpdateBook(r.Context(), id, in)
		respond(w, book, err)
	case http.MethodDelete:
		if err := h.service.DeleteBook(r.Context(), id); err != nil {
			httpx.Error(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
