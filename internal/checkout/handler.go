// internal/checkout/handler.go
package checkout

import (
	"errors"
	"net/http"

	"bookvault/internal/httpx"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		httpx.ErrorText(w, http.StatusBadRequest, err, Message(err))
	case errors.Is(err, ErrSubmissionInFlight), errors.Is(err, ErrNotStarted):
		httpx.ErrorText(w, http.StatusConflict, err, Message(err))
	default:
		httpx.Error(w, err)
	}
}

func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.State())
}

func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.service.StartCheckout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.State())
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var form Form
	if !httpx.Decode(w, r, &form) {
		return
	}

	order, err := h.service.Submit(r.Context(), form)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.service.Cancel(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.State())
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.service.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.State())
}
