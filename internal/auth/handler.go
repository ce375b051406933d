// internal/auth/handler.go
package auth

import (
	"errors"
	"net/http"

	"bookvault/internal/clients"
	"bookvault/internal/httpx"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type sessionView struct {
	LoggedIn    bool     `json:"loggedIn"`
	Role        Role     `json:"role"`
	IsAdmin     bool     `json:"isAdmin"`
	IsSeller    bool     `json:"isSeller"`
	DisplayName string   `json:"displayName"`
	Profile     *Profile `json:"profile,omitempty"`
}

func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	view := sessionView{LoggedIn: h.service.IsLoggedIn(ctx), Role: RoleUser, DisplayName: "User"}
	if view.LoggedIn {
		view.Role = h.service.Role(ctx)
		view.IsAdmin = h.service.IsAdmin(ctx)
		view.IsSeller = h.service.IsSeller(ctx)
		view.DisplayName = h.service.DisplayName(ctx)
		view.Profile = h.service.CurrentUser(ctx)
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req clients.Credentials
	if !httpx.Decode(w, r, &req) {
		return
	}

	profile, err := h.service.Login(r.Context(), req)
	if errors.Is(err, ErrLoginFailed) {
		httpx.ErrorText(w, http.StatusUnauthorized, err, "Login failed")
		return
	}
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req clients.Registration
	if !httpx.Decode(w, r, &req) {
		return
	}

	profile, err := h.service.Register(r.Context(), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"signedIn": profile != nil,
		"profile":  profile,
	})
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.service.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	valid, err := h.service.ValidateToken(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		u, err := h.service.Profile(r.Context())
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, u)
	case http.MethodPut:
		var req clients.ProfileUpdate
		if !httpx.Decode(w, r, &req) {
			return
		}
		u, err := h.service.UpdateProfile(r.Context(), req)
		if err != nil {
			httpx.Error(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, u)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
