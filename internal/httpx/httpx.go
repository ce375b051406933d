// internal/httpx/httpx.go
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bookvault/internal/clients"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string            `json:"error"`
	Kind   string            `json:"kind"`
	Reason string            `json:"reason,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Error writes err with the status its kind maps to.
func Error(w http.ResponseWriter, err error) {
	ErrorStatus(w, clients.StatusCode(err), err)
}

// ErrorStatus writes err as a JSON error body with an explicit status.
func ErrorStatus(w http.ResponseWriter, status int, err error) {
	ErrorText(w, status, err, err.Error())
}

// ErrorText is ErrorStatus with text shown to the user in place of err.Error().
func ErrorText(w http.ResponseWriter, status int, err error, text string) {
	body := errorBody{Error: text, Kind: clients.KindOf(err).String()}
	var apiErr *clients.Error
	if errors.As(err, &apiErr) {
		body.Reason = string(apiErr.Reason)
	}
	var v *clients.ValidationError
	if errors.As(err, &v) {
		body.Fields = v.Fields
	}
	JSON(w, status, body)
}

// Decode reads a JSON request body into v, answering 400 on failure.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// IntQuery returns the integer query parameter key or def.
func IntQuery(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
