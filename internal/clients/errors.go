// internal/clients/errors.go
package clients

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies a failed backend call.
type Kind int

const (
	KindRequestFailed Kind = iota
	KindSessionExpired
	KindForbidden
	KindNotFound
	KindRateLimited
	KindServerError
	KindNetwork
	KindTimeout
	KindValidation
	KindLoginRequired
)

func (k Kind) String() string {
	switch k {
	case KindSessionExpired:
		return "session_expired"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindNetwork:
		return "network_error"
	case KindTimeout:
		return "timeout"
	case KindValidation:
		return "validation"
	case KindLoginRequired:
		return "login_required"
	default:
		return "request_failed"
	}
}

// Reason refines a Forbidden failure.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonPermanentBan  Reason = "permanent_ban"
	ReasonTemporaryLock Reason = "temporary_lock"
	ReasonIPBlock       Reason = "ip_block"
	ReasonGeneric       Reason = "generic"
)

// User-facing messages.
const (
	MsgSessionExpired = "Your session has expired. Please log in again."
	MsgNotFound       = "The requested resource was not found."
	MsgRateLimited    = "Too many requests. Please wait a moment before trying again."
	MsgServerError    = "Server error. Please try again later."
	MsgNetwork        = "Unable to connect to the server. Please check your internet connection and try again."
	MsgTimeout        = "The request timed out. Please try again."
	MsgRequestFailed  = "Request failed"
	MsgLoginRequired  = "Please log in to continue."
)

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrSessionExpired = &Error{Kind: KindSessionExpired, Message: MsgSessionExpired}
	ErrForbidden      = &Error{Kind: KindForbidden, Message: MsgForbidden}
	ErrNotFound       = &Error{Kind: KindNotFound, Message: MsgNotFound}
	ErrRateLimited    = &Error{Kind: KindRateLimited, Message: MsgRateLimited}
	ErrServerError    = &Error{Kind: KindServerError, Message: MsgServerError}
	ErrNetwork        = &Error{Kind: KindNetwork, Message: MsgNetwork}
	ErrTimeout        = &Error{Kind: KindTimeout, Message: MsgTimeout}
	ErrRequestFailed  = &Error{Kind: KindRequestFailed, Message: MsgRequestFailed}
	ErrValidation     = &Error{Kind: KindValidation, Message: "Please correct the highlighted fields."}
	// ErrLoginRequired is raised locally before any request is made.
	ErrLoginRequired = &Error{Kind: KindLoginRequired, Message: MsgLoginRequired}
)

// Error is the single failure type returned by the client. Message is safe to
// show to the user.
type Error struct {
	Kind    Kind
	Reason  Reason
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == ReasonNone || t.Reason == e.Reason
}

// KindOf returns the kind of err, or KindRequestFailed for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrValidation) {
		return KindValidation
	}
	return KindRequestFailed
}

// StatusCode maps err to the status the storefront API answers with.
func StatusCode(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		if errors.Is(err, ErrValidation) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindLoginRequired, KindSessionExpired:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindServerError, KindNetwork:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	}
	if e.Status >= 400 && e.Status < 500 {
		return e.Status
	}
	return http.StatusBadRequest
}

// Forbidden builds a client-side permission failure.
func Forbidden(msg string) *Error {
	if msg == "" {
		msg = MsgForbidden
	}
	return &Error{Kind: KindForbidden, Reason: ReasonGeneric, Status: 403, Message: msg}
}

// RequestFailed builds a failure with a backend-supplied message.
func RequestFailed(msg string, status int) *Error {
	if msg == "" {
		msg = MsgRequestFailed
	}
	if status > 0 {
		msg = fmt.Sprintf("%s (%d)", msg, status)
	}
	return &Error{Kind: KindRequestFailed, Status: status, Message: msg}
}

// ValidationError carries per-field messages for a rejected form.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records msg for field unless one is already recorded.
func (v *ValidationError) Add(field, msg string) {
	if _, ok := v.Fields[field]; !ok {
		v.Fields[field] = msg
	}
}

// OrNil returns v when it holds any field errors.
func (v *ValidationError) OrNil() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Fields))
	for f := range v.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, v.Fields[f])
	}
	return strings.Join(msgs, ", ")
}

func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
