// internal/clients/forbidden.go
package clients

import "strings"

const (
	MsgForbidden           = "You do not have permission to perform this action."
	MsgRegisterUnavailable = "Registration is currently unavailable. Please try again later."
	msgPermanentBan        = "Your account has been permanently banned due to multiple failed login attempts. Please contact the administrator for assistance."
	msgTemporaryLock       = "Your account has been temporarily locked for 15 minutes due to failed login attempts. Please try again later."
	msgIPBlock             = "Too many failed login attempts from this location. Please try again in 30 minutes."
	msgLoginLocked         = "Your account has been temporarily locked due to multiple failed login attempts. Please try again later."
)

// forbiddenRules are checked in order against the raw 403 body; the first
// rule with a matching substring wins. Matching is case-sensitive.
var forbiddenRules = []struct {
	needles []string
	reason  Reason
	message string
}{
	{[]string{"permanently banned", "PERMANENT"}, ReasonPermanentBan, msgPermanentBan},
	{[]string{"temporarily locked", "15 minutes"}, ReasonTemporaryLock, msgTemporaryLock},
	{[]string{"IP", "location"}, ReasonIPBlock, msgIPBlock},
}

// ClassifyForbidden maps a 403 response body to a reason.
func ClassifyForbidden(body string) Reason {
	for _, r := range forbiddenRules {
		for _, n := range r.needles {
			if strings.Contains(body, n) {
				return r.reason
			}
		}
	}
	return ReasonGeneric
}

func forbiddenError(endpoint, body string) *Error {
	reason := ClassifyForbidden(body)
	e := &Error{Kind: KindForbidden, Reason: reason, Status: 403, Message: MsgForbidden}

	switch path := stripQuery(endpoint); {
	case strings.HasPrefix(path, EndpointLogin):
		e.Message = msgLoginLocked
		for _, r := range forbiddenRules {
			if r.reason == reason {
				e.Message = r.message
				break
			}
		}
	case strings.HasPrefix(path, EndpointRegister):
		e.Message = MsgRegisterUnavailable
	}
	return e
}
