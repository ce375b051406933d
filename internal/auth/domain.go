// internal/auth/domain.go
package auth

import (
	"strings"
	"time"
)

// Role is ordered: each role includes the capabilities of the ones below it.
type Role int

const (
	RoleUser Role = iota + 1
	RoleSeller
	RoleAdmin
)

// ParseRole reads a backend role name. Anything unrecognised is a plain user.
func ParseRole(s string) Role {
	switch strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_") {
	case "ADMIN":
		return RoleAdmin
	case "SELLER":
		return RoleSeller
	default:
		return RoleUser
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "ADMIN"
	case RoleSeller:
		return "SELLER"
	default:
		return "USER"
	}
}

// Can reports whether r grants at least the required role.
func (r Role) Can(required Role) bool {
	return r >= required
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	*r = ParseRole(string(b))
	return nil
}

// Profile is the persisted account summary returned at login.
type Profile struct {
	UserID    string `json:"userId,omitempty"`
	ID        string `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Identifier returns the user id under either field name.
func (p Profile) Identifier() string {
	if p.UserID != "" {
		return p.UserID
	}
	return p.ID
}

func (p Profile) DisplayName() string {
	if p.FirstName != "" {
		return strings.TrimSpace(p.FirstName + " " + p.LastName)
	}
	if p.Name != "" {
		return p.Name
	}
	if local, _, _ := strings.Cut(p.Email, "@"); local != "" {
		return local
	}
	return "User"
}

// Session is the authentication state as read from storage.
type Session struct {
	Token     string    `json:"-"`
	Role      Role      `json:"role"`
	Profile   *Profile  `json:"profile,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Authenticated reports whether the session holds a token that has not
// expired at now.
func (s Session) Authenticated(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

func (s Session) UserID() string {
	if s.Profile == nil {
		return ""
	}
	return s.Profile.Identifier()
}
