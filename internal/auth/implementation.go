// internal/auth/implementation.go
package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"bookvault/internal/clients"
	"bookvault/internal/events"
)

var (
	ErrLoginRequired = clients.ErrLoginRequired
	ErrLoginFailed   = errors.New("auth: login returned no token")
)

// service implements the Service interface.
type service struct {
	backend  Backend
	sessions *SessionRepository
	cart     CartClearer
	notifier events.Notifier
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewService creates a new auth service instance.
func NewService(backend Backend, sessions *SessionRepository, cart CartClearer, notifier events.Notifier, log logrus.FieldLogger) Service {
	return &service{
		backend:  backend,
		sessions: sessions,
		cart:     cart,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Login authenticates and persists the session.
func (s *service) Login(ctx context.Context, creds clients.Credentials) (*Profile, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	v := clients.NewValidationError()
	if creds.Email == "" {
		v.Add("email", "Email is required")
	} else if !validEmail(creds.Email) {
		v.Add("email", "Invalid email format")
	}
	if creds.Password == "" {
		v.Add("password", "Password is required")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	resp, err := s.backend.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrLoginFailed
	}
	return s.establish(ctx, resp)
}

// Register creates an account. When the backend signs the user in straight
// away the session is persisted as for Login; otherwise the profile is nil.
func (s *service) Register(ctx context.Context, reg clients.Registration) (*Profile, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	v := clients.NewValidationError()
	switch {
	case reg.Email == "":
		v.Add("email", "Email is required")
	case !validEmail(reg.Email):
		v.Add("email", "Invalid email format")
	}
	switch n := len(reg.Password); {
	case n == 0:
		v.Add("password", "Password is required")
	case n < 6 || n > 100:
		v.Add("password", "Password must be between 6 and 100 characters")
	}
	if strings.TrimSpace(reg.FirstName) == "" {
		v.Add("firstName", "First name is required")
	} else if len(reg.FirstName) > 50 {
		v.Add("firstName", "First name must not exceed 50 characters")
	}
	if strings.TrimSpace(reg.LastName) == "" {
		v.Add("lastName", "Last name is required")
	} else if len(reg.LastName) > 50 {
		v.Add("lastName", "Last name must not exceed 50 characters")
	}
	if len(reg.Phone) > 20 {
		v.Add("phone", "Phone must not exceed 20 characters")
	}
	if reg.Role != "" {
		// Self-service registration can ask to sell but never to administer.
		if role := ParseRole(reg.Role); role == RoleAdmin {
			v.Add("role", "Invalid role")
		} else {
			reg.Role = role.String()
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	resp, err := s.backend.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, nil
	}
	return s.establish(ctx, resp)
}

func (s *service) establish(ctx context.Context, resp *clients.AuthResponse) (*Profile, error) {
	profile := &Profile{
		UserID:    resp.UserID,
		Email:     resp.Email,
		FirstName: resp.FirstName,
		LastName:  resp.LastName,
		Role:      resp.Role,
	}
	sess := Session{Token: resp.Token, Role: ParseRole(resp.Role), Profile: profile}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"user.id":   profile.Identifier(),
		"user.role": sess.Role.String(),
	}).Info("signed in")
	return profile, nil
}

// Logout forgets the session, empties the cart and sends the user home.
func (s *service) Logout(ctx context.Context) {
	if err := s.sessions.Purge(ctx); err != nil {
		s.log.WithError(err).Warn("purge session")
	}
	if s.cart != nil {
		s.cart.Clear(ctx)
	}
	s.notifier.Notify(ctx, events.Navigate(events.PageHome))
}

func (s *service) Session(ctx context.Context) Session {
	return s.sessions.Load(ctx)
}

func (s *service) IsLoggedIn(ctx context.Context) bool {
	return s.sessions.Load(ctx).Authenticated(s.now())
}

func (s *service) Role(ctx context.Context) Role {
	return s.sessions.Load(ctx).Role
}

func (s *service) IsAdmin(ctx context.Context) bool {
	return s.Role(ctx) == RoleAdmin
}

func (s *service) IsSeller(ctx context.Context) bool {
	return s.Role(ctx).Can(RoleSeller)
}

func (s *service) CurrentUser(ctx context.Context) *Profile {
	return s.sessions.Load(ctx).Profile
}

func (s *service) DisplayName(ctx context.Context) string {
	p := s.CurrentUser(ctx)
	if p == nil {
		return "User"
	}
	return p.DisplayName()
}

// Require returns the session when it is authenticated and grants role.
func (s *service) Require(ctx context.Context, role Role) (Session, error) {
	sess := s.sessions.Load(ctx)
	if !sess.Authenticated(s.now()) {
		return sess, ErrLoginRequired
	}
	if !sess.Role.Can(role) {
		return sess, clients.Forbidden("")
	}
	return sess, nil
}

// ValidateToken asks the backend whether the stored token is still good.
// A rejected token has already purged the session by the time this returns.
func (s *service) ValidateToken(ctx context.Context) (bool, error) {
	sess := s.sessions.Load(ctx)
	if !sess.Authenticated(s.now()) {
		return false, nil
	}
	err := s.backend.Validate(ctx, sess.Token)
	if errors.Is(err, clients.ErrSessionExpired) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) Profile(ctx context.Context) (*clients.User, error) {
	sess, err := s.Require(ctx, RoleUser)
	if err != nil {
		return nil, err
	}
	if sess.UserID() == "" {
		return nil, ErrLoginRequired
	}
	return s.backend.Profile(ctx, sess.UserID())
}

func (s *service) UpdateProfile(ctx context.Context, in clients.ProfileUpdate) (*clients.User, error) {
	sess, err := s.Require(ctx, RoleUser)
	if err != nil {
		return nil, err
	}
	if sess.UserID() == "" {
		return nil, ErrLoginRequired
	}
	v := clients.NewValidationError()
	if len(in.FirstName) > 50 {
		v.Add("firstName", "First name must not exceed 50 characters")
	}
	if len(in.LastName) > 50 {
		v.Add("lastName", "Last name must not exceed 50 characters")
	}
	if len(in.Phone) > 20 {
		v.Add("phone", "Phone must not exceed 20 characters")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	u, err := s.backend.UpdateProfile(ctx, sess.UserID(), in)
	if err != nil {
		return nil, err
	}
	var p Profile
	if sess.Profile != nil {
		p = *sess.Profile
	}
	p.FirstName, p.LastName = u.FirstName, u.LastName
	if u.Email != "" {
		p.Email = u.Email
	}
	if err := s.sessions.SaveProfile(ctx, p); err != nil {
		s.log.WithError(err).Warn("save updated profile")
	}
	return u, nil
}
