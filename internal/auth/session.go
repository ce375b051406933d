// internal/auth/session.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"bookvault/internal/storage"
)

// SessionRepository keeps the session under the token, role and profile keys.
type SessionRepository struct {
	store storage.Store
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewSessionRepository(store storage.Store, log logrus.FieldLogger) *SessionRepository {
	return &SessionRepository{store: store, log: log, now: time.Now}
}

// Load reads the session. Missing or unreadable parts read as a guest.
func (r *SessionRepository) Load(ctx context.Context) Session {
	var s Session
	token, ok, err := r.store.Get(ctx, storage.KeyAuthToken)
	if err != nil {
		r.log.WithError(err).Warn("read auth token")
		return Session{Role: RoleUser}
	}
	if !ok {
		return Session{Role: RoleUser}
	}
	s.Token = token
	s.ExpiresAt = tokenExpiry(token)

	role, _, err := r.store.Get(ctx, storage.KeyUserRole)
	if err != nil {
		r.log.WithError(err).Warn("read user role")
	}
	s.Role = ParseRole(role)

	var p Profile
	found, err := storage.ReadJSON(ctx, r.store, storage.KeyUserProfile, &p)
	switch {
	case errors.Is(err, storage.ErrMalformed):
		r.log.WithError(err).Warn("discarding unreadable profile")
	case err != nil:
		r.log.WithError(err).Warn("read user profile")
	case found:
		s.Profile = &p
	}
	return s
}

// Save persists all three parts of a session.
func (r *SessionRepository) Save(ctx context.Context, s Session) error {
	if err := r.store.Set(ctx, storage.KeyAuthToken, s.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := r.store.Set(ctx, storage.KeyUserRole, s.Role.String()); err != nil {
		return fmt.Errorf("save role: %w", err)
	}
	if s.Profile != nil {
		if err := storage.WriteJSON(ctx, r.store, storage.KeyUserProfile, s.Profile); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
	}
	return nil
}

// SaveProfile replaces the stored profile only.
func (r *SessionRepository) SaveProfile(ctx context.Context, p Profile) error {
	return storage.WriteJSON(ctx, r.store, storage.KeyUserProfile, p)
}

// Token returns the bearer token of an unexpired session, or "".
func (r *SessionRepository) Token(ctx context.Context) string {
	s := r.Load(ctx)
	if !s.Authenticated(r.now()) {
		return ""
	}
	return s.Token
}

// Purge removes every part of the session.
func (r *SessionRepository) Purge(ctx context.Context) error {
	var errs []error
	for _, key := range []string{storage.KeyAuthToken, storage.KeyUserRole, storage.KeyUserProfile} {
		if err := r.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
