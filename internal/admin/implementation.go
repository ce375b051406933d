// internal/admin/implementation.go
package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"bookvault/internal/auth"
	"bookvault/internal/clients"
	"bookvault/internal/events"
)

// service implements the Service interface.
type service struct {
	accounts Accounts
	orders   Orders
	books    SellerBooks
	auth     Authenticator
	notifier events.Notifier
	log      logrus.FieldLogger
	pageSize int
}

// NewService creates a new admin service. pageSize bounds each dashboard
// section.
func NewService(accounts Accounts, orders Orders, books SellerBooks, a Authenticator, notifier events.Notifier, log logrus.FieldLogger, pageSize int) Service {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &service{
		accounts: accounts,
		orders:   orders,
		books:    books,
		auth:     a,
		notifier: notifier,
		log:      log,
		pageSize: pageSize,
	}
}

func (s *service) requireAdmin(ctx context.Context) error {
	_, err := s.auth.Require(ctx, auth.RoleAdmin)
	return err
}

// mutate runs fn for an admin and reports the outcome to the UI.
func (s *service) mutate(ctx context.Context, op, ok, failed string, fn func() error) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if err := fn(); err != nil {
		s.log.WithError(err).WithField("admin.op", op).Warn("admin operation failed")
		s.notifier.Notify(ctx, events.Message(events.LevelError, failed))
		return err
	}
	s.log.WithField("admin.op", op).Info("admin operation")
	s.notifier.Notify(ctx, events.Message(events.LevelSuccess, ok))
	return nil
}

// fatal reports errors that make the whole dashboard pointless.
func fatal(err error) bool {
	return errors.Is(err, clients.ErrSessionExpired) ||
		errors.Is(err, clients.ErrForbidden) ||
		errors.Is(err, clients.ErrLoginRequired) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Dashboard loads the four sections concurrently. A section that fails is
// left empty unless the failure is fatal.
func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	d := &Dashboard{Users: []clients.User{}, Sellers: []clients.User{}, Orders: []clients.Order{}}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	section := func(name string, load func(context.Context) error) {
		g.Go(func() error {
			err := load(gctx)
			if err == nil {
				return nil
			}
			if fatal(err) {
				return err
			}
			s.log.WithError(err).WithField("dashboard.section", name).Warn("dashboard section unavailable")
			mu.Lock()
			d.Unavailable = append(d.Unavailable, name)
			mu.Unlock()
			return nil
		})
	}

	section("stats", func(ctx context.Context) error {
		st, err := s.accounts.Stats(ctx)
		if err == nil {
			mu.Lock()
			d.Stats = st
			mu.Unlock()
		}
		return err
	})
	section("users", func(ctx context.Context) error {
		p, err := s.accounts.Users(ctx, 0, s.pageSize)
		if err == nil && p.Content != nil {
			mu.Lock()
			d.Users = p.Content
			mu.Unlock()
		}
		return err
	})
	section("sellers", func(ctx context.Context) error {
		p, err := s.accounts.Sellers(ctx, 0, s.pageSize)
		if err == nil && p.Content != nil {
			mu.Lock()
			d.Sellers = p.Content
			mu.Unlock()
		}
		return err
	})
	section("orders", func(ctx context.Context) error {
		p, err := s.orders.All(ctx, 0, s.pageSize)
		if err == nil && p.Content != nil {
			mu.Lock()
			d.Orders = p.Content
			mu.Unlock()
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(d.Unavailable)
	if len(d.Unavailable) == 4 {
		s.notifier.Notify(ctx, events.Message(events.LevelError, "Failed to load admin dashboard. Please try again."))
	}
	return d, nil
}

func (s *service) Stats(ctx context.Context) (*clients.DashboardStats, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.accounts.Stats(ctx)
}

func (s *service) Users(ctx context.Context, page, size int) (*clients.Page[clients.User], error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.accounts.Users(ctx, max(page, 0), s.size(size))
}

func (s *service) AllUsers(ctx context.Context) ([]clients.User, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.accounts.AllUsers(ctx)
}

func (s *service) Sellers(ctx context.Context, page, size int) (*clients.Page[clients.User], error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.accounts.Sellers(ctx, max(page, 0), s.size(size))
}

func (s *service) size(size int) int {
	if size <= 0 {
		return s.pageSize
	}
	return size
}

func (s *service) SetUserStatus(ctx context.Context, id, action string) error {
	action, ok := normalizeAction(action)
	if !ok {
		return invalid("action", "Action must be ACTIVATE or SUSPEND")
	}
	done := "activated"
	if action == ActionSuspend {
		done = "suspended"
	}
	return s.mutate(ctx, "user.status", fmt.Sprintf("User has been %s successfully.", done), "Failed to update user status.", func() error {
		return s.accounts.SetUserStatus(ctx, id, action)
	})
}

func (s *service) SetUserRole(ctx context.Context, id, role string) error {
	role, ok := normalizeRole(role)
	if !ok {
		return invalid("role", "Role must be USER, SELLER or ADMIN")
	}
	return s.mutate(ctx, "user.role", "User role updated successfully.", "Failed to update user role.", func() error {
		return s.accounts.SetUserRole(ctx, id, role)
	})
}

func (s *service) ResetPassword(ctx context.Context, id string) (map[string]string, error) {
	var out map[string]string
	err := s.mutate(ctx, "user.reset_password", "Password reset email sent successfully.", "Failed to reset password.", func() error {
		var err error
		out, err = s.accounts.ResetPassword(ctx, id)
		return err
	})
	return out, err
}

func (s *service) VerifyUser(ctx context.Context, id string) error {
	return s.mutate(ctx, "user.verify", "User verified successfully.", "Failed to verify user.", func() error {
		return s.accounts.VerifyUser(ctx, id)
	})
}

func (s *service) UpdateUser(ctx context.Context, id string, in clients.UserUpdate) (*clients.User, error) {
	if in.Role != "" {
		role, ok := normalizeRole(in.Role)
		if !ok {
			return nil, invalid("role", "Role must be USER, SELLER or ADMIN")
		}
		in.Role = role
	}
	var u *clients.User
	err := s.mutate(ctx, "user.update", "User updated successfully.", "Failed to update user.", func() error {
		var err error
		u, err = s.accounts.UpdateUser(ctx, id, in)
		return err
	})
	return u, err
}

func (s *service) DeleteUser(ctx context.Context, id string) error {
	return s.mutate(ctx, "user.delete", "User deleted successfully.", "Failed to delete user.", func() error {
		return s.accounts.DeleteUser(ctx, id)
	})
}

func (s *service) ToggleSeller(ctx context.Context, id string) error {
	return s.mutate(ctx, "seller.toggle", "Seller status updated successfully.", "Failed to update seller status.", func() error {
		return s.accounts.ToggleSeller(ctx, id)
	})
}

func (s *service) DeleteSeller(ctx context.Context, id string) error {
	return s.mutate(ctx, "seller.delete", "Seller deleted successfully.", "Failed to delete seller.", func() error {
		return s.accounts.DeleteSeller(ctx, id)
	})
}

func (s *service) Orders(ctx context.Context, page, size int) (*clients.Page[clients.Order], error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.orders.All(ctx, max(page, 0), s.size(size))
}

func (s *service) SetOrderStatus(ctx context.Context, id, status string) (*clients.Order, error) {
	status, ok := normalizeOrderStatus(status)
	if !ok {
		return nil, invalid("status", "Unknown order status")
	}
	label := strings.ToLower(strings.ReplaceAll(status, "_", " "))
	var o *clients.Order
	err := s.mutate(ctx, "order.status", fmt.Sprintf("Order status updated to %s.", label), "Failed to update order status.", func() error {
		var err error
		o, err = s.orders.UpdateStatus(ctx, id, status)
		return err
	})
	return o, err
}

// SellerDashboard lists the signed-in seller's books with summary counts.
func (s *service) SellerDashboard(ctx context.Context) (*SellerDashboard, error) {
	session, err := s.auth.Require(ctx, auth.RoleSeller)
	if errors.Is(err, clients.ErrForbidden) {
		return nil, clients.Forbidden("Access denied. Seller privileges required.")
	}
	if err != nil {
		return nil, err
	}

	books, err := s.books.BySeller(ctx, session.UserID())
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []clients.Book{}
	}
	name := "Seller"
	if session.Profile != nil && (session.Profile.FirstName != "" || session.Profile.Name != "") {
		name = session.Profile.DisplayName()
	}
	return &SellerDashboard{Seller: name, Books: books, Stats: sellerStats(books)}, nil
}
