// internal/clients/admin_client.go
package clients

import (
	"context"
	"net/http"
	"net/url"
)

const adminBase = "/auth/admin"

// AdminClient covers the account administration endpoints of the auth service.
type AdminClient struct {
	api *Client
}

func NewAdminClient(api *Client) *AdminClient {
	return &AdminClient{api: api}
}

func userPath(id string, suffix string) string {
	return adminBase + "/users/" + url.PathEscape(id) + suffix
}

func (c *AdminClient) Stats(ctx context.Context) (*DashboardStats, error) {
	var s DashboardStats
	if err := c.api.Do(ctx, adminBase+"/dashboard/stats", RequestOptions{}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *AdminClient) Users(ctx context.Context, page, size int) (*Page[User], error) {
	var p Page[User]
	if err := c.api.Do(ctx, paged(adminBase+"/users", page, size), RequestOptions{}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *AdminClient) AllUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.api.Do(ctx, adminBase+"/users/all", RequestOptions{}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *AdminClient) Sellers(ctx context.Context, page, size int) (*Page[User], error) {
	var p Page[User]
	if err := c.api.Do(ctx, paged(adminBase+"/sellers", page, size), RequestOptions{}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *AdminClient) SetUserStatus(ctx context.Context, id, action string) error {
	return c.api.Do(ctx, userPath(id, "/status"), RequestOptions{
		Method: http.MethodPut,
		Body:   map[string]string{"action": action},
	}, nil)
}

func (c *AdminClient) SetUserRole(ctx context.Context, id, role string) error {
	return c.api.Do(ctx, userPath(id, "/role"), RequestOptions{
		Method: http.MethodPut,
		Body:   map[string]string{"role": role},
	}, nil)
}

// ResetPassword returns whatever the service reports, typically the temporary
// password.
func (c *AdminClient) ResetPassword(ctx context.Context, id string) (map[string]string, error) {
	var out map[string]string
	if err := c.api.Do(ctx, userPath(id, "/reset-password"), RequestOptions{Method: http.MethodPost}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminClient) VerifyUser(ctx context.Context, id string) error {
	return c.api.Do(ctx, userPath(id, "/verify"), RequestOptions{Method: http.MethodPost}, nil)
}

func (c *AdminClient) UpdateUser(ctx context.Context, id string, in UserUpdate) (*User, error) {
	var u User
	if err := c.api.Do(ctx, userPath(id, ""), RequestOptions{Method: http.MethodPut, Body: in}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *AdminClient) DeleteUser(ctx context.Context, id string) error {
	return c.api.Do(ctx, userPath(id, ""), RequestOptions{Method: http.MethodDelete}, nil)
}

func (c *AdminClient) ToggleSeller(ctx context.Context, id string) error {
	return c.api.Do(ctx, adminBase+"/sellers/"+url.PathEscape(id)+"/toggle", RequestOptions{Method: http.MethodPatch}, nil)
}

func (c *AdminClient) DeleteSeller(ctx context.Context, id string) error {
	return c.api.Do(ctx, adminBase+"/sellers/"+url.PathEscape(id), RequestOptions{Method: http.MethodDelete}, nil)
}
