// internal/clients/auth_client.go
package clients

import (
	"context"
	"net/http"
	"net/url"
)

// AuthClient covers login, registration and profile endpoints.
type AuthClient struct {
	api *Client
}

func NewAuthClient(api *Client) *AuthClient {
	return &AuthClient{api: api}
}

func (c *AuthClient) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.api.Do(ctx, EndpointLogin, RequestOptions{Method: http.MethodPost, Body: creds}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AuthClient) Register(ctx context.Context, reg Registration) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.api.Do(ctx, EndpointRegister, RequestOptions{Method: http.MethodPost, Body: reg}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate asks the auth service whether token is still accepted.
func (c *AuthClient) Validate(ctx context.Context, token string) error {
	return c.api.Do(ctx, EndpointValidate, RequestOptions{
		Method:  http.MethodPost,
		Headers: map[string]string{"Authorization": "Bearer " + token},
	}, nil)
}

func (c *AuthClient) Profile(ctx context.Context, userID string) (*User, error) {
	var u User
	if err := c.api.Do(ctx, EndpointProfile+"/"+url.PathEscape(userID), RequestOptions{}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *AuthClient) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*User, error) {
	var u User
	err := c.api.Do(ctx, EndpointProfile+"/"+url.PathEscape(userID), RequestOptions{Method: http.MethodPut, Body: in}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
