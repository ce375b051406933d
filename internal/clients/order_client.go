// internal/clients/order_client.go
package clients

import (
	"context"
	"net/http"
	"net/url"
)

// OrderClient talks to the order endpoints.
type OrderClient struct {
	api *Client
}

func NewOrderClient(api *Client) *OrderClient {
	return &OrderClient{api: api}
}

func userHeader(userID string) map[string]string {
	if userID == "" {
		return nil
	}
	return map[string]string{"X-User-Id": userID}
}

func (c *OrderClient) Create(ctx context.Context, userID string, req OrderRequest) (*Order, error) {
	var o Order
	err := c.api.Do(ctx, "/orders", RequestOptions{
		Method:  http.MethodPost,
		Body:    req,
		Headers: userHeader(userID),
	}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *OrderClient) Get(ctx context.Context, id string) (*Order, error) {
	var o Order
	if err := c.api.Do(ctx, "/orders/"+url.PathEscape(id), RequestOptions{}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *OrderClient) Mine(ctx context.Context, userID string) ([]Order, error) {
	var orders []Order
	if err := c.api.Do(ctx, "/orders/my-orders", RequestOptions{Headers: userHeader(userID)}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *OrderClient) ByUser(ctx context.Context, userID string) ([]Order, error) {
	var orders []Order
	if err := c.api.Do(ctx, "/orders/user/"+url.PathEscape(userID), RequestOptions{}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *OrderClient) UpdateStatus(ctx context.Context, id, status string) (*Order, error) {
	var o Order
	err := c.api.Do(ctx, "/orders/"+url.PathEscape(id)+"/status", RequestOptions{
		Method: http.MethodPut,
		Body:   map[string]string{"status": status},
	}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *OrderClient) Cancel(ctx context.Context, id, reason string) (*Order, error) {
	var o Order
	err := c.api.Do(ctx, "/orders/"+url.PathEscape(id)+"/cancel", RequestOptions{
		Method: http.MethodPut,
		Body:   map[string]string{"reason": reason},
	}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *OrderClient) Track(ctx context.Context, id string) (map[string]any, error) {
	var t map[string]any
	if err := c.api.Do(ctx, "/orders/"+url.PathEscape(id)+"/tracking", RequestOptions{}, &t); err != nil {
		return nil, err
	}
	return t, nil
}

func (c *OrderClient) All(ctx context.Context, page, size int) (*Page[Order], error) {
	var p Page[Order]
	if err := c.api.Do(ctx, paged("/orders/admin/all", page, size), RequestOptions{}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
