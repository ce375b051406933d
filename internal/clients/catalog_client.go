// internal/clients/catalog_client.go
package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CatalogClient talks to the book endpoints of the catalog service.
type CatalogClient struct {
	api *Client
}

func NewCatalogClient(api *Client) *CatalogClient {
	return &CatalogClient{api: api}
}

func paged(path string, page, size int) string {
	return fmt.Sprintf("%s?page=%d&size=%d", path, page, size)
}

func (c *CatalogClient) page(ctx context.Context, endpoint string) (*Page[Book], error) {
	var p Page[Book]
	if err := c.api.Do(ctx, endpoint, RequestOptions{}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *CatalogClient) ListBooks(ctx context.Context, page, size int) (*Page[Book], error) {
	return c.page(ctx, paged("/books", page, size))
}

func (c *CatalogClient) GetBook(ctx context.Context, id string) (*Book, error) {
	var b Book
	if err := c.api.Do(ctx, "/books/"+url.PathEscape(id), RequestOptions{}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *CatalogClient) Search(ctx context.Context, query string, page, size int) (*Page[Book], error) {
	return c.page(ctx, fmt.Sprintf("/books/search?q=%s&page=%d&size=%d", url.QueryEscape(query), page, size))
}

func (c *CatalogClient) ByCategory(ctx context.Context, category string, page, size int) (*Page[Book], error) {
	return c.page(ctx, paged("/books/category/"+url.PathEscape(category), page, size))
}

func (c *CatalogClient) ByAuthor(ctx context.Context, author string, page, size int) (*Page[Book], error) {
	return c.page(ctx, paged("/books/author/"+url.PathEscape(author), page, size))
}

// Listing fetches one of the curated lists: featured, bestsellers or
// new-releases.
func (c *CatalogClient) Listing(ctx context.Context, name string, page, size int) (*Page[Book], error) {
	return c.page(ctx, paged("/books/"+name, page, size))
}

func (c *CatalogClient) Categories(ctx context.Context) ([]Category, error) {
	var cats []Category
	if err := c.api.Do(ctx, "/books/categories", RequestOptions{}, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *CatalogClient) Filter(ctx context.Context, filters url.Values, page, size int) (*Page[Book], error) {
	q := url.Values{}
	for k, v := range filters {
		q[k] = v
	}
	q.Set("page", fmt.Sprint(page))
	q.Set("size", fmt.Sprint(size))
	return c.page(ctx, "/books/filter?"+q.Encode())
}

func (c *CatalogClient) BySeller(ctx context.Context, sellerID string) ([]Book, error) {
	resp, err := c.api.Request(ctx, "/books/seller/"+url.PathEscape(sellerID), RequestOptions{})
	if err != nil {
		return nil, err
	}
	// The seller listing is a plain array on some deployments and a page on others.
	var books []Book
	if err := resp.Decode(&books); err == nil {
		return books, nil
	}
	var p Page[Book]
	if err := resp.Decode(&p); err != nil {
		return nil, err
	}
	return p.Content, nil
}

func (c *CatalogClient) CreateBook(ctx context.Context, in BookInput) (*Book, error) {
	var b Book
	if err := c.api.Do(ctx, "/books", RequestOptions{Method: http.MethodPost, Body: in}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *CatalogClient) UpdateBook(ctx context.Context, id string, in BookInput) (*Book, error) {
	var b Book
	if err := c.api.Do(ctx, "/books/"+url.PathEscape(id), RequestOptions{Method: http.MethodPut, Body: in}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *CatalogClient) DeleteBook(ctx context.Context, id string) error {
	return c.api.Do(ctx, "/books/"+url.PathEscape(id), RequestOptions{Method: http.MethodDelete}, nil)
}
