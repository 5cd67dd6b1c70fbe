// Package gateway provides the HTTP client for the remote products service.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/travelexperts/catalog/internal/product"
)

// DefaultTimeout is the transport timeout used by NewClient when none is given.
const DefaultTimeout = 10 * time.Second

// maxErrorBody bounds how much of a failed response is kept in a StatusError.
const maxErrorBody = 512

// Client issues the four catalog operations against a fixed base URL.
// It holds no state besides its configuration and is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for baseURL. A zero timeout means DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP creates a Client that uses hc for all requests.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListProducts calls GET /products and returns the records in server order.
func (c *Client) ListProducts(ctx context.Context) ([]product.Product, error) {
	const op = "list products"
	resp, err := c.do(ctx, op, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var products []product.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrDecode, err)
	}
	if products == nil {
		products = []product.Product{}
	}
	return products, nil
}

// CreateProduct calls POST /products with {ProductId: 0, ProdName: name}.
// The service assigns the identifier; it is not returned.
func (c *Client) CreateProduct(ctx context.Context, name string) error {
	return c.mutate(ctx, "create product", http.MethodPost, "/products", product.New(name))
}

// UpdateProduct calls PUT /products/{id} with the full record.
func (c *Client) UpdateProduct(ctx context.Context, id int, name string) error {
	p := product.Product{ID: id, Name: name}
	return c.mutate(ctx, "update product", http.MethodPut, fmt.Sprintf("/products/%d", id), p)
}

// DeleteProduct calls DELETE /products/{id}.
func (c *Client) DeleteProduct(ctx context.Context, id int) error {
	return c.mutate(ctx, "delete product", http.MethodDelete, fmt.Sprintf("/products/%d", id), nil)
}

// mutate performs a request whose success is signaled by status alone.
func (c *Client) mutate(ctx context.Context, op, method, path string, body any) error {
	resp, err := c.do(ctx, op, method, path, body)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// do sends one request and returns the response only for 2xx statuses.
func (c *Client) do(ctx context.Context, op, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encoding body: %w", op, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}
