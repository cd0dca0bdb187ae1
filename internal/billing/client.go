// Package billing talks to the external billing provider that owns the
// product catalogue and checkout sessions.
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrUpstream wraps any non-2xx answer from the provider.
var ErrUpstream = errors.New("billing provider error")

// Checkout is the session a client is redirected to.
type Checkout struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Client struct {
	baseURL        string
	accessToken    string
	organizationID string
	http           *http.Client
}

func NewClient(baseURL, accessToken, organizationID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:        baseURL,
		accessToken:    accessToken,
		organizationID: organizationID,
		http:           httpClient,
	}
}

// ListProducts returns the catalogue items as the provider encodes them.
func (c *Client) ListProducts(ctx context.Context) ([]json.RawMessage, error) {
	q := url.Values{}
	q.Set("limit", "100")
	if c.organizationID != "" {
		q.Set("organization_id", c.organizationID)
	}
	var page struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/products/?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// CreateCheckout opens a checkout session for the given product ids.
func (c *Client) CreateCheckout(ctx context.Context, productIDs []string) (*Checkout, error) {
	var checkout Checkout
	body := map[string]interface{}{"products": productIDs}
	if err := c.do(ctx, http.MethodPost, "/v1/checkouts/", body, &checkout); err != nil {
		return nil, err
	}
	return &checkout, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrUpstream, method, path, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return nil
}
