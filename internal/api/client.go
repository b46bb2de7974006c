// Package api wraps the storefront backend resources in typed calls.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxErrorBody = 1 << 20

type Config struct {
	AuthURL    string
	ProductURL string
	OrderURL   string
	Timeout    time.Duration
	// Transport is the middleware chain requests go through. Nil means
	// http.DefaultTransport.
	Transport http.RoundTripper
}

type Client struct {
	http       *http.Client
	authURL    string
	productURL string
	orderURL   string

	Auth     *AuthAPI
	Products *ProductsAPI
	Carts    *CartAPI
	Orders   *OrdersAPI
	Admin    *AdminAPI
	Users    *UsersAPI
}

func New(cfg Config) *Client {
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	c := &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		authURL:    strings.TrimRight(cfg.AuthURL, "/"),
		productURL: strings.TrimRight(cfg.ProductURL, "/"),
		orderURL:   strings.TrimRight(cfg.OrderURL, "/"),
	}
	c.Auth = &AuthAPI{c: c}
	c.Products = &ProductsAPI{c: c}
	c.Carts = &CartAPI{c: c}
	c.Orders = &OrdersAPI{c: c}
	c.Admin = &AdminAPI{c: c}
	c.Users = &UsersAPI{c: c}
	return c
}

type request struct {
	method  string
	base    string
	path    string
	query   url.Values
	body    any
	headers map[string]string
}

// do sends r and decodes a JSON response into out (if not nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	target := r.base + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal %s %s request: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return newTransportError(r.method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newStatusError(r.method, target, resp.StatusCode, data)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return newTransportError(r.method, target, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", r.method, r.path, err)
	}
	return nil
}

func pageQuery(page, pageSize int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if pageSize > 0 {
		q.Set("pageSize", fmt.Sprint(pageSize))
	}
	return q
}
