package api

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// CartAPI talks to the session user's server-side cart.
type CartAPI struct {
	c *Client
}

func (a *CartAPI) Get(ctx context.Context) (*domain.CartResponse, error) {
	var cart domain.CartResponse
	err := a.c.do(ctx, request{
		method: http.MethodGet,
		base:   a.c.orderURL,
		path:   "/cart",
	}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Set replaces the server cart with lines.
func (a *CartAPI) Set(ctx context.Context, lines []domain.CartLine) (*domain.CartResponse, error) {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	var cart domain.CartResponse
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		base:   a.c.orderURL,
		path:   "/cart",
		body:   domain.SetCartRequest{Items: lines},
	}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}
