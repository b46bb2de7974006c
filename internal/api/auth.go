package api

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type AuthAPI struct {
	c *Client
}

func (a *AuthAPI) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		base:   a.c.authURL,
		path:   "/auth/login",
		body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *AuthAPI) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		base:   a.c.authURL,
		path:   "/auth/register",
		body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
