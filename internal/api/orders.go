package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type OrdersAPI struct {
	c *Client
}

// Create places an order. A retried call with the same idempotencyKey must
// not create a second order.
func (o *OrdersAPI) Create(ctx context.Context, req domain.CreateOrderRequest, idempotencyKey string) (*domain.Order, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}

	var order domain.Order
	err := o.c.do(ctx, request{
		method:  http.MethodPost,
		base:    o.c.orderURL,
		path:    "/orders",
		body:    req,
		headers: headers,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (o *OrdersAPI) MyOrders(ctx context.Context, page, pageSize int) ([]domain.Order, error) {
	var orders []domain.Order
	err := o.c.do(ctx, request{
		method: http.MethodGet,
		base:   o.c.orderURL,
		path:   "/orders/my-orders",
		query:  pageQuery(page, pageSize),
	}, &orders)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (o *OrdersAPI) Get(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := o.c.do(ctx, request{
		method: http.MethodGet,
		base:   o.c.orderURL,
		path:   "/orders/" + url.PathEscape(id),
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (o *OrdersAPI) Cancel(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := o.c.do(ctx, request{
		method: http.MethodPatch,
		base:   o.c.orderURL,
		path:   "/orders/" + url.PathEscape(id) + "/cancel",
		body:   struct{}{},
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}
