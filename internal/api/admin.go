package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// AdminAPI covers the back-office statistics and order management endpoints.
type AdminAPI struct {
	c *Client
}

func (a *AdminAPI) StatsOverview(ctx context.Context) (*domain.StatsOverview, error) {
	var stats domain.StatsOverview
	err := a.c.do(ctx, request{
		method: http.MethodGet,
		base:   a.c.orderURL,
		path:   "/admin/orders/stats/overview",
	}, &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (a *AdminAPI) RecentOrders(ctx context.Context, limit int) ([]domain.RecentOrder, error) {
	var orders []domain.RecentOrder
	err := a.c.do(ctx, request{
		method: http.MethodGet,
		base:   a.c.orderURL,
		path:   "/admin/orders/stats/recent-orders",
		query:  url.Values{"limit": {strconv.Itoa(limit)}},
	}, &orders)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (a *AdminAPI) TopProducts(ctx context.Context, limit int) ([]domain.TopProduct, error) {
	var products []domain.TopProduct
	err := a.c.do(ctx, request{
		method: http.MethodGet,
		base:   a.c.orderURL,
		path:   "/admin/orders/stats/top-products",
		query:  url.Values{"limit": {strconv.Itoa(limit)}},
	}, &products)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (a *AdminAPI) LowStockProducts(ctx context.Context, threshold int) ([]domain.LowStockProduct, error) {
	var products []domain.LowStockProduct
	err := a.c.do(ctx, request{
		method: http.MethodGet,
		base:   a.c.productURL,
		path:   "/admin/products/stats/low-stock-products",
		query:  url.Values{"threshold": {strconv.Itoa(threshold)}},
	}, &products)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (a *AdminAPI) TotalProducts(ctx context.Context) (int, error) {
	var resp struct {
		TotalProducts int `json:"totalProducts"`
	}
	err := a.c.do(ctx, request{
		method: http.MethodGet,
		base:   a.c.productURL,
		path:   "/admin/products/stats/total-products",
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.TotalProducts, nil
}

func (a *AdminAPI) AllOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	query := pageQuery(filter.Page, filter.PageSize)
	if filter.Status != nil {
		query.Set("status", filter.Status.String())
	}
	if filter.SearchTerm != "" {
		query.Set("searchTerm", filter.SearchTerm)
	}

	var orders []domain.Order
	err := a.c.do(ctx, request{
		method: http.MethodGet,
		base:   a.c.orderURL,
		path:   "/admin/orders/orders",
		query:  query,
	}, &orders)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus sends the numeric status code the admin endpoint expects.
func (a *AdminAPI) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	return a.c.do(ctx, request{
		method: http.MethodPut,
		base:   a.c.orderURL,
		path:   "/admin/orders/" + url.PathEscape(orderID) + "/status",
		body:   domain.UpdateOrderStatusRequest{Status: domain.OrderStatusCode(status)},
	}, nil)
}

func (a *AdminAPI) OrderNotes(ctx context.Context, orderID string) ([]domain.OrderNote, error) {
	var notes []domain.OrderNote
	err := a.c.do(ctx, request{
		method: http.MethodGet,
		base:   a.c.orderURL,
		path:   "/admin/orders/orders/" + url.PathEscape(orderID) + "/notes",
	}, &notes)
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (a *AdminAPI) AddOrderNote(ctx context.Context, orderID, note string) (*domain.OrderNote, error) {
	var created domain.OrderNote
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		base:   a.c.orderURL,
		path:   "/admin/orders/orders/" + url.PathEscape(orderID) + "/notes",
		body:   domain.AddOrderNoteRequest{Note: note},
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}
