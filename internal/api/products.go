package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type ProductsAPI struct {
	c *Client
}

func (p *ProductsAPI) Search(ctx context.Context, query domain.ProductQuery) (*domain.Page[domain.Product], error) {
	var page domain.Page[domain.Product]
	err := p.c.do(ctx, request{
		method: http.MethodGet,
		base:   p.c.productURL,
		path:   "/products/search",
		query:  searchQuery(query),
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func searchQuery(q domain.ProductQuery) url.Values {
	values := pageQuery(q.Page, q.PageSize)
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.SortBy != "" {
		values.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		values.Set("sortOrder", q.SortOrder)
	}
	if q.MinPrice != nil {
		values.Set("minPrice", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		values.Set("maxPrice", q.MaxPrice.String())
	}
	if q.InStock != nil {
		values.Set("inStock", strconv.FormatBool(*q.InStock))
	}
	return values
}

func (p *ProductsAPI) Get(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := p.c.do(ctx, request{
		method: http.MethodGet,
		base:   p.c.productURL,
		path:   "/products/" + url.PathEscape(id),
	}, &product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (p *ProductsAPI) Create(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	var product domain.Product
	err := p.c.do(ctx, request{
		method: http.MethodPost,
		base:   p.c.productURL,
		path:   "/products",
		body:   req,
	}, &product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (p *ProductsAPI) Update(ctx context.Context, id string, req domain.UpdateProductRequest) (*domain.Product, error) {
	var product domain.Product
	err := p.c.do(ctx, request{
		method: http.MethodPut,
		base:   p.c.productURL,
		path:   "/products/" + url.PathEscape(id),
		body:   req,
	}, &product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (p *ProductsAPI) Delete(ctx context.Context, id string) error {
	return p.c.do(ctx, request{
		method: http.MethodDelete,
		base:   p.c.productURL,
		path:   "/products/" + url.PathEscape(id),
	}, nil)
}

// ToggleStatus flips the product's active flag.
func (p *ProductsAPI) ToggleStatus(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := p.c.do(ctx, request{
		method: http.MethodPatch,
		base:   p.c.productURL,
		path:   "/products/" + url.PathEscape(id) + "/toggle-status",
		body:   struct{}{},
	}, &product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}
