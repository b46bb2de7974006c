package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type ProductCatalog interface {
	ProductLookup
	Search(ctx context.Context, query domain.ProductQuery) (*domain.Page[domain.Product], error)
	Create(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error)
	Update(ctx context.Context, id string, req domain.UpdateProductRequest) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	ToggleStatus(ctx context.Context, id string) (*domain.Product, error)
}

type ProductHandler struct {
	products ProductCatalog
	timeout  time.Duration
}

func NewProductHandler(products ProductCatalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		products: products,
		timeout:  timeout,
	}
}

// parseProductQuery reads page/pageSize/search/sortBy/sortOrder/minPrice/maxPrice/inStock.
func parseProductQuery(r *http.Request) (domain.ProductQuery, string) {
	q := r.URL.Query()
	query := domain.ProductQuery{
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	var err error
	if v := q.Get("page"); v != "" {
		if query.Page, err = strconv.Atoi(v); err != nil || query.Page < 1 {
			return query, "page must be a positive integer"
		}
	}
	if v := q.Get("pageSize"); v != "" {
		if query.PageSize, err = strconv.Atoi(v); err != nil || query.PageSize < 1 || query.PageSize > 100 {
			return query, "pageSize must be between 1 and 100"
		}
	}
	if v := q.Get("minPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return query, "minPrice must be a number"
		}
		query.MinPrice = &d
	}
	if v := q.Get("maxPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return query, "maxPrice must be a number"
		}
		query.MaxPrice = &d
	}
	if v := q.Get("inStock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return query, "inStock must be true or false"
		}
		query.InStock = &b
	}
	return query, ""
}

func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	query, msg := parseProductQuery(r)
	if msg != "" {
		respondError(w, http.StatusBadRequest, "invalid_query", msg)
		return
	}

	page, err := h.products.Search(ctx, query)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.products.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.CreateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	if req.Price.IsNegative() || req.Stock < 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "price and stock must not be negative")
		return
	}

	product, err := h.products.Create(ctx, req)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.UpdateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.products.Update(ctx, chi.URLParam(r, "id"), req)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.products.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.products.ToggleStatus(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}
