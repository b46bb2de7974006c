package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

const maxLineQuantity = 99

// ProductLookup resolves a product before it lands in the cart or wishlist.
type ProductLookup interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type CartHandler struct {
	cart     *cart.Manager
	checkout *checkout.Service
	products ProductLookup
	timeout  time.Duration
}

func NewCartHandler(c *cart.Manager, co *checkout.Service, products ProductLookup, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:     c,
		checkout: co,
		products: products,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartDTO struct {
	Items     []domain.CartLine `json:"items"`
	ItemCount int               `json:"itemCount"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
}

func toCartDTO(s cart.Snapshot) CartDTO {
	items := s.Lines
	if items == nil {
		items = []domain.CartLine{}
	}
	return CartDTO{Items: items, ItemCount: s.ItemCount, Subtotal: s.Subtotal}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toCartDTO(h.cart.Snapshot()))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > maxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.products.Get(ctx, req.ProductID)
	if err != nil {
		handleError(w, err)
		return
	}
	if !product.IsActive {
		respondError(w, http.StatusConflict, "product_inactive", "product is not available")
		return
	}

	if err := h.cart.AddItem(ctx, product.CartLine(req.Quantity)); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toCartDTO(h.cart.Snapshot()))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	if !h.cart.Contains(productID) {
		respondError(w, http.StatusNotFound, "not_found", "product is not in the cart")
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity > maxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must not exceed 99")
		return
	}

	// A quantity of zero or less removes the line.
	h.cart.UpdateQuantity(ctx, productID, req.Quantity)
	respondJSON(w, http.StatusOK, toCartDTO(h.cart.Snapshot()))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.cart.RemoveItem(ctx, chi.URLParam(r, "product_id"))
	respondJSON(w, http.StatusOK, toCartDTO(h.cart.Snapshot()))
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.cart.Clear(ctx)
	w.WriteHeader(http.StatusNoContent)
}

// Sync pushes the local cart to the cart service and waits for the result.
func (h *CartHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.cart.SyncNow(ctx); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartDTO(h.cart.Snapshot()))
}

// Fetch replaces the local cart with the server copy.
func (h *CartHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.cart.FetchFromBackend(ctx); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartDTO(h.cart.Snapshot()))
}

func (h *CartHandler) Quote(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.checkout.Quote())
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var customer checkout.Customer
	if !decodeJSON(w, r, &customer) {
		return
	}

	order, err := h.checkout.PlaceOrder(ctx, customer)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}
