package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/wishlist"
)

type WishlistHandler struct {
	wishlist *wishlist.Manager
	cart     *cart.Manager
	products ProductLookup
	timeout  time.Duration
}

func NewWishlistHandler(wl *wishlist.Manager, c *cart.Manager, products ProductLookup, timeout time.Duration) *WishlistHandler {
	return &WishlistHandler{
		wishlist: wl,
		cart:     c,
		products: products,
		timeout:  timeout,
	}
}

type WishlistItemRequestDTO struct {
	ProductID string `json:"product_id"`
}

type WishlistDTO struct {
	Items []domain.WishlistItem `json:"items"`
	Count int                   `json:"count"`
}

func (h *WishlistHandler) list() WishlistDTO {
	items := h.wishlist.Items()
	if items == nil {
		items = []domain.WishlistItem{}
	}
	return WishlistDTO{Items: items, Count: len(items)}
}

func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.list())
}

func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req WishlistItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	product, err := h.products.Get(ctx, req.ProductID)
	if err != nil {
		handleError(w, err)
		return
	}

	status := http.StatusCreated
	if !h.wishlist.AddProduct(ctx, *product) {
		status = http.StatusOK
	}
	respondJSON(w, status, h.list())
}

func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.wishlist.Remove(ctx, chi.URLParam(r, "product_id"))
	respondJSON(w, http.StatusOK, h.list())
}

func (h *WishlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.wishlist.Clear(ctx)
	w.WriteHeader(http.StatusNoContent)
}

// MoveToCart adds one unit of a saved product to the cart and drops it from
// the wishlist.
func (h *WishlistHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	if !h.wishlist.IsPresent(productID) {
		respondError(w, http.StatusNotFound, "not_found", "product is not in the wishlist")
		return
	}

	product, err := h.products.Get(ctx, productID)
	if err != nil {
		handleError(w, err)
		return
	}
	if err := h.cart.AddItem(ctx, product.CartLine(1)); err != nil {
		handleError(w, err)
		return
	}
	h.wishlist.Remove(ctx, productID)

	respondJSON(w, http.StatusOK, toCartDTO(h.cart.Snapshot()))
}
