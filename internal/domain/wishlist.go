package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type WishlistItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Stock       int             `json:"stock"`
	AddedAt     time.Time       `json:"addedAt"`
}

// WishlistItemFromProduct snapshots a product at the time it is saved.
func WishlistItemFromProduct(p Product, now time.Time) WishlistItem {
	return WishlistItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		AddedAt:     now,
	}
}
