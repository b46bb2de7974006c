package domain

import "github.com/shopspring/decimal"

func init() {
	// backend contracts carry prices as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type CartLine struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// LineTotal is price × quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SetCartRequest is the full-replace body of POST /cart.
type SetCartRequest struct {
	Items []CartLine `json:"items"`
}

type CartResponse struct {
	ID        string             `json:"id"`
	UserID    string             `json:"userId"`
	CartItems []CartItemResponse `json:"cartItems"`
}

type CartItemResponse struct {
	ID          string          `json:"id"`
	CartID      string          `json:"cartId"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// Lines drops the server-side ids and keeps what the local cart stores.
func (r *CartResponse) Lines() []CartLine {
	lines := make([]CartLine, 0, len(r.CartItems))
	for _, item := range r.CartItems {
		lines = append(lines, CartLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       item.Price,
			Quantity:    item.Quantity,
			ImageURL:    item.ImageURL,
		})
	}
	return lines
}

// ItemCount sums quantities.
func ItemCount(lines []CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// Subtotal sums price × quantity over all lines.
func Subtotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}
