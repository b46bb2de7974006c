package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(id, price string, qty int) CartLine {
	return CartLine{ProductID: id, Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestSubtotal_SumsPriceTimesQuantity(t *testing.T) {
	lines := []CartLine{line("P1", "10.00", 3), line("P2", "0.10", 3)}
	assert.True(t, decimal.RequireFromString("30.30").Equal(Subtotal(lines)))
	assert.Equal(t, 6, ItemCount(lines))
}

func TestPricing_ShippingThreshold(t *testing.T) {
	p := DefaultPricing()

	below := p.Quote([]CartLine{line("P1", "20.00", 2)})
	assert.True(t, below.Shipping.IsPositive(), "subtotal 40 pays shipping")

	above := p.Quote([]CartLine{line("P1", "20.00", 3)})
	assert.True(t, above.Shipping.IsZero(), "subtotal 60 ships free")
}

func TestPricing_EmptyCartHasNoCharges(t *testing.T) {
	totals := DefaultPricing().Quote(nil)
	assert.True(t, totals.Total.IsZero())
}

func TestPricing_Total(t *testing.T) {
	totals := DefaultPricing().Quote([]CartLine{line("P1", "10.00", 1)})
	assert.Equal(t, "0.8", totals.Tax.String())
	assert.Equal(t, "16.79", totals.Total.String())
}

func TestCartResponse_Lines(t *testing.T) {
	resp := CartResponse{CartItems: []CartItemResponse{
		{ID: "x", ProductID: "P1", ProductName: "Mug", Price: decimal.NewFromInt(4), Quantity: 2},
	}}
	lines := resp.Lines()
	assert.Len(t, lines, 1)
	assert.Equal(t, "P1", lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
}
