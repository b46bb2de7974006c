package domain

import "github.com/shopspring/decimal"

// Pricing holds the checkout charges applied on top of the cart subtotal.
type Pricing struct {
	TaxRate          decimal.Decimal
	ShippingFee      decimal.Decimal
	FreeShippingOver decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:          decimal.RequireFromString("0.08"),
		ShippingFee:      decimal.RequireFromString("5.99"),
		FreeShippingOver: decimal.NewFromInt(50),
	}
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Shipping is free above the threshold and for an empty cart.
func (p Pricing) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() || subtotal.GreaterThan(p.FreeShippingOver) {
		return decimal.Zero
	}
	return p.ShippingFee
}

func (p Pricing) Quote(lines []CartLine) Totals {
	subtotal := Subtotal(lines)
	tax := subtotal.Mul(p.TaxRate).Round(2)
	shipping := p.Shipping(subtotal)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}
