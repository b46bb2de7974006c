// Package checkout prices the cart and turns it into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

var (
	ErrEmptyCart       = errors.New("cart is empty, nothing to checkout")
	ErrInvalidCustomer = errors.New("invalid customer details")
)

// OrderCreator places orders on the order service.
type OrderCreator interface {
	Create(ctx context.Context, req domain.CreateOrderRequest, idempotencyKey string) (*domain.Order, error)
}

// Cart is the part of the cart manager checkout needs.
type Cart interface {
	Snapshot() cart.Snapshot
	Clear(ctx context.Context)
}

type Address struct {
	Line1      string `json:"addressLine1"`
	Line2      string `json:"addressLine2,omitempty"`
	City       string `json:"city"`
	Division   string `json:"division"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// String renders the single-line form the order service stores.
func (a Address) String() string {
	var b strings.Builder
	b.WriteString(a.Line1)
	b.WriteString(", ")
	if a.Line2 != "" {
		b.WriteString(a.Line2)
		b.WriteString(", ")
	}
	fmt.Fprintf(&b, "%s, %s %s, %s", a.City, a.Division, a.PostalCode, a.Country)
	return b.String()
}

type Customer struct {
	FullName string  `json:"fullName"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone,omitempty"`
	Address  Address `json:"address"`
}

func (c Customer) Validate() error {
	var errs []error
	if strings.TrimSpace(c.FullName) == "" {
		errs = append(errs, errors.New("full name is required"))
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		errs = append(errs, fmt.Errorf("email %q is invalid", c.Email))
	}
	if strings.TrimSpace(c.Address.Line1) == "" {
		errs = append(errs, errors.New("address line 1 is required"))
	}
	if strings.TrimSpace(c.Address.City) == "" {
		errs = append(errs, errors.New("city is required"))
	}
	if strings.TrimSpace(c.Address.Country) == "" {
		errs = append(errs, errors.New("country is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCustomer, errors.Join(errs...))
	}
	return nil
}

type Service struct {
	cart    Cart
	orders  OrderCreator
	pricing domain.Pricing
	log     logrus.FieldLogger
}

func NewService(c Cart, orders OrderCreator, pricing domain.Pricing, log logrus.FieldLogger) *Service {
	return &Service{
		cart:    c,
		orders:  orders,
		pricing: pricing,
		log:     log.WithField("component", "checkout"),
	}
}

// Quote prices the current cart.
func (s *Service) Quote() domain.Totals {
	return s.pricing.Quote(s.cart.Snapshot().Lines)
}

// PlaceOrder submits the current cart as an order and clears the cart once
// the order service accepts it. The cart is left untouched on failure.
func (s *Service) PlaceOrder(ctx context.Context, customer Customer) (*domain.Order, error) {
	snap := s.cart.Snapshot()
	if len(snap.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	totals := s.pricing.Quote(snap.Lines)
	req := domain.CreateOrderRequest{
		CustomerName:    strings.TrimSpace(customer.FullName),
		CustomerEmail:   strings.TrimSpace(customer.Email),
		ShippingAddress: customer.Address.String(),
		TotalAmount:     totals.Total,
		Items:           make([]domain.CreateOrderItem, 0, len(snap.Lines)),
	}
	for _, l := range snap.Lines {
		req.Items = append(req.Items, domain.CreateOrderItem{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.Price,
			Quantity:    l.Quantity,
			ImageURL:    l.ImageURL,
		})
	}

	key := uuid.New().String()
	order, err := s.orders.Create(ctx, req, key)
	if err != nil {
		s.log.WithError(err).WithField("idempotency_key", key).Error("failed to place order")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	s.cart.Clear(ctx)
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"total":    totals.Total.StringFixed(2),
	}).Info("order placed")
	return order, nil
}
