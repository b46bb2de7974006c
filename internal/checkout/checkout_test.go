package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/store"
)

type OrderCreatorMock struct {
	req  domain.CreateOrderRequest
	key  string
	err  error
	sent int
}

func (m *OrderCreatorMock) Create(_ context.Context, req domain.CreateOrderRequest, key string) (*domain.Order, error) {
	m.sent++
	m.req = req
	m.key = key
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Order{ID: "o1", Status: domain.OrderStatusPending, TotalAmount: req.TotalAmount}, nil
}

type noBackend struct{}

func (noBackend) Get(context.Context) (*domain.CartResponse, error) { return &domain.CartResponse{}, nil }
func (noBackend) Set(context.Context, []domain.CartLine) (*domain.CartResponse, error) {
	return &domain.CartResponse{}, nil
}

func setupCheckout(t *testing.T) (*Service, *cart.Manager, *OrderCreatorMock) {
	c := cart.NewManager(store.NewMemoryStore(), noBackend{}, logger.Discard())
	orders := &OrderCreatorMock{}
	return NewService(c, orders, domain.DefaultPricing(), logger.Discard()), c, orders
}

func validCustomer() Customer {
	return Customer{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Address: Address{
			Line1:      "12 Analytical St",
			City:       "Dhaka",
			Division:   "Dhaka",
			PostalCode: "1207",
			Country:    "Bangladesh",
		},
	}
}

func addLine(t *testing.T, c *cart.Manager, id, price string, qty int) {
	require.NoError(t, c.AddItem(context.Background(), domain.CartLine{
		ProductID: id, ProductName: "Item " + id, Price: decimal.RequireFromString(price), Quantity: qty,
	}))
}

func TestQuote_ShippingThreshold(t *testing.T) {
	s, c, _ := setupCheckout(t)

	addLine(t, c, "P1", "20.00", 2)
	q := s.Quote()
	assert.Equal(t, "40.00", q.Subtotal.StringFixed(2))
	assert.True(t, q.Shipping.IsPositive())

	addLine(t, c, "P2", "20.00", 1)
	q = s.Quote()
	assert.Equal(t, "60.00", q.Subtotal.StringFixed(2))
	assert.True(t, q.Shipping.IsZero())
	assert.Equal(t, "4.80", q.Tax.StringFixed(2))
	assert.Equal(t, "64.80", q.Total.StringFixed(2))
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	s, _, orders := setupCheckout(t)

	_, err := s.PlaceOrder(context.Background(), validCustomer())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, orders.sent)
}

func TestPlaceOrder_InvalidCustomer(t *testing.T) {
	s, c, orders := setupCheckout(t)
	addLine(t, c, "P1", "1", 1)

	customer := validCustomer()
	customer.Email = "not-an-email"
	customer.Address.City = ""

	_, err := s.PlaceOrder(context.Background(), customer)
	assert.ErrorIs(t, err, ErrInvalidCustomer)
	assert.Contains(t, err.Error(), "city is required")
	assert.Equal(t, 0, orders.sent)
	assert.Equal(t, 1, c.ItemCount())
}

func TestPlaceOrder_Success(t *testing.T) {
	s, c, orders := setupCheckout(t)
	addLine(t, c, "P1", "10.00", 1)

	order, err := s.PlaceOrder(context.Background(), validCustomer())
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)

	assert.Equal(t, "Ada Lovelace", orders.req.CustomerName)
	assert.Equal(t, "12 Analytical St, Dhaka, Dhaka 1207, Bangladesh", orders.req.ShippingAddress)
	assert.Equal(t, "16.79", orders.req.TotalAmount.StringFixed(2))
	require.Len(t, orders.req.Items, 1)
	assert.Equal(t, "P1", orders.req.Items[0].ProductID)
	assert.Len(t, orders.key, 36)

	assert.Equal(t, 0, c.ItemCount())
}

func TestPlaceOrder_FailureKeepsCart(t *testing.T) {
	s, c, orders := setupCheckout(t)
	addLine(t, c, "P1", "10.00", 1)
	orders.err = errors.New("order service down")

	_, err := s.PlaceOrder(context.Background(), validCustomer())
	require.Error(t, err)
	assert.Equal(t, 1, c.ItemCount())
}

func TestAddress_String(t *testing.T) {
	a := validCustomer().Address
	a.Line2 = "Apt 4"
	assert.Equal(t, "12 Analytical St, Apt 4, Dhaka, Dhaka 1207, Bangladesh", a.String())
}
