package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ID          string           `json:"id"`
	OrderID     string           `json:"orderId"`
	ProductID   string           `json:"productId"`
	ProductName string           `json:"productName"`
	UnitPrice   decimal.Decimal  `json:"unitPrice"`
	Quantity    int              `json:"quantity"`
	TotalPrice  *decimal.Decimal `json:"totalPrice,omitempty"`
	ImageURL    string           `json:"imageUrl,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	ShippingAddress string          `json:"shippingAddress"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          OrderStatus     `json:"status"`
	OrderItems      []OrderItem     `json:"orderItems"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       *time.Time      `json:"updatedAt,omitempty"`
}

type CreateOrderItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// CreateOrderRequest is built from a cart snapshot at checkout time.
type CreateOrderRequest struct {
	CustomerName    string            `json:"customerName"`
	CustomerEmail   string            `json:"customerEmail"`
	ShippingAddress string            `json:"shippingAddress"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	Items           []CreateOrderItem `json:"items"`
}

type OrderNotification struct {
	OrderID   string `json:"orderId"`
	UserID    string `json:"userId"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
