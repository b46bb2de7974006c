package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type StatsOverview struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalOrders       int             `json:"totalOrders"`
	RevenueThisMonth  decimal.Decimal `json:"revenueThisMonth"`
	OrdersThisMonth   int             `json:"ordersThisMonth"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

type RecentOrder struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type TopProduct struct {
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	QuantitySold int             `json:"quantitySold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type LowStockProduct struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Stock    int             `json:"stock"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
}

type OrderNote struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"orderId"`
	AdminUserID   string    `json:"adminUserId"`
	AdminUsername string    `json:"adminUsername"`
	Note          string    `json:"note"`
	CreatedAt     time.Time `json:"createdAt"`
}

type AddOrderNoteRequest struct {
	Note string `json:"note"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatusCode `json:"status"`
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status     *OrderStatus
	SearchTerm string
	Page       int
	PageSize   int
}

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type UserWithRoles struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	Roles     []Role    `json:"roles"`
}

type AssignRoleRequest struct {
	RoleID string `json:"roleId"`
}

type CreateUserRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	RoleIDs  []string `json:"roleIds"`
}
