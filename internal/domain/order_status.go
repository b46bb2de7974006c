package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// OrderStatus is stored as its label. The order service reports it either as
// the label or as the numeric enum code; both decode to the same value.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
	OrderStatusUnknown    OrderStatus = "Unknown"
)

// statusCodes is the backend enum order: 0=Pending ... 4=Cancelled.
var statusCodes = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func OrderStatusFromCode(code int) OrderStatus {
	if code < 0 || code >= len(statusCodes) {
		return OrderStatusUnknown
	}
	return statusCodes[code]
}

// ParseOrderStatus accepts a label in any case or a numeric code.
func ParseOrderStatus(s string) OrderStatus {
	s = strings.TrimSpace(s)
	if code, err := strconv.Atoi(s); err == nil {
		return OrderStatusFromCode(code)
	}
	for _, st := range statusCodes {
		if strings.EqualFold(string(st), s) {
			return st
		}
	}
	return OrderStatusUnknown
}

// Code returns the numeric enum value, or -1 for Unknown.
func (s OrderStatus) Code() int {
	for i, st := range statusCodes {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		*s = OrderStatusFromCode(code)
		return nil
	}
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return fmt.Errorf("order status: %w", err)
	}
	*s = ParseOrderStatus(label)
	return nil
}

// OrderStatusCode marshals as the numeric code; used by the admin
// status update endpoint.
type OrderStatusCode OrderStatus

func (c OrderStatusCode) MarshalJSON() ([]byte, error) {
	code := OrderStatus(c).Code()
	if code < 0 {
		return nil, fmt.Errorf("order status %q has no code", string(c))
	}
	return []byte(strconv.Itoa(code)), nil
}
