package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the stage an order has reached in the bakery workflow
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusBaking    OrderStatus = "Baking"
	StatusReady     OrderStatus = "Ready"
	StatusDelivered OrderStatus = "Delivered"
)

// Statuses lists every status in workflow order
var Statuses = []OrderStatus{
	StatusPending,
	StatusBaking,
	StatusReady,
	StatusDelivered,
}

// Valid reports whether s is one of the enumerated statuses
func (s OrderStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Order is an immutable record of a customer purchase. Only Status changes
// after creation.
type Order struct {
	ID           uuid.UUID       `json:"_id" db:"id"`
	CustomerName string          `json:"customerName" db:"customer_name"`
	Phone        string          `json:"phone,omitempty" db:"phone"`
	Items        []OrderItem     `json:"items"`
	Total        decimal.Decimal `json:"total" db:"total"`
	Status       OrderStatus     `json:"status" db:"status"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem holds the product reference plus the name and price frozen at
// the moment the order was placed
type OrderItem struct {
	ProductID     uuid.UUID       `json:"productId" db:"product_id"`
	NameSnapshot  string          `json:"nameSnapshot" db:"name_snapshot"`
	PriceSnapshot decimal.Decimal `json:"priceSnapshot" db:"price_snapshot"`
	Qty           int             `json:"qty" db:"qty"`
}

// LineTotal returns priceSnapshot * qty
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PriceSnapshot.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// ComputeTotal sums the line totals of the given items
func ComputeTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
