package models

import "time"

// OrderStatus is the lifecycle state of an order. Only completed orders count as revenue.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// OrderItem represents a single item within an order.
type OrderItem struct {
	ProductID   string  `bson:"productId" json:"productId"`
	ProductName string  `bson:"productName" json:"productName"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Price       float64 `bson:"price" json:"price"` // Price at the time of order
	Total       float64 `bson:"total" json:"total"`
}

// Order represents a customer order.
type Order struct {
	ID          string      `bson:"_id" json:"id"`
	UserID      string      `bson:"userId" json:"userId"`
	Items       []OrderItem `bson:"items" json:"items"`
	TotalAmount float64     `bson:"totalAmount" json:"totalAmount"`
	Status      OrderStatus `bson:"status" json:"status"`
	CreatedAt   time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time   `bson:"updatedAt" json:"updatedAt"`
}
