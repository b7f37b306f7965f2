package models

import "time"

// Order — заказ, созданный по завершённой сессии оплаты.
// StripeSessionID — ключ идемпотентности: на одну сессию ровно один заказ.
type Order struct {
	ID              int64       `json:"id"`
	UserUID         string      `json:"user_uid"`
	StripeSessionID string      `json:"stripe_session_id"`
	TotalMinorUnits int64       `json:"total_minor_units"`
	Currency        string      `json:"currency"`
	Paid            bool        `json:"paid"`
	Approved        bool        `json:"approved"`
	ApprovedBy      *string     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time  `json:"approved_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	Items           []OrderItem `json:"items,omitempty"`
}

// OrderItem — строка заказа. Цена фиксируется на момент покупки и не пересчитывается.
type OrderItem struct {
	ID              int64  `json:"id"`
	OrderID         int64  `json:"order_id"`
	ProductID       int64  `json:"product_id"`
	ProductName     string `json:"product_name"`
	Quantity        int    `json:"quantity"`
	PriceMinorUnits int64  `json:"price_minor_units"`
}

// NewOrder описывает заказ, который нужно создать, если по сессии его ещё нет.
type NewOrder struct {
	UserUID         string
	StripeSessionID string
	TotalMinorUnits int64
	Currency        string
	Paid            bool
	Items           []OrderItem
}
