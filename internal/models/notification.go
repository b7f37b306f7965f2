package models

import "time"

// OrderPaidMessage публикуется после создания оплаченного заказа.
type OrderPaidMessage struct {
	OrderID         int64  `json:"order_id"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	ProductName     string `json:"product_name"`
	TotalMinorUnits int64  `json:"total_minor_units"`
	Currency        string `json:"currency"`
}

// SubscriptionExpiringMessage публикуется планировщиком незадолго до конца периода.
type SubscriptionExpiringMessage struct {
	Email             string    `json:"email"`
	Username          string    `json:"username"`
	CurrentPeriodEnd  time.Time `json:"current_period_end"`
	CancelAtPeriodEnd bool      `json:"cancel_at_period_end"`
}

// ExpiringSubscription — строка выборки для планировщика.
type ExpiringSubscription struct {
	Subscription
	Email    string
	Username string
}
