package paymentprovider

import (
	"encoding/json"
	"time"
)

// Mode — режим сессии оплаты.
type Mode string

// Режимы оплаты.
const (
	ModePayment      Mode = "payment"
	ModeSubscription Mode = "subscription"
)

// Ключи метаданных сессии. Значения приходят обратно от провайдера и не считаются доверенными.
const (
	MetadataProductSlug = "product_slug"
	MetadataUserID      = "user_id"
)

// CheckoutParams — параметры новой сессии оплаты.
type CheckoutParams struct {
	Mode          Mode
	PriceID       string
	Quantity      int64
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Metadata      map[string]string
}

// CheckoutSession — сессия оплаты в терминах магазина.
type CheckoutSession struct {
	ID             string
	URL            string
	Mode           Mode
	PaymentStatus  string
	Status         string
	Metadata       map[string]string
	SubscriptionID string
	CustomerID     string
	CustomerEmail  string
	AmountTotal    int64
	Currency       string
}

// IsPaid сообщает, оплачена ли сессия.
func (s *CheckoutSession) IsPaid() bool {
	return s.PaymentStatus == "paid" || s.Status == "complete"
}

// SubscriptionSnapshot — состояние подписки у провайдера на момент запроса или события.
// CurrentPeriodEnd равен nil, если провайдер его не сообщил.
type SubscriptionSnapshot struct {
	ID                string
	Status            string
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
	CustomerID        string
	PriceID           string
}

// Event — проверенное событие webhook. Raw содержит data.object.
type Event struct {
	ID      string
	Type    string
	Created time.Time
	Raw     json.RawMessage
}

// Типы событий, которые обрабатывает магазин.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)
