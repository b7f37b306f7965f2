package models

import "time"

// SubscriptionStatus — статус подписки у платёжного провайдера.
type SubscriptionStatus string

// Статусы подписки.
const (
	StatusIncomplete        SubscriptionStatus = "incomplete"
	StatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusActive            SubscriptionStatus = "active"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusCanceled          SubscriptionStatus = "canceled"
	StatusUnpaid            SubscriptionStatus = "unpaid"
	StatusPaused            SubscriptionStatus = "paused"
)

// ParseSubscriptionStatus приводит строку провайдера к статусу.
// Неизвестные значения не дают доступа и сохраняются как incomplete.
func ParseSubscriptionStatus(s string) SubscriptionStatus {
	switch st := SubscriptionStatus(s); st {
	case StatusIncomplete, StatusIncompleteExpired, StatusTrialing, StatusActive,
		StatusPastDue, StatusCanceled, StatusUnpaid, StatusPaused:
		return st
	default:
		return StatusIncomplete
	}
}

// grantsAccess — статусы, при которых подписка даёт доступ (при непросроченном периоде).
func (s SubscriptionStatus) grantsAccess() bool {
	switch s {
	case StatusActive, StatusTrialing, StatusPastDue:
		return true
	default:
		return false
	}
}

// Subscription — локальная копия подписки провайдера.
type Subscription struct {
	ID                   int64              `json:"id"`
	UserUID              string             `json:"user_uid"`
	StripeSubscriptionID string             `json:"stripe_subscription_id"`
	StripeCustomerID     string             `json:"stripe_customer_id,omitempty"`
	PriceID              string             `json:"price_id,omitempty"`
	Status               SubscriptionStatus `json:"status"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool               `json:"cancel_at_period_end"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// IsActiveNow — единственный критерий платного доступа: статус даёт доступ
// и конец текущего периода известен и ещё не наступил.
func (s *Subscription) IsActiveNow(now time.Time) bool {
	if s == nil || !s.Status.grantsAccess() || s.CurrentPeriodEnd == nil {
		return false
	}
	return s.CurrentPeriodEnd.After(now)
}

// SubscriptionView — подписка с вычисленным признаком активности для админки.
type SubscriptionView struct {
	Subscription
	ActiveNow bool `json:"active_now"`
}

// SubscriptionState — снимок состояния подписки, которым перезаписывается локальная запись.
type SubscriptionState struct {
	Status            SubscriptionStatus
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
}
