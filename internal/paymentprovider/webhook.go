package paymentprovider

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
)

// VerifyEvent проверяет подпись webhook и возвращает событие.
// Без настроенного секрета любое событие отклоняется.
func (c *Client) VerifyEvent(payload []byte, signature string) (*Event, error) {
	return VerifyEvent(payload, signature, c.webhookSecret)
}

// VerifyEvent проверяет подпись тела запроса секретом webhook.
func VerifyEvent(payload []byte, signature, secret string) (*Event, error) {
	const op = "paymentprovider.VerifyEvent"
	if secret == "" {
		return nil, fmt.Errorf("%s: webhook secret is not set: %w", op, apperr.ErrAuthVerification)
	}
	if signature == "" {
		return nil, fmt.Errorf("%s: missing signature header: %w", op, apperr.ErrAuthVerification)
	}

	ev, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, apperr.ErrAuthVerification, err)
	}

	res := &Event{
		ID:      ev.ID,
		Type:    string(ev.Type),
		Created: time.Unix(ev.Created, 0).UTC(),
	}
	if ev.Data != nil {
		res.Raw = ev.Data.Raw
	}
	return res, nil
}

type webhookCheckoutSession struct {
	ID              string            `json:"id"`
	Mode            string            `json:"mode"`
	PaymentStatus   string            `json:"payment_status"`
	Status          string            `json:"status"`
	Metadata        map[string]string `json:"metadata"`
	Subscription    expandableID      `json:"subscription"`
	Customer        expandableID      `json:"customer"`
	CustomerEmail   string            `json:"customer_email"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	CustomerDetails *struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

type webhookSubscription struct {
	ID                string       `json:"id"`
	Status            string       `json:"status"`
	Customer          expandableID `json:"customer"`
	CancelAtPeriodEnd bool         `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64        `json:"current_period_end"`
	Items             struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
			Price            struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// expandableID принимает как строковый идентификатор, так и развёрнутый объект с полем id.
type expandableID string

func (e *expandableID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*e = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*e = expandableID(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*e = expandableID(obj.ID)
	return nil
}

// DecodeCheckoutSession разбирает data.object события checkout.session.completed.
func DecodeCheckoutSession(raw []byte) (*CheckoutSession, error) {
	const op = "paymentprovider.DecodeCheckoutSession"
	var s webhookCheckoutSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("%s: session id is empty", op)
	}
	res := &CheckoutSession{
		ID:             s.ID,
		Mode:           Mode(s.Mode),
		PaymentStatus:  s.PaymentStatus,
		Status:         s.Status,
		Metadata:       s.Metadata,
		SubscriptionID: string(s.Subscription),
		CustomerID:     string(s.Customer),
		CustomerEmail:  s.CustomerEmail,
		AmountTotal:    s.AmountTotal,
		Currency:       s.Currency,
	}
	if res.CustomerEmail == "" && s.CustomerDetails != nil {
		res.CustomerEmail = s.CustomerDetails.Email
	}
	return res, nil
}

// DecodeSubscription разбирает data.object событий customer.subscription.*.
// Конец периода берётся с верхнего уровня объекта, а если его там нет, то из первой позиции.
func DecodeSubscription(raw []byte) (*SubscriptionSnapshot, error) {
	const op = "paymentprovider.DecodeSubscription"
	var s webhookSubscription
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("%s: subscription id is empty", op)
	}
	res := &SubscriptionSnapshot{
		ID:                s.ID,
		Status:            s.Status,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		CustomerID:        string(s.Customer),
		CurrentPeriodEnd:  unixPtr(s.CurrentPeriodEnd),
	}
	if len(s.Items.Data) > 0 {
		item := s.Items.Data[0]
		res.PriceID = item.Price.ID
		if res.CurrentPeriodEnd == nil {
			res.CurrentPeriodEnd = unixPtr(item.CurrentPeriodEnd)
		}
	}
	return res, nil
}
