// Package paymentprovider изолирует магазин от SDK Stripe: создание и чтение
// сессий оплаты, чтение подписок и проверку подписи webhook.
package paymentprovider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"

	"github.com/magabrotheeeer/bluewave-shop/internal/config"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
)

const defaultTimeout = 10 * time.Second

// Client обращается к API Stripe.
type Client struct {
	api           *stripe.Client
	configured    bool
	webhookSecret string
	timeout       time.Duration
}

// NewClient создаёт клиента по настройкам. Без секретного ключа клиент создаётся,
// но все обращения к API возвращают apperr.ErrConfiguration.
func NewClient(cfg config.Stripe) *Client {
	return newClient(cfg, nil)
}

// newClient позволяет подменить транспорт SDK.
func newClient(cfg config.Stripe, backends *stripe.Backends) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	var opts []stripe.ClientOption
	if backends != nil {
		opts = append(opts, stripe.WithBackends(backends))
	}
	return &Client{
		api:           stripe.NewClient(cfg.SecretKey, opts...),
		configured:    cfg.SecretKey != "",
		webhookSecret: cfg.WebhookSecret,
		timeout:       timeout,
	}
}

// Configured сообщает, задан ли секретный ключ.
func (c *Client) Configured() bool {
	return c.configured
}

// CreateCheckoutSession создаёт сессию оплаты на одну позицию.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	const op = "paymentprovider.CreateCheckoutSession"
	if !c.configured {
		return nil, fmt.Errorf("%s: stripe secret key is not set: %w", op, apperr.ErrConfiguration)
	}
	if p.PriceID == "" {
		return nil, fmt.Errorf("%s: price id is empty: %w", op, apperr.ErrConfiguration)
	}
	qty := p.Quantity
	if qty <= 0 {
		qty = 1
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(p.Mode)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{Price: stripe.String(p.PriceID), Quantity: stripe.Int64(qty)},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := c.api.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return fromStripeSession(s), nil
}

// GetCheckoutSession читает сессию оплаты.
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	const op = "paymentprovider.GetCheckoutSession"
	if !c.configured {
		return nil, fmt.Errorf("%s: stripe secret key is not set: %w", op, apperr.ErrConfiguration)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	s, err := c.api.V1CheckoutSessions.Retrieve(ctx, id, &stripe.CheckoutSessionRetrieveParams{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return fromStripeSession(s), nil
}

// GetSubscription читает актуальное состояние подписки.
func (c *Client) GetSubscription(ctx context.Context, id string) (*SubscriptionSnapshot, error) {
	const op = "paymentprovider.GetSubscription"
	if !c.configured {
		return nil, fmt.Errorf("%s: stripe secret key is not set: %w", op, apperr.ErrConfiguration)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sub, err := c.api.V1Subscriptions.Retrieve(ctx, id, &stripe.SubscriptionRetrieveParams{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return fromStripeSubscription(sub), nil
}

// mapError переводит ошибки SDK в ошибки магазина: 404 — неизвестная ссылка,
// остальное — временная ошибка провайдера.
func mapError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.HTTPStatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", apperr.ErrUnknownReference, se.Msg)
	}
	return fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
}

func fromStripeSession(s *stripe.CheckoutSession) *CheckoutSession {
	if s == nil {
		return nil
	}
	res := &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Mode:          Mode(s.Mode),
		PaymentStatus: string(s.PaymentStatus),
		Status:        string(s.Status),
		Metadata:      s.Metadata,
		CustomerEmail: s.CustomerEmail,
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
	}
	if s.Subscription != nil {
		res.SubscriptionID = s.Subscription.ID
	}
	if s.Customer != nil {
		res.CustomerID = s.Customer.ID
	}
	if res.CustomerEmail == "" && s.CustomerDetails != nil {
		res.CustomerEmail = s.CustomerDetails.Email
	}
	return res
}

func fromStripeSubscription(sub *stripe.Subscription) *SubscriptionSnapshot {
	if sub == nil {
		return nil
	}
	res := &SubscriptionSnapshot{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		res.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		res.CurrentPeriodEnd = unixPtr(item.CurrentPeriodEnd)
		if item.Price != nil {
			res.PriceID = item.Price.ID
		}
	}
	return res
}

func unixPtr(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
