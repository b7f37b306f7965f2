// Package checkout запускает оплату товара и обрабатывает возврат пользователя из неё.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/metrics"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
	"github.com/magabrotheeeer/bluewave-shop/internal/paymentprovider"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/reconcile"
)

// Пути возврата из оплаты на сайте магазина.
const (
	SuccessPath = "/api/v1/checkout/success"
	CancelPath  = "/api/v1/checkout/cancel"
)

// Repository — чтение пользователей и каталога.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
}

// Provider — операции платёжного провайдера, нужные для оплаты.
type Provider interface {
	Configured() bool
	CreateCheckoutSession(ctx context.Context, p paymentprovider.CheckoutParams) (*paymentprovider.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*paymentprovider.CheckoutSession, error)
}

// Reconciler применяет сессию оплаты так же, как это делает webhook.
type Reconciler interface {
	ApplyCheckout(ctx context.Context, s *paymentprovider.CheckoutSession) (*reconcile.CheckoutResult, error)
}

// Status — исход возврата из оплаты.
type Status string

// Исходы возврата.
const (
	StatusPaid    Status = "paid"
	StatusPending Status = "pending"
)

// ReturnResult — то, что видит пользователь после возврата из оплаты.
// При StatusPending заказ ещё может появиться после webhook.
type ReturnResult struct {
	Status       Status               `json:"status"`
	Message      string               `json:"message"`
	Order        *models.Order        `json:"order,omitempty"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

// Service — оркестратор оплаты.
type Service struct {
	repo       Repository
	provider   Provider
	reconciler Reconciler
	siteURL    string
	log        *slog.Logger
}

// New создаёт сервис. siteURL — публичный адрес магазина для ссылок возврата.
func New(log *slog.Logger, repo Repository, provider Provider, reconciler Reconciler, siteURL string) *Service {
	return &Service{
		repo:       repo,
		provider:   provider,
		reconciler: reconciler,
		siteURL:    strings.TrimRight(siteURL, "/"),
		log:        log,
	}
}

// StartCheckout создаёт сессию оплаты товара и возвращает ссылку для перехода.
// Неактивный товар, пустая цена провайдера и отсутствие ключа дают apperr.ErrConfiguration.
func (s *Service) StartCheckout(ctx context.Context, userUID, slug string) (string, error) {
	const op = "checkout.StartCheckout"
	log := s.log.With(sl.Op(op), slog.String("user_uid", userUID), slog.String("slug", slug))

	product, err := s.repo.GetProductBySlug(ctx, slug)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !product.Active {
		metrics.CheckoutResults.WithLabelValues("start", metrics.OutcomeRejected).Inc()
		return "", fmt.Errorf("%s: product is inactive: %w", op, apperr.ErrConfiguration)
	}
	if product.StripePriceID == "" {
		metrics.CheckoutResults.WithLabelValues("start", metrics.OutcomeRejected).Inc()
		return "", fmt.Errorf("%s: product has no price reference: %w", op, apperr.ErrConfiguration)
	}
	if !s.provider.Configured() {
		metrics.CheckoutResults.WithLabelValues("start", metrics.OutcomeRejected).Inc()
		return "", fmt.Errorf("%s: payment provider is not configured: %w", op, apperr.ErrConfiguration)
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	mode := paymentprovider.ModePayment
	if product.IsSubscription() {
		mode = paymentprovider.ModeSubscription
	}

	session, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CheckoutParams{
		Mode:          mode,
		PriceID:       product.StripePriceID,
		Quantity:      1,
		SuccessURL:    s.siteURL + SuccessPath + "?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.siteURL + CancelPath,
		CustomerEmail: user.Email,
		Metadata: map[string]string{
			paymentprovider.MetadataProductSlug: product.Slug,
			paymentprovider.MetadataUserID:      user.UUID,
		},
	})
	if err != nil {
		metrics.CheckoutResults.WithLabelValues("start", metrics.OutcomeFailed).Inc()
		if errors.Is(err, apperr.ErrUpstream) {
			metrics.UpstreamFailures.WithLabelValues("stripe").Inc()
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if session.URL == "" {
		metrics.CheckoutResults.WithLabelValues("start", metrics.OutcomeFailed).Inc()
		return "", fmt.Errorf("%s: session %s has no redirect url: %w", op, session.ID, apperr.ErrUpstream)
	}

	metrics.CheckoutResults.WithLabelValues("start", metrics.OutcomeCreated).Inc()
	log.Info("checkout session created", slog.String("session_id", session.ID), slog.String("mode", string(mode)))
	return session.URL, nil
}

// OnReturn обрабатывает возврат пользователя с идентификатором сессии.
// Любой сбой провайдера или применения даёт StatusPending: заказ создаст webhook.
// Сессия другого пользователя даёт apperr.ErrForbidden.
func (s *Service) OnReturn(ctx context.Context, userUID, sessionID string) (*ReturnResult, error) {
	const op = "checkout.OnReturn"
	log := s.log.With(sl.Op(op), slog.String("user_uid", userUID), slog.String("session_id", sessionID))

	if sessionID == "" {
		return pending("Payment received. Your order will appear shortly."), nil
	}

	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		log.Warn("failed to fetch checkout session", sl.Err(err))
		metrics.CheckoutResults.WithLabelValues("return", metrics.OutcomePending).Inc()
		return pending("Payment received. We are confirming it with the payment provider."), nil
	}

	if owner := session.Metadata[paymentprovider.MetadataUserID]; owner != "" && owner != userUID {
		log.Warn("checkout session belongs to another user")
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrForbidden)
	}

	if !session.IsPaid() {
		metrics.CheckoutResults.WithLabelValues("return", metrics.OutcomePending).Inc()
		return pending("Payment is not complete yet."), nil
	}

	res, err := s.reconciler.ApplyCheckout(ctx, session)
	if err != nil {
		log.Warn("failed to apply checkout session", sl.Err(err))
		metrics.CheckoutResults.WithLabelValues("return", metrics.OutcomePending).Inc()
		out := pending("Payment received. Your order is being processed.")
		if res != nil {
			out.Order = res.Order
		}
		return out, nil
	}

	metrics.CheckoutResults.WithLabelValues("return", metrics.OutcomeProcessed).Inc()
	log.Info("checkout return applied", slog.Int64("order_id", res.Order.ID), slog.Bool("order_created", res.OrderCreated))
	return &ReturnResult{
		Status:       StatusPaid,
		Message:      "Thank you! Your payment was successful.",
		Order:        res.Order,
		Subscription: res.Subscription,
	}, nil
}

func pending(msg string) *ReturnResult {
	return &ReturnResult{Status: StatusPending, Message: msg}
}
