// Package reconcile сводит события платёжного провайдера, возвраты из оплаты и
// локальные записи к одному состоянию заказов и подписок.
//
// Заказ создаётся идемпотентно по идентификатору сессии, подписка перезаписывается
// целиком по идентификатору подписки провайдера. Событие, пришедшее последним,
// побеждает: порядковых номеров у событий нет.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/metrics"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
	"github.com/magabrotheeeer/bluewave-shop/internal/paymentprovider"
)

// FallbackPeriod — срок доступа, если провайдер не сообщил конец периода оплаченной подписки.
const FallbackPeriod = 30 * 24 * time.Hour

// Repository — хранилище заказов, подписок и справочников.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetOrCreateOrder(ctx context.Context, o models.NewOrder) (*models.Order, bool, error)
	UpsertSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	UpdateSubscriptionState(ctx context.Context, stripeSubscriptionID string, state models.SubscriptionState) (*models.Subscription, error)
	DeleteSubscription(ctx context.Context, id int64) (string, error)
}

// Provider читает актуальные подписки у платёжного провайдера.
type Provider interface {
	GetSubscription(ctx context.Context, id string) (*paymentprovider.SubscriptionSnapshot, error)
}

// Entitlement пересчитывает кешированный флаг доступа.
type Entitlement interface {
	Refresh(ctx context.Context, userUID string) (bool, error)
}

// Publisher отправляет уведомления в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// CheckoutResult — итог применения сессии оплаты.
type CheckoutResult struct {
	Order        *models.Order
	OrderCreated bool
	Product      *models.Product
	Subscription *models.Subscription
}

// Reconciler применяет события и результаты оплаты к хранилищу.
type Reconciler struct {
	repo        Repository
	provider    Provider
	entitlement Entitlement
	publisher   Publisher
	log         *slog.Logger
	now         func() time.Time
}

// New создаёт Reconciler. publisher может быть nil, тогда уведомления не отправляются.
func New(log *slog.Logger, repo Repository, provider Provider, entitlement Entitlement, publisher Publisher) *Reconciler {
	return &Reconciler{
		repo:        repo,
		provider:    provider,
		entitlement: entitlement,
		publisher:   publisher,
		log:         log,
		now:         time.Now,
	}
}

// HandleEvent обрабатывает проверенное событие webhook.
// Неизвестные типы и ссылки на неизвестные объекты пропускаются без ошибки.
// Ошибка возвращается только для временных сбоев, после которых провайдеру стоит повторить доставку.
func (r *Reconciler) HandleEvent(ctx context.Context, ev *paymentprovider.Event) error {
	const op = "reconcile.HandleEvent"
	log := r.log.With(sl.Op(op), slog.String("event_id", ev.ID), slog.String("event_type", ev.Type))

	var err error
	switch ev.Type {
	case paymentprovider.EventCheckoutCompleted:
		err = r.handleCheckoutCompleted(ctx, ev)
	case paymentprovider.EventSubscriptionUpdated, paymentprovider.EventSubscriptionDeleted:
		err = r.handleSubscriptionChanged(ctx, ev)
	default:
		log.Debug("event type ignored")
		metrics.WebhookEvents.WithLabelValues(ev.Type, metrics.OutcomeIgnored).Inc()
		return nil
	}

	switch {
	case err == nil:
		metrics.WebhookEvents.WithLabelValues(ev.Type, metrics.OutcomeProcessed).Inc()
		log.Info("event processed")
		return nil
	case errors.Is(err, apperr.ErrUnknownReference):
		metrics.WebhookEvents.WithLabelValues(ev.Type, metrics.OutcomeIgnored).Inc()
		log.Warn("event ignored", sl.Err(err))
		return nil
	default:
		metrics.WebhookEvents.WithLabelValues(ev.Type, metrics.OutcomeFailed).Inc()
		log.Error("event processing failed", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, ev *paymentprovider.Event) error {
	s, err := paymentprovider.DecodeCheckoutSession(ev.Raw)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrUnknownReference, err)
	}
	_, err = r.ApplyCheckout(ctx, s)
	return err
}

func (r *Reconciler) handleSubscriptionChanged(ctx context.Context, ev *paymentprovider.Event) error {
	snap, err := paymentprovider.DecodeSubscription(ev.Raw)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrUnknownReference, err)
	}
	sub, err := r.OnSubscriptionChanged(ctx, snap, ev.Type == paymentprovider.EventSubscriptionDeleted)
	if err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("%w: subscription %s is not on file", apperr.ErrUnknownReference, snap.ID)
	}
	return nil
}

// ApplyCheckout создаёт заказ по сессии, если его ещё нет, и для подписочного товара
// записывает подписку. Используется и webhook, и возвратом пользователя из оплаты,
// поэтому повторный вызов с той же сессией ничего не дублирует.
//
// Пользователь и товар берутся из метаданных сессии и проверяются заново.
// Если их нельзя найти, возвращается apperr.ErrUnknownReference.
func (r *Reconciler) ApplyCheckout(ctx context.Context, s *paymentprovider.CheckoutSession) (*CheckoutResult, error) {
	const op = "reconcile.ApplyCheckout"
	log := r.log.With(sl.Op(op), slog.String("session_id", s.ID))

	user, product, err := r.resolveReferences(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order, created, err := r.repo.GetOrCreateOrder(ctx, models.NewOrder{
		UserUID:         user.UUID,
		StripeSessionID: s.ID,
		TotalMinorUnits: product.PriceMinorUnits,
		Currency:        product.Currency,
		Paid:            s.IsPaid(),
		Items: []models.OrderItem{{
			ProductID:       product.ID,
			ProductName:     product.Name,
			Quantity:        1,
			PriceMinorUnits: product.PriceMinorUnits,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if created {
		log.Info("order created", slog.Int64("order_id", order.ID), slog.Bool("paid", order.Paid))
		if order.Paid {
			r.notifyOrderPaid(ctx, user, product, order)
		}
	} else {
		log.Debug("order already exists", slog.Int64("order_id", order.ID))
	}

	res := &CheckoutResult{Order: order, OrderCreated: created, Product: product}
	if !product.IsSubscription() || s.SubscriptionID == "" {
		return res, nil
	}

	sub, err := r.syncCheckoutSubscription(ctx, s, user, product)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	res.Subscription = sub
	r.refresh(ctx, user.UUID)
	return res, nil
}

func (r *Reconciler) resolveReferences(ctx context.Context, s *paymentprovider.CheckoutSession) (*models.User, *models.Product, error) {
	slug := s.Metadata[paymentprovider.MetadataProductSlug]
	uid := s.Metadata[paymentprovider.MetadataUserID]
	if slug == "" || uid == "" {
		return nil, nil, fmt.Errorf("%w: session metadata is incomplete", apperr.ErrUnknownReference)
	}

	user, err := r.repo.GetUser(ctx, uid)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: user %s", apperr.ErrUnknownReference, uid)
	}
	if err != nil {
		return nil, nil, err
	}

	product, err := r.repo.GetProductBySlug(ctx, slug)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: product %s", apperr.ErrUnknownReference, slug)
	}
	if err != nil {
		return nil, nil, err
	}
	if !product.Active {
		return nil, nil, fmt.Errorf("%w: product %s is inactive", apperr.ErrUnknownReference, slug)
	}
	return user, product, nil
}

// syncCheckoutSubscription читает подписку у провайдера и сохраняет её снимок.
// Если провайдер не знает подписку или не сообщил конец периода у оплаченной сессии,
// доступ выдаётся на FallbackPeriod.
func (r *Reconciler) syncCheckoutSubscription(ctx context.Context, s *paymentprovider.CheckoutSession, user *models.User, product *models.Product) (*models.Subscription, error) {
	snap, err := r.provider.GetSubscription(ctx, s.SubscriptionID)
	switch {
	case errors.Is(err, apperr.ErrUnknownReference) && s.IsPaid():
		r.log.Warn("subscription not found at provider", slog.String("subscription_id", s.SubscriptionID), sl.Err(err))
		snap = &paymentprovider.SubscriptionSnapshot{ID: s.SubscriptionID}
	case err != nil:
		return nil, err
	}

	status := snap.Status
	periodEnd := snap.CurrentPeriodEnd
	if periodEnd == nil && s.IsPaid() {
		if status == "" {
			status = string(models.StatusActive)
		}
		end := r.now().Add(FallbackPeriod)
		periodEnd = &end
		r.log.Warn("subscription period missing, using fallback",
			slog.String("subscription_id", s.SubscriptionID),
			slog.Time("current_period_end", end))
	}

	customerID := snap.CustomerID
	if customerID == "" {
		customerID = s.CustomerID
	}
	priceID := snap.PriceID
	if priceID == "" {
		priceID = product.StripePriceID
	}

	return r.repo.UpsertSubscription(ctx, models.Subscription{
		UserUID:              user.UUID,
		StripeSubscriptionID: s.SubscriptionID,
		StripeCustomerID:     customerID,
		PriceID:              priceID,
		Status:               models.ParseSubscriptionStatus(status),
		CurrentPeriodEnd:     periodEnd,
		CancelAtPeriodEnd:    snap.CancelAtPeriodEnd,
	})
}

// OnSubscriptionChanged перезаписывает состояние известной подписки снимком из события.
// Для подписки, которой нет в хранилище, ничего не делает и возвращает nil, nil.
// Событие удаления без статуса считается отменой.
func (r *Reconciler) OnSubscriptionChanged(ctx context.Context, snap *paymentprovider.SubscriptionSnapshot, deleted bool) (*models.Subscription, error) {
	const op = "reconcile.OnSubscriptionChanged"

	status := snap.Status
	if deleted && status == "" {
		status = string(models.StatusCanceled)
	}

	sub, err := r.repo.UpdateSubscriptionState(ctx, snap.ID, models.SubscriptionState{
		Status:            models.ParseSubscriptionStatus(status),
		CurrentPeriodEnd:  snap.CurrentPeriodEnd,
		CancelAtPeriodEnd: snap.CancelAtPeriodEnd,
	})
	if errors.Is(err, apperr.ErrNotFound) {
		r.log.Debug("subscription not on file", sl.Op(op), slog.String("subscription_id", snap.ID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.refresh(ctx, sub.UserUID)
	return sub, nil
}

// DeleteSubscription удаляет подписку по решению администратора и пересчитывает доступ
// владельца по оставшимся подпискам. Возвращает UID владельца и новый признак доступа.
func (r *Reconciler) DeleteSubscription(ctx context.Context, id int64) (string, bool, error) {
	const op = "reconcile.DeleteSubscription"

	userUID, err := r.repo.DeleteSubscription(ctx, id)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	entitled, err := r.entitlement.Refresh(ctx, userUID)
	if err != nil {
		return userUID, false, fmt.Errorf("%s: %w", op, err)
	}
	r.log.Info("subscription deleted",
		sl.Op(op),
		slog.Int64("subscription_id", id),
		slog.String("user_uid", userUID),
		slog.Bool("entitled", entitled))
	return userUID, entitled, nil
}

func (r *Reconciler) refresh(ctx context.Context, userUID string) {
	if _, err := r.entitlement.Refresh(ctx, userUID); err != nil {
		r.log.Warn("failed to refresh researcher flag", slog.String("user_uid", userUID), sl.Err(err))
	}
}

func (r *Reconciler) notifyOrderPaid(ctx context.Context, user *models.User, product *models.Product, order *models.Order) {
	if r.publisher == nil {
		return
	}
	msg := models.OrderPaidMessage{
		OrderID:         order.ID,
		Email:           user.Email,
		Username:        user.Username,
		ProductName:     product.Name,
		TotalMinorUnits: order.TotalMinorUnits,
		Currency:        order.Currency,
	}
	if err := r.publisher.Publish(ctx, rabbitmq.RoutingOrderPaid, msg); err != nil {
		r.log.Warn("failed to publish order notification", slog.Int64("order_id", order.ID), sl.Err(err))
	}
}
