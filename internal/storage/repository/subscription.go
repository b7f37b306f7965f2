package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

const subscriptionColumns = `id, user_uid, stripe_subscription_id, stripe_customer_id, price_id,
       status, current_period_end, cancel_at_period_end, updated_at`

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var (
		sub       models.Subscription
		status    string
		periodEnd sql.NullTime
	)
	if err := row.Scan(&sub.ID, &sub.UserUID, &sub.StripeSubscriptionID, &sub.StripeCustomerID, &sub.PriceID,
		&status, &periodEnd, &sub.CancelAtPeriodEnd, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	sub.Status = models.ParseSubscriptionStatus(status)
	sub.CurrentPeriodEnd = timePtr(periodEnd)
	return &sub, nil
}

// UpsertSubscription создаёт подписку или перезаписывает состояние существующей
// с тем же stripe_subscription_id. Владелец существующей записи не меняется,
// отсутствующие в снимке период, клиент и цена сохраняются прежними.
func (s *Storage) UpsertSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.UpsertSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	res, err := scanSubscription(s.DB.QueryRowContext(ctx,
		`INSERT INTO subscriptions (user_uid, stripe_subscription_id, stripe_customer_id, price_id,
		                            status, current_period_end, cancel_at_period_end)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (stripe_subscription_id) DO UPDATE SET
		     status = EXCLUDED.status,
		     current_period_end = COALESCE(EXCLUDED.current_period_end, subscriptions.current_period_end),
		     cancel_at_period_end = EXCLUDED.cancel_at_period_end,
		     stripe_customer_id = COALESCE(NULLIF(EXCLUDED.stripe_customer_id, ''), subscriptions.stripe_customer_id),
		     price_id = COALESCE(NULLIF(EXCLUDED.price_id, ''), subscriptions.price_id),
		     updated_at = now()
		 RETURNING `+subscriptionColumns,
		sub.UserUID, sub.StripeSubscriptionID, sub.StripeCustomerID, sub.PriceID,
		string(sub.Status), sub.CurrentPeriodEnd, sub.CancelAtPeriodEnd))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// UpdateSubscriptionState перезаписывает статус, период и флаг отмены известной подписки.
// Для неизвестного идентификатора возвращает apperr.ErrNotFound и ничего не создаёт.
func (s *Storage) UpdateSubscriptionState(ctx context.Context, stripeSubscriptionID string, state models.SubscriptionState) (*models.Subscription, error) {
	const op = "storage.UpdateSubscriptionState"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	res, err := scanSubscription(s.DB.QueryRowContext(ctx,
		`UPDATE subscriptions SET
		     status = $2,
		     current_period_end = COALESCE($3, current_period_end),
		     cancel_at_period_end = $4,
		     updated_at = now()
		  WHERE stripe_subscription_id = $1
		 RETURNING `+subscriptionColumns,
		stripeSubscriptionID, string(state.Status), state.CurrentPeriodEnd, state.CancelAtPeriodEnd))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// GetSubscriptionByStripeID возвращает подписку по идентификатору провайдера.
func (s *Storage) GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByStripeID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	res, err := scanSubscription(s.DB.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE stripe_subscription_id = $1`,
		stripeSubscriptionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// ListSubscriptionsByUser возвращает все подписки пользователя.
func (s *Storage) ListSubscriptionsByUser(ctx context.Context, userUID string) ([]models.Subscription, error) {
	const op = "storage.ListSubscriptionsByUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_uid = $1 ORDER BY id`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteSubscription удаляет подписку и возвращает UID её владельца.
func (s *Storage) DeleteSubscription(ctx context.Context, id int64) (string, error) {
	const op = "storage.DeleteSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	var userUID string
	err := s.DB.QueryRowContext(ctx,
		`DELETE FROM subscriptions WHERE id = $1 RETURNING user_uid`, id).Scan(&userUID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return userUID, nil
}

// FindSubscriptionsExpiringBetween возвращает действующие подписки, период которых
// заканчивается в интервале [from, to), вместе с контактами владельцев.
func (s *Storage) FindSubscriptionsExpiringBetween(ctx context.Context, from, to time.Time) ([]models.ExpiringSubscription, error) {
	const op = "storage.FindSubscriptionsExpiringBetween"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT s.id, s.user_uid, s.stripe_subscription_id, s.stripe_customer_id, s.price_id,
		        s.status, s.current_period_end, s.cancel_at_period_end, s.updated_at,
		        u.email, u.username
		   FROM subscriptions s
		   JOIN users u ON u.uid = s.user_uid
		  WHERE s.status IN ('active', 'trialing', 'past_due')
		    AND s.current_period_end >= $1 AND s.current_period_end < $2
		  ORDER BY s.current_period_end`, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.ExpiringSubscription
	for rows.Next() {
		var (
			e         models.ExpiringSubscription
			status    string
			periodEnd sql.NullTime
		)
		if err = rows.Scan(&e.ID, &e.UserUID, &e.StripeSubscriptionID, &e.StripeCustomerID, &e.PriceID,
			&status, &periodEnd, &e.CancelAtPeriodEnd, &e.UpdatedAt, &e.Email, &e.Username); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		e.Status = models.ParseSubscriptionStatus(status)
		e.CurrentPeriodEnd = timePtr(periodEnd)
		result = append(result, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
