// Package scheduler периодически рассылает напоминания об окончании подписок
// и пересчитывает устаревшие флаги доступа в профилях.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

// Repository — выборки, нужные планировщику.
type Repository interface {
	FindSubscriptionsExpiringBetween(ctx context.Context, from, to time.Time) ([]models.ExpiringSubscription, error)
	ListFlaggedUsers(ctx context.Context) ([]string, error)
}

// Entitlement пересчитывает кешированный флаг пользователя.
type Entitlement interface {
	Refresh(ctx context.Context, userUID string) (bool, error)
}

// Publisher отправляет уведомление в очередь.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Service — планировщик фоновых задач.
type Service struct {
	repo      Repository
	ent       Entitlement
	publisher Publisher
	log       *slog.Logger
	interval  time.Duration
	within    time.Duration
	now       func() time.Time
}

// New создаёт планировщик. interval — период запуска, within — за сколько до
// конца периода предупреждать пользователя.
func New(log *slog.Logger, repo Repository, ent Entitlement, publisher Publisher, interval, within time.Duration) *Service {
	return &Service{
		repo:      repo,
		ent:       ent,
		publisher: publisher,
		log:       log,
		interval:  interval,
		within:    within,
		now:       time.Now,
	}
}

// Run выполняет задачи сразу и затем раз в interval, пока не отменён ctx.
func (s *Service) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	s.runNotifyExpiring(ctx)
	s.runRefreshStaleFlags(ctx)
}

// Окно [now, now+within) сдвигается на interval, поэтому при within <= interval
// каждая подписка попадает в выборку не больше одного раза за период.
func (s *Service) runNotifyExpiring(ctx context.Context) {
	log := s.log.With(slog.String("op", "scheduler.runNotifyExpiring"))
	log.Info("looking for subscriptions that expire soon")

	from := s.now().UTC()
	subs, err := s.repo.FindSubscriptionsExpiringBetween(ctx, from, from.Add(s.within))
	if err != nil {
		log.Error("failed to find expiring subscriptions", sl.Err(err))
		return
	}
	if len(subs) == 0 {
		log.Info("no expiring subscriptions found")
		return
	}
	log.Info("found expiring subscriptions", slog.Int("count", len(subs)))

	for _, sub := range subs {
		if sub.CurrentPeriodEnd == nil {
			continue
		}
		msg := models.SubscriptionExpiringMessage{
			Email:             sub.Email,
			Username:          sub.Username,
			CurrentPeriodEnd:  *sub.CurrentPeriodEnd,
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		}
		if err = s.publisher.Publish(ctx, rabbitmq.RoutingSubscriptionExpiring, msg); err != nil {
			log.Error("failed to publish message",
				slog.String("stripe_subscription_id", sub.StripeSubscriptionID), sl.Err(err))
		}
	}
}

func (s *Service) runRefreshStaleFlags(ctx context.Context) {
	log := s.log.With(slog.String("op", "scheduler.runRefreshStaleFlags"))

	uids, err := s.repo.ListFlaggedUsers(ctx)
	if err != nil {
		log.Error("failed to list flagged users", sl.Err(err))
		return
	}

	cleared := 0
	for _, uid := range uids {
		entitled, err := s.ent.Refresh(ctx, uid)
		if err != nil {
			log.Error("failed to refresh flag", slog.String("user_uid", uid), sl.Err(err))
			continue
		}
		if !entitled {
			cleared++
		}
	}
	log.Info("flags refreshed", slog.Int("checked", len(uids)), slog.Int("cleared", cleared))
}
