// Package entitlement вычисляет право пользователя на платный API по его подпискам.
package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

// Repository — доступ к подпискам и кешированному флагу профиля.
type Repository interface {
	ListSubscriptionsByUser(ctx context.Context, userUID string) ([]models.Subscription, error)
	SetResearcherFlag(ctx context.Context, userUID string, value bool) error
}

// Store отвечает на вопрос «есть ли доступ» только по живым строкам подписок.
// Флаг IsResearcher профиля Store не читает, а лишь перезаписывает в Refresh.
type Store struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// New создаёт Store с системными часами.
func New(log *slog.Logger, repo Repository) *Store {
	return NewWithClock(log, repo, time.Now)
}

// NewWithClock создаёт Store с заданными часами.
func NewWithClock(log *slog.Logger, repo Repository, now func() time.Time) *Store {
	return &Store{repo: repo, log: log, now: now}
}

// IsEntitled сообщает, есть ли у пользователя хотя бы одна подписка, активная прямо сейчас.
func (s *Store) IsEntitled(ctx context.Context, userUID string) (bool, error) {
	const op = "entitlement.IsEntitled"
	subs, err := s.repo.ListSubscriptionsByUser(ctx, userUID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	for i := range subs {
		if subs[i].IsActiveNow(now) {
			return true, nil
		}
	}
	return false, nil
}

// Views возвращает подписки пользователя с вычисленным признаком активности.
func (s *Store) Views(ctx context.Context, userUID string) ([]models.SubscriptionView, error) {
	const op = "entitlement.Views"
	subs, err := s.repo.ListSubscriptionsByUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	views := make([]models.SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, models.SubscriptionView{Subscription: sub, ActiveNow: sub.IsActiveNow(now)})
	}
	return views, nil
}

// Refresh пересчитывает доступ и записывает его в кешированный флаг профиля.
func (s *Store) Refresh(ctx context.Context, userUID string) (bool, error) {
	const op = "entitlement.Refresh"
	entitled, err := s.IsEntitled(ctx, userUID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.SetResearcherFlag(ctx, userUID, entitled); err != nil {
		return entitled, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("researcher flag refreshed",
		sl.Op(op),
		slog.String("user_uid", userUID),
		slog.Bool("entitled", entitled))
	return entitled, nil
}

// RefreshQuietly как Refresh, но только логирует ошибку. Для путей, где пересчёт флага
// не должен влиять на результат основной операции.
func (s *Store) RefreshQuietly(ctx context.Context, userUID string) {
	if _, err := s.Refresh(ctx, userUID); err != nil {
		s.log.Warn("failed to refresh researcher flag", slog.String("user_uid", userUID), sl.Err(err))
	}
}
