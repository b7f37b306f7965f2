// Package catalog отдаёт витрину товаров через кеш redis и наполняет её демо-данными.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

const cacheKeyActive = "catalog:active"

// Repository — хранилище товаров.
type Repository interface {
	ListActiveProducts(ctx context.Context) ([]models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	UpsertProduct(ctx context.Context, p models.Product) (int64, error)
	DeactivateOtherSubscriptions(ctx context.Context, keep []string) (int64, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Service — витрина.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// New создаёт Service. cache может быть nil, тогда витрина читается из базы.
func New(log *slog.Logger, repo Repository, cache Cache, ttl time.Duration) *Service {
	return &Service{repo: repo, cache: cache, ttl: ttl, log: log}
}

// List возвращает активные товары. Ошибки кеша не мешают ответу.
func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	const op = "catalog.List"

	if s.cache != nil {
		var cached []models.Product
		found, err := s.cache.Get(ctx, cacheKeyActive, &cached)
		if err != nil {
			s.log.Warn("failed to read catalog from cache", sl.Op(op), sl.Err(err))
		}
		if found {
			return cached, nil
		}
	}

	products, err := s.repo.ListActiveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyActive, products, s.ttl); err != nil {
			s.log.Warn("failed to cache catalog", sl.Op(op), sl.Err(err))
		}
	}
	return products, nil
}

// Get возвращает активный товар по slug. Неактивный товар считается отсутствующим.
func (s *Service) Get(ctx context.Context, slug string) (*models.Product, error) {
	const op = "catalog.Get"
	p, err := s.repo.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !p.Active {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return p, nil
}

// SeedResult — итог наполнения каталога.
type SeedResult struct {
	Upserted    int
	Deactivated int64
}

// Seed записывает товары по slug и снимает с витрины подписки, которых нет в наборе.
// Заданные ранее цены провайдера не затираются пустыми.
func (s *Service) Seed(ctx context.Context, products []models.Product) (*SeedResult, error) {
	const op = "catalog.Seed"

	res := &SeedResult{}
	var keep []string
	for _, p := range products {
		if _, err := s.repo.UpsertProduct(ctx, p); err != nil {
			return res, fmt.Errorf("%s: %s: %w", op, p.Slug, err)
		}
		res.Upserted++
		if p.IsSubscription() {
			keep = append(keep, p.Slug)
		}
	}

	if len(keep) > 0 {
		n, err := s.repo.DeactivateOtherSubscriptions(ctx, keep)
		if err != nil {
			return res, fmt.Errorf("%s: %w", op, err)
		}
		res.Deactivated = n
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, cacheKeyActive); err != nil {
			s.log.Warn("failed to invalidate catalog cache", sl.Op(op), sl.Err(err))
		}
	}
	s.log.Info("catalog seeded", slog.Int("upserted", res.Upserted), slog.Int64("deactivated", res.Deactivated))
	return res, nil
}
