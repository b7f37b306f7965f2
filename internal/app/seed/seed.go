// Package seed наполняет каталог демо-товарами.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/bluewave-shop/internal/cache"
	"github.com/magabrotheeeer/bluewave-shop/internal/config"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/migrations"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/catalog"
	"github.com/magabrotheeeer/bluewave-shop/internal/storage/repository"
)

// Run применяет миграции и записывает демо-каталог. Кеш витрины сбрасывается,
// если redis доступен.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*catalog.SeedResult, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	defer func() {
		_ = db.DB.Close()
	}()

	if err = migrations.Run(db.DB); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	var catalogCache catalog.Cache
	if c, err := cache.InitServer(ctx, cfg.RedisConnection); err != nil {
		logger.Warn("redis unavailable, catalog cache will expire on its own", sl.Err(err))
	} else {
		defer func() {
			_ = c.Close()
		}()
		catalogCache = c
	}

	if cfg.Seed.SubscriptionPrice == "" {
		logger.Warn("subscription price is not set, the subscription cannot be purchased until it is")
	}

	svc := catalog.New(logger, db, catalogCache, cfg.RedisConnection.CatalogTTL)
	products := catalog.DefaultProducts(catalog.PriceRefs{
		Subscription: cfg.Seed.SubscriptionPrice,
		OneTime:      cfg.Seed.OneTimePrices,
	})
	return svc.Seed(ctx, products)
}
