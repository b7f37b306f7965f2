package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

const selectProduct = `SELECT id, name, slug, description, price_minor_units, currency,
       product_type, stripe_price_id, active, created_at
  FROM products`

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	var productType string
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.PriceMinorUnits, &p.Currency,
		&productType, &p.StripePriceID, &p.Active, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Type = models.ProductType(productType)
	return p, nil
}

// ListActiveProducts возвращает активные товары каталога по имени.
func (s *Storage) ListActiveProducts(ctx context.Context) ([]models.Product, error) {
	const op = "storage.ListActiveProducts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, selectProduct+` WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetProductBySlug возвращает товар по slug, в том числе неактивный.
func (s *Storage) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	const op = "storage.GetProductBySlug"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanProduct(s.DB.QueryRowContext(ctx, selectProduct+` WHERE slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// UpsertProduct создаёт товар или обновляет существующий с тем же slug.
// Пустой StripePriceID не затирает уже заданную цену провайдера.
func (s *Storage) UpsertProduct(ctx context.Context, p models.Product) (int64, error) {
	const op = "storage.UpsertProduct"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var id int64
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO products (name, slug, description, price_minor_units, currency, product_type, stripe_price_id, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (slug) DO UPDATE SET
		     name = EXCLUDED.name,
		     description = EXCLUDED.description,
		     price_minor_units = EXCLUDED.price_minor_units,
		     currency = EXCLUDED.currency,
		     product_type = EXCLUDED.product_type,
		     stripe_price_id = COALESCE(NULLIF(EXCLUDED.stripe_price_id, ''), products.stripe_price_id),
		     active = EXCLUDED.active
		 RETURNING id`,
		p.Name, p.Slug, p.Description, p.PriceMinorUnits, p.Currency, string(p.Type), p.StripePriceID, p.Active,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// DeactivateOtherSubscriptions снимает с витрины подписочные товары, slug которых не входит в keep.
func (s *Storage) DeactivateOtherSubscriptions(ctx context.Context, keep []string) (int64, error) {
	const op = "storage.DeactivateOtherSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE products SET active = false
		  WHERE product_type = $1 AND active AND NOT (slug = ANY($2))`,
		string(models.ProductSubscription), keep)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
