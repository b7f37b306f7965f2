package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/bluewave-shop/internal/migrations"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed storage test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(connStr)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = storage.DB.Close()
	})

	require.NoError(t, migrations.Run(storage.DB))
	return storage
}

// testDataFactory создаёт связанные записи для интеграционных тестов.
type testDataFactory struct {
	storage *Storage
}

func (f *testDataFactory) user(t *testing.T) string {
	t.Helper()
	suffix := uuid.NewString()[:8]
	uid, err := f.storage.CreateUser(context.Background(), models.User{
		Email:        "user-" + suffix + "@bluewave.test",
		Username:     "user-" + suffix,
		PasswordHash: "hash",
		Role:         models.RoleUser,
	})
	require.NoError(t, err)
	return uid
}

func (f *testDataFactory) product(t *testing.T, slug string, typ models.ProductType) *models.Product {
	t.Helper()
	_, err := f.storage.UpsertProduct(context.Background(), models.Product{
		Name:            slug,
		Slug:            slug,
		PriceMinorUnits: 4900,
		Currency:        "gbp",
		Type:            typ,
		StripePriceID:   "price_" + slug,
		Active:          true,
	})
	require.NoError(t, err)
	p, err := f.storage.GetProductBySlug(context.Background(), slug)
	require.NoError(t, err)
	return p
}
