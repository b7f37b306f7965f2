package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bluewave-shop/internal/cache"
	"github.com/magabrotheeeer/bluewave-shop/internal/config"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListActiveProducts(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockRepository) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockRepository) UpsertProduct(ctx context.Context, p models.Product) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) DeactivateOtherSubscriptions(ctx context.Context, keep []string) (int64, error) {
	args := m.Called(ctx, keep)
	return args.Get(0).(int64), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Invalidate(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRedisCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.InitServer(context.Background(), config.RedisConnection{Addr: mr.Addr(), DialTimeout: time.Second, Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

var products = []models.Product{
	{ID: 1, Name: "Researcher Data Subscription (Processed)", Slug: "researcher-data-subscription-processed",
		PriceMinorUnits: 4900, Currency: "gbp", Type: models.ProductSubscription, Active: true},
	{ID: 2, Name: "Water Softener 48k Grain", Slug: "water-softener-48k-grain",
		PriceMinorUnits: 74900, Currency: "gbp", Type: models.ProductOneTime, Active: true},
}

func TestService_List_UsesCache(t *testing.T) {
	c, mr := newRedisCache(t)
	repo := new(MockRepository)
	repo.On("ListActiveProducts", mock.Anything).Return(products, nil).Once()

	svc := New(newNoopLogger(), repo, c, time.Minute)

	first, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.True(t, mr.Exists(cacheKeyActive))

	second, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first[1].Slug, second[1].Slug)
	assert.Equal(t, first[1].PriceMinorUnits, second[1].PriceMinorUnits)

	repo.AssertNumberOfCalls(t, "ListActiveProducts", 1)
}

func TestService_List_CacheFailureFallsBack(t *testing.T) {
	repo := new(MockRepository)
	c := new(MockCache)
	c.On("Get", mock.Anything, cacheKeyActive, mock.Anything).Return(false, errors.New("redis down"))
	c.On("Set", mock.Anything, cacheKeyActive, mock.Anything, time.Minute).Return(errors.New("redis down"))
	repo.On("ListActiveProducts", mock.Anything).Return(products, nil)

	got, err := New(newNoopLogger(), repo, c, time.Minute).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, products, got)
}

func TestService_List_RepositoryError(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListActiveProducts", mock.Anything).Return(nil, errors.New("db down"))

	_, err := New(newNoopLogger(), repo, nil, time.Minute).List(context.Background())
	assert.Error(t, err)
}

func TestService_Get(t *testing.T) {
	tests := []struct {
		name    string
		product *models.Product
		repoErr error
		wantErr error
	}{
		{name: "active", product: &products[1]},
		{name: "inactive", product: &models.Product{Slug: "old", Active: false}, wantErr: apperr.ErrNotFound},
		{name: "missing", repoErr: apperr.ErrNotFound, wantErr: apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			if tt.repoErr != nil {
				repo.On("GetProductBySlug", mock.Anything, "slug").Return(nil, tt.repoErr)
			} else {
				repo.On("GetProductBySlug", mock.Anything, "slug").Return(tt.product, nil)
			}
			got, err := New(newNoopLogger(), repo, nil, 0).Get(context.Background(), "slug")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.product, got)
		})
	}
}

func TestService_Seed(t *testing.T) {
	c, mr := newRedisCache(t)
	require.NoError(t, c.Set(context.Background(), cacheKeyActive, products, time.Minute))

	seed := DefaultProducts(PriceRefs{Subscription: "price_sub"})
	repo := new(MockRepository)
	repo.On("UpsertProduct", mock.Anything, mock.Anything).Return(int64(1), nil).Times(len(seed))
	repo.On("DeactivateOtherSubscriptions", mock.Anything, []string{"researcher-data-subscription-processed"}).Return(int64(1), nil)

	res, err := New(newNoopLogger(), repo, c, time.Minute).Seed(context.Background(), seed)
	require.NoError(t, err)
	assert.Equal(t, len(seed), res.Upserted)
	assert.Equal(t, int64(1), res.Deactivated)
	assert.False(t, mr.Exists(cacheKeyActive))
	repo.AssertExpectations(t)
}

func TestService_Seed_UpsertError(t *testing.T) {
	repo := new(MockRepository)
	repo.On("UpsertProduct", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down")).Once()

	res, err := New(newNoopLogger(), repo, nil, 0).Seed(context.Background(), DefaultProducts(PriceRefs{}))
	assert.Error(t, err)
	assert.Equal(t, 0, res.Upserted)
	repo.AssertNotCalled(t, "DeactivateOtherSubscriptions", mock.Anything, mock.Anything)
}

func TestDefaultProducts(t *testing.T) {
	p := DefaultProducts(PriceRefs{
		Subscription: "price_sub",
		OneTime:      map[string]string{"under-sink-ro-household": "price_ro"},
	})

	var subs int
	slugs := map[string]bool{}
	for _, prod := range p {
		assert.True(t, prod.Active)
		assert.Equal(t, "gbp", prod.Currency)
		assert.Positive(t, prod.PriceMinorUnits)
		assert.False(t, slugs[prod.Slug], "duplicate slug %s", prod.Slug)
		slugs[prod.Slug] = true
		if prod.IsSubscription() {
			subs++
			assert.Equal(t, int64(4900), prod.PriceMinorUnits)
			assert.Equal(t, "price_sub", prod.StripePriceID)
		}
		if prod.Slug == "under-sink-ro-household" {
			assert.Equal(t, "price_ro", prod.StripePriceID)
		}
	}
	assert.Equal(t, 1, subs)
}
