package reconcile

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
	"github.com/magabrotheeeer/bluewave-shop/internal/paymentprovider"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

// memoryRepo хранит данные в памяти и соблюдает те же ключи уникальности, что и база.
type memoryRepo struct {
	mu            sync.Mutex
	users         map[string]*models.User
	products      map[string]*models.Product
	orders        map[string]*models.Order
	subscriptions map[string]*models.Subscription
	flags         map[string]bool
	nextID        int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users:         map[string]*models.User{},
		products:      map[string]*models.Product{},
		orders:        map[string]*models.Order{},
		subscriptions: map[string]*models.Subscription{},
		flags:         map[string]bool{},
	}
}

func (m *memoryRepo) GetUser(_ context.Context, userUID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userUID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return u, nil
}

func (m *memoryRepo) GetProductBySlug(_ context.Context, slug string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[slug]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) GetOrCreateOrder(_ context.Context, o models.NewOrder) (*models.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.orders[o.StripeSessionID]; ok {
		return existing, false, nil
	}
	m.nextID++
	order := &models.Order{
		ID:              m.nextID,
		UserUID:         o.UserUID,
		StripeSessionID: o.StripeSessionID,
		TotalMinorUnits: o.TotalMinorUnits,
		Currency:        o.Currency,
		Paid:            o.Paid,
		Items:           o.Items,
	}
	m.orders[o.StripeSessionID] = order
	return order, true, nil
}

func (m *memoryRepo) UpsertSubscription(_ context.Context, sub models.Subscription) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.subscriptions[sub.StripeSubscriptionID]; ok {
		existing.Status = sub.Status
		if sub.CurrentPeriodEnd != nil {
			existing.CurrentPeriodEnd = sub.CurrentPeriodEnd
		}
		existing.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
		cp := *existing
		return &cp, nil
	}
	m.nextID++
	sub.ID = m.nextID
	stored := sub
	m.subscriptions[sub.StripeSubscriptionID] = &stored
	return &sub, nil
}

func (m *memoryRepo) UpdateSubscriptionState(_ context.Context, id string, state models.SubscriptionState) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.subscriptions[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	existing.Status = state.Status
	if state.CurrentPeriodEnd != nil {
		existing.CurrentPeriodEnd = state.CurrentPeriodEnd
	}
	existing.CancelAtPeriodEnd = state.CancelAtPeriodEnd
	cp := *existing
	return &cp, nil
}

func (m *memoryRepo) DeleteSubscription(_ context.Context, id int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, s := range m.subscriptions {
		if s.ID == id {
			delete(m.subscriptions, key)
			return s.UserUID, nil
		}
	}
	return "", apperr.ErrNotFound
}

func (m *memoryRepo) ListSubscriptionsByUser(_ context.Context, userUID string) ([]models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []models.Subscription
	for _, s := range m.subscriptions {
		if s.UserUID == userUID {
			res = append(res, *s)
		}
	}
	return res, nil
}

func (m *memoryRepo) SetResearcherFlag(_ context.Context, userUID string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[userUID] = value
	return nil
}

func (m *memoryRepo) flag(userUID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags[userUID]
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetSubscription(ctx context.Context, id string) (*paymentprovider.SubscriptionSnapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.SubscriptionSnapshot), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, message any) error {
	args := m.Called(ctx, routingKey, message)
	return args.Error(0)
}

type MockEntitlement struct {
	mock.Mock
}

func (m *MockEntitlement) Refresh(ctx context.Context, userUID string) (bool, error) {
	args := m.Called(ctx, userUID)
	return args.Bool(0), args.Error(1)
}

func timePtr(t time.Time) *time.Time { return &t }
