package usersubscriptions

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Views(ctx context.Context, userUID string) ([]models.SubscriptionView, error) {
	args := m.Called(ctx, userUID)
	res, _ := args.Get(0).([]models.SubscriptionView)
	return res, args.Error(1)
}

func TestUserSubscriptionsHandler(t *testing.T) {
	tests := []struct {
		name     string
		views    []models.SubscriptionView
		err      error
		wantCode int
		wantBody string
	}{
		{
			name: "live flag exposed",
			views: []models.SubscriptionView{
				{Subscription: models.Subscription{ID: 1, Status: models.StatusActive}, ActiveNow: true},
			},
			wantCode: http.StatusOK,
			wantBody: `"active_now":true`,
		},
		{name: "none", wantCode: http.StatusOK, wantBody: `"data":[]`},
		{name: "failure", err: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Views", mock.Anything, "uid-9").Return(tt.views, tt.err).Once()

			router := chi.NewRouter()
			router.Get("/admin/users/{uid}/subscriptions", New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users/uid-9/subscriptions", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
