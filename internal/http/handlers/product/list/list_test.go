package list

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]models.Product)
	return res, args.Error(1)
}

func TestListHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name      string
		products  []models.Product
		err       error
		wantCode  int
		wantCount int
	}{
		{
			name: "two products",
			products: []models.Product{
				{ID: 1, Name: "Researcher data subscription", Slug: "researcher-data-subscription-processed", StripePriceID: "price_secret"},
				{ID: 2, Name: "SWRO-5K", Slug: "swro-5k"},
			},
			wantCode:  http.StatusOK,
			wantCount: 2,
		},
		{name: "empty catalog", wantCode: http.StatusOK, wantCount: 0},
		{name: "service error", err: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("List", mock.Anything).Return(tt.products, tt.err).Once()

			rec := httptest.NewRecorder()
			New(log, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.NotContains(t, rec.Body.String(), "price_secret")
				var resp struct {
					Data []map[string]any `json:"data"`
				}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Len(t, resp.Data, tt.wantCount)
			}
			svc.AssertExpectations(t)
		})
	}
}
