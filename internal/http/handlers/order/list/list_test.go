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

	"github.com/magabrotheeeer/bluewave-shop/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListForUser(ctx context.Context, userUID string) ([]models.Order, error) {
	args := m.Called(ctx, userUID)
	res, _ := args.Get(0).([]models.Order)
	return res, args.Error(1)
}

func TestListHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name      string
		orders    []models.Order
		err       error
		wantCode  int
		wantCount int
	}{
		{
			name: "orders with items",
			orders: []models.Order{
				{ID: 2, Paid: true, Items: []models.OrderItem{{ProductName: "SWRO-5K", Quantity: 1}}},
				{ID: 1, Paid: true},
			},
			wantCode:  http.StatusOK,
			wantCount: 2,
		},
		{name: "no orders", wantCode: http.StatusOK},
		{name: "storage failure", err: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("ListForUser", mock.Anything, "uid-1").Return(tt.orders, tt.err).Once()

			req := httptest.NewRequest(http.MethodGet, "/orders", nil)
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "uid-1"))
			rec := httptest.NewRecorder()
			New(log, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				var resp struct {
					Data []models.Order `json:"data"`
				}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Len(t, resp.Data, tt.wantCount)
			}
			svc.AssertExpectations(t)
		})
	}
}
