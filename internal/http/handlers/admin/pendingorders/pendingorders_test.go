package pendingorders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListPending(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]models.Order)
	return res, args.Error(1)
}

func TestPendingOrdersHandler(t *testing.T) {
	tests := []struct {
		name     string
		orders   []models.Order
		err      error
		wantCode int
		wantBody string
	}{
		{name: "queue", orders: []models.Order{{ID: 7, Paid: true}}, wantCode: http.StatusOK, wantBody: `"id":7`},
		{name: "empty queue", wantCode: http.StatusOK, wantBody: `"data":[]`},
		{name: "failure", err: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("ListPending", mock.Anything).Return(tt.orders, tt.err).Once()

			rec := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/orders/pending", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
