package approveorder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/bluewave-shop/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Approve(ctx context.Context, orderID int64, approverUID string) (*models.Order, error) {
	args := m.Called(ctx, orderID, approverUID)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func TestApproveOrderHandler(t *testing.T) {
	admin := "admin-uid"

	tests := []struct {
		name     string
		id       string
		mockID   int64
		order    *models.Order
		err      error
		callsSvc bool
		wantCode int
		wantBody string
	}{
		{
			name:     "approved",
			id:       "5",
			mockID:   5,
			order:    &models.Order{ID: 5, Paid: true, Approved: true, ApprovedBy: &admin},
			callsSvc: true,
			wantCode: http.StatusOK,
			wantBody: `"approved":true`,
		},
		{
			name:     "unknown order",
			id:       "6",
			mockID:   6,
			err:      fmt.Errorf("x: %w", apperr.ErrNotFound),
			callsSvc: true,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "unpaid order",
			id:       "7",
			mockID:   7,
			err:      fmt.Errorf("x: %w", apperr.ErrConflict),
			callsSvc: true,
			wantCode: http.StatusConflict,
			wantBody: "only paid orders can be approved",
		},
		{name: "bad id", id: "abc", wantCode: http.StatusBadRequest},
		{name: "zero id", id: "0", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.callsSvc {
				svc.On("Approve", mock.Anything, tt.mockID, admin).Return(tt.order, tt.err).Once()
			}

			router := chi.NewRouter()
			router.Post("/admin/orders/{id}/approve", New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP)

			req := httptest.NewRequest(http.MethodPost, "/admin/orders/"+tt.id+"/approve", nil)
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, admin))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
