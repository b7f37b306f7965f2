package success

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bluewave-shop/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/checkout"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) OnReturn(ctx context.Context, userUID, sessionID string) (*checkout.ReturnResult, error) {
	args := m.Called(ctx, userUID, sessionID)
	res, _ := args.Get(0).(*checkout.ReturnResult)
	return res, args.Error(1)
}

func TestSuccessHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		result     *checkout.ReturnResult
		err        error
		wantCode   int
		wantStatus string
	}{
		{
			name:       "paid",
			result:     &checkout.ReturnResult{Status: checkout.StatusPaid, Message: "ok", Order: &models.Order{ID: 5, Paid: true}},
			wantCode:   http.StatusOK,
			wantStatus: "paid",
		},
		{
			name:       "pending",
			result:     &checkout.ReturnResult{Status: checkout.StatusPending, Message: "later"},
			wantCode:   http.StatusOK,
			wantStatus: "pending",
		},
		{
			name:     "someone else's session",
			err:      fmt.Errorf("x: %w", apperr.ErrForbidden),
			wantCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("OnReturn", mock.Anything, "uid-1", "cs_123").Return(tt.result, tt.err).Once()

			req := httptest.NewRequest(http.MethodGet, "/checkout/success?session_id=cs_123", nil)
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "uid-1"))
			rec := httptest.NewRecorder()
			New(log, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantStatus != "" {
				var resp struct {
					Data checkout.ReturnResult `json:"data"`
				}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, checkout.Status(tt.wantStatus), resp.Data.Status)
			}
			svc.AssertExpectations(t)
		})
	}
}
