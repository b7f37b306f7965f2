package removesubscription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) DeleteSubscription(ctx context.Context, id int64) (string, bool, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Bool(1), args.Error(2)
}

func TestRemoveSubscriptionHandler(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		uid      string
		entitled bool
		err      error
		callsSvc bool
		wantCode int
		wantBody string
	}{
		{
			name:     "last subscription removed",
			id:       "3",
			uid:      "uid-1",
			callsSvc: true,
			wantCode: http.StatusOK,
			wantBody: `"entitled":false`,
		},
		{
			name:     "other subscription keeps access",
			id:       "3",
			uid:      "uid-1",
			entitled: true,
			callsSvc: true,
			wantCode: http.StatusOK,
			wantBody: `"entitled":true`,
		},
		{name: "missing", id: "3", err: fmt.Errorf("x: %w", apperr.ErrNotFound), callsSvc: true, wantCode: http.StatusNotFound},
		{name: "failure", id: "3", err: errors.New("db down"), callsSvc: true, wantCode: http.StatusInternalServerError},
		{name: "bad id", id: "x", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.callsSvc {
				svc.On("DeleteSubscription", mock.Anything, int64(3)).Return(tt.uid, tt.entitled, tt.err).Once()
			}

			router := chi.NewRouter()
			router.Delete("/admin/subscriptions/{id}", New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/admin/subscriptions/"+tt.id, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
