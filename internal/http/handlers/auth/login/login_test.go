package login

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/auth"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Login(ctx context.Context, email, rawPassword string) (*auth.LoginResult, error) {
	args := m.Called(ctx, email, rawPassword)
	res, _ := args.Get(0).(*auth.LoginResult)
	return res, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name        string
		requestBody any
		mockResp    *auth.LoginResult
		mockErr     error
		wantCode    int
		wantData    map[string]any
		wantError   string
		wantStatus  string
	}{
		{
			name:        "valid login",
			requestBody: Request{Email: "diver@example.com", Password: "password123"},
			mockResp:    &auth.LoginResult{Token: "tok", Role: "user"},
			wantCode:    http.StatusOK,
			wantData:    map[string]any{"token": "tok", "role": "user", "two_factor_required": false},
			wantStatus:  "OK",
		},
		{
			name:        "two factor required",
			requestBody: Request{Email: "diver@example.com", Password: "password123"},
			mockResp:    &auth.LoginResult{Token: "pending", Role: "user", TwoFactorRequired: true},
			wantCode:    http.StatusOK,
			wantData:    map[string]any{"token": "pending", "role": "user", "two_factor_required": true},
			wantStatus:  "OK",
		},
		{
			name:        "invalid json body",
			requestBody: "not a json",
			wantCode:    http.StatusBadRequest,
			wantError:   "invalid request body",
			wantStatus:  "Error",
		},
		{
			name:        "validation error - missing password",
			requestBody: Request{Email: "diver@example.com"},
			wantCode:    http.StatusUnprocessableEntity,
			wantError:   "field Password is a required field",
			wantStatus:  "Error",
		},
		{
			name:        "wrong password",
			requestBody: Request{Email: "diver@example.com", Password: "password123"},
			mockErr:     apperr.ErrInvalidCredentials,
			wantCode:    http.StatusUnauthorized,
			wantError:   "invalid credentials",
			wantStatus:  "Error",
		},
		{
			name:        "service failure",
			requestBody: Request{Email: "diver@example.com", Password: "password123"},
			mockErr:     errors.New("db down"),
			wantCode:    http.StatusInternalServerError,
			wantError:   "internal error",
			wantStatus:  "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AuthServiceMock)
			if tt.mockResp != nil || tt.mockErr != nil {
				req := tt.requestBody.(Request)
				svc.On("Login", mock.Anything, req.Email, req.Password).Return(tt.mockResp, tt.mockErr).Once()
			}
			handler := New(newNoopLogger(), svc)

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp struct {
				Status string         `json:"status"`
				Error  string         `json:"error"`
				Data   map[string]any `json:"data"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantError, resp.Error)
			if tt.wantData != nil {
				assert.Equal(t, tt.wantData, resp.Data)
			}
			svc.AssertExpectations(t)
		})
	}
}
