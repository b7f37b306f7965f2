package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/paymentprovider"
)

const testSecret = "whsec_test_secret"

type secretVerifier struct{ secret string }

func (v secretVerifier) VerifyEvent(payload []byte, signature string) (*paymentprovider.Event, error) {
	return paymentprovider.VerifyEvent(payload, signature, v.secret)
}

type ReconcilerMock struct {
	mock.Mock
}

func (m *ReconcilerMock) HandleEvent(ctx context.Context, ev *paymentprovider.Event) error {
	return m.Called(ctx, ev).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func signedPayload(t *testing.T, eventType string) ([]byte, string) {
	t.Helper()
	payload := []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":%q,"created":%d,"data":{"object":{"id":"cs_1"}}}`,
		eventType, time.Now().Unix()))
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestWebhookHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		signed     bool
		header     string
		handlerErr error
		callsRec   bool
		wantCode   int
		wantBody   string
	}{
		{name: "processed", signed: true, callsRec: true, wantCode: http.StatusOK, wantBody: `"received":true`},
		{name: "missing signature", wantCode: http.StatusBadRequest, wantBody: "invalid signature"},
		{name: "forged signature", header: "t=1,v1=deadbeef", wantCode: http.StatusBadRequest, wantBody: "invalid signature"},
		{
			name:       "transient failure asks for redelivery",
			signed:     true,
			handlerErr: fmt.Errorf("lookup: %w", apperr.ErrUpstream),
			callsRec:   true,
			wantCode:   http.StatusInternalServerError,
			wantBody:   "processing failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := new(ReconcilerMock)
			payload, header := signedPayload(t, paymentprovider.EventCheckoutCompleted)
			if !tt.signed {
				header = tt.header
			}
			if tt.callsRec {
				rec.On("HandleEvent", mock.Anything, mock.MatchedBy(func(ev *paymentprovider.Event) bool {
					return ev.ID == "evt_1" && ev.Type == paymentprovider.EventCheckoutCompleted
				})).Return(tt.handlerErr).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(payload))
			if header != "" {
				req.Header.Set(SignatureHeader, header)
			}
			w := httptest.NewRecorder()

			New(newNoopLogger(), secretVerifier{secret: testSecret}, rec).ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			rec.AssertExpectations(t)
		})
	}
}

func TestWebhookHandler_NoSecretRejectsEverything(t *testing.T) {
	rec := new(ReconcilerMock)
	payload, header := signedPayload(t, paymentprovider.EventSubscriptionUpdated)

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(payload))
	req.Header.Set(SignatureHeader, header)
	w := httptest.NewRecorder()

	New(newNoopLogger(), secretVerifier{}, rec).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	rec.AssertNotCalled(t, "HandleEvent", mock.Anything, mock.Anything)
}

func TestWebhookHandler_VerifierError(t *testing.T) {
	rec := new(ReconcilerMock)
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()

	New(newNoopLogger(), failingVerifier{}, rec).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type failingVerifier struct{}

func (failingVerifier) VerifyEvent([]byte, string) (*paymentprovider.Event, error) {
	return nil, errors.New("boom")
}
