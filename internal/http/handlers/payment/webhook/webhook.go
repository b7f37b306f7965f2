// Package webhook принимает события платёжного провайдера.
//
// Ответ 400 означает только непрошедшую проверку подписи. Обработанные и
// сознательно пропущенные события получают 200, временные сбои — 500, чтобы
// провайдер повторил доставку.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bluewave-shop/internal/http/response"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/metrics"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/paymentprovider"
)

// SignatureHeader — заголовок с подписью события.
const SignatureHeader = "Stripe-Signature"

// maxBodyBytes ограничивает размер тела события.
const maxBodyBytes = 65536

// Verifier проверяет подпись и разбирает событие.
type Verifier interface {
	VerifyEvent(payload []byte, signature string) (*paymentprovider.Event, error)
}

// Reconciler применяет событие к локальным данным.
type Reconciler interface {
	HandleEvent(ctx context.Context, ev *paymentprovider.Event) error
}

// Handler обрабатывает POST /payments/webhook.
type Handler struct {
	log        *slog.Logger
	verifier   Verifier
	reconciler Reconciler
}

// New создаёт Handler.
func New(log *slog.Logger, verifier Verifier, reconciler Reconciler) *Handler {
	return &Handler{log: log, verifier: verifier, reconciler: reconciler}
}

// ServeHTTP godoc
// @Summary Webhook платёжного провайдера
// @Description Принимает события checkout.session.completed, customer.subscription.updated и customer.subscription.deleted.
// @Tags Payments
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Подпись события"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Подпись не прошла проверку"
// @Failure 500 {object} response.ErrorResponse "Временный сбой, доставку нужно повторить"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read body"))
		return
	}

	ev, err := h.verifier.VerifyEvent(body, r.Header.Get(SignatureHeader))
	if err != nil {
		if errors.Is(err, apperr.ErrAuthVerification) {
			log.Warn("webhook signature rejected", sl.Err(err))
		} else {
			log.Error("failed to verify webhook", sl.Err(err))
		}
		metrics.WebhookEvents.WithLabelValues("unverified", metrics.OutcomeRejected).Inc()
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	log = log.With(slog.String("event_id", ev.ID), slog.String("event_type", ev.Type))
	if err := h.reconciler.HandleEvent(r.Context(), ev); err != nil {
		log.Error("webhook processing failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("processing failed"))
		return
	}

	log.Info("webhook accepted")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"received": true,
	}))
}
