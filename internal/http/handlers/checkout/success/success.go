// Package success обрабатывает возврат пользователя со страницы оплаты.
//
// Возврат никогда не показывает ошибку из-за сбоя провайдера: в худшем случае
// пользователь видит статус pending, а заказ создаст webhook.
package success

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bluewave-shop/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/response"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/checkout"
)

// Service применяет результат оплаты.
type Service interface {
	OnReturn(ctx context.Context, userUID, sessionID string) (*checkout.ReturnResult, error)
}

// Handler обрабатывает GET /checkout/success.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Возврат после оплаты
// @Description Подтверждает оплату по session_id и возвращает заказ. При задержке провайдера статус pending.
// @Tags Checkout
// @Produce json
// @Security BearerAuth
// @Param session_id query string false "Идентификатор сессии оплаты"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Сессия принадлежит другому пользователю"
// @Router /checkout/success [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout.success"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	res, err := h.service.OnReturn(r.Context(), uid, r.URL.Query().Get("session_id"))
	if errors.Is(err, apperr.ErrForbidden) {
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("this checkout session belongs to another account"))
		return
	}
	if err != nil {
		log.Error("failed to handle checkout return", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(res))
}
