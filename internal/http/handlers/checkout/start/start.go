// Package start начинает оплату товара и возвращает ссылку на страницу провайдера.
package start

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bluewave-shop/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/response"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
)

// Service создаёт сессию оплаты.
type Service interface {
	StartCheckout(ctx context.Context, userUID, slug string) (string, error)
}

// Handler обрабатывает POST /checkout/{slug}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Начать оплату
// @Description Создаёт сессию оплаты товара. Подписка оформляется в режиме subscription, остальные товары разовой оплатой.
// @Tags Checkout
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Slug товара"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Failure 422 {object} response.ErrorResponse "Товар нельзя купить онлайн"
// @Failure 502 {object} response.ErrorResponse "Платёжный провайдер недоступен"
// @Router /checkout/{slug} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout.start"

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
	slug := chi.URLParam(r, "slug")

	url, err := h.service.StartCheckout(r.Context(), uid, slug)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("product not found"))
		return
	case errors.Is(err, apperr.ErrConfiguration):
		log.Warn("checkout unavailable", slog.String("slug", slug), sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("this product cannot be purchased online right now"))
		return
	case errors.Is(err, apperr.ErrUpstream):
		log.Error("payment provider unavailable", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("payment provider is unavailable, please try again"))
		return
	case err != nil:
		log.Error("failed to start checkout", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to start checkout"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"checkout_url": url,
	}))
}
