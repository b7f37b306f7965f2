// Package usersubscriptions показывает администратору подписки пользователя
// с признаком активности, вычисленным в момент запроса.
package usersubscriptions

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bluewave-shop/internal/http/response"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

// Service возвращает подписки с признаком активности.
type Service interface {
	Views(ctx context.Context, userUID string) ([]models.SubscriptionView, error)
}

// Handler обрабатывает GET /admin/users/{uid}/subscriptions.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подписки пользователя
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Success 200 {object} response.Response
// @Router /admin/users/{uid}/subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.usersubscriptions"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "uid")
	views, err := h.service.Views(r.Context(), uid)
	if err != nil {
		log.Error("failed to list subscriptions", slog.String("user_uid", uid), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list subscriptions"))
		return
	}
	if views == nil {
		views = []models.SubscriptionView{}
	}
	render.JSON(w, r, response.StatusOKWithData(views))
}
