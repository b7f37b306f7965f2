// Package removesubscription удаляет запись подписки и пересчитывает флаг доступа пользователя.
package removesubscription

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bluewave-shop/internal/http/response"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
)

// Service удаляет подписку.
type Service interface {
	DeleteSubscription(ctx context.Context, id int64) (string, bool, error)
}

// Result — владелец удалённой подписки и его право на API после пересчёта.
type Result struct {
	UserUID  string `json:"user_uid"`
	Entitled bool   `json:"entitled"`
}

// Handler обрабатывает DELETE /admin/subscriptions/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить подписку
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID подписки"
// @Success 200 {object} response.Response{data=Result}
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/subscriptions/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.removesubscription"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid subscription id"))
		return
	}

	uid, entitled, err := h.service.DeleteSubscription(r.Context(), id)
	if errors.Is(err, apperr.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("subscription not found"))
		return
	}
	if err != nil {
		log.Error("failed to delete subscription", slog.Int64("id", id), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to delete subscription"))
		return
	}

	log.Info("subscription deleted", slog.Int64("id", id), slog.String("user_uid", uid), slog.Bool("entitled", entitled))
	render.JSON(w, r, response.StatusOKWithData(Result{UserUID: uid, Entitled: entitled}))
}
