// Package approveorder согласует оплаченный заказ от имени администратора.
package approveorder

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bluewave-shop/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/response"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

// Service согласует заказ.
type Service interface {
	Approve(ctx context.Context, orderID int64, approverUID string) (*models.Order, error)
}

// Handler обрабатывает POST /admin/orders/{id}/approve.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Согласовать заказ
// @Description Повторное согласование возвращает заказ без изменений.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID заказа"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Заказ не оплачен"
// @Router /admin/orders/{id}/approve [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.approveorder"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	approver, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid order id"))
		return
	}

	order, err := h.service.Approve(r.Context(), id, approver)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("order not found"))
		return
	case errors.Is(err, apperr.ErrConflict):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("only paid orders can be approved"))
		return
	case err != nil:
		log.Error("failed to approve order", slog.Int64("order_id", id), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to approve order"))
		return
	}

	log.Info("order approved", slog.Int64("order_id", id), slog.String("approver", approver))
	render.JSON(w, r, response.StatusOKWithData(order))
}
