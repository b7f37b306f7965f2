// Package pendingorders отдаёт администратору оплаченные, но не согласованные заказы.
package pendingorders

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bluewave-shop/internal/http/response"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

// Service возвращает очередь согласования.
type Service interface {
	ListPending(ctx context.Context) ([]models.Order, error)
}

// Handler обрабатывает GET /admin/orders/pending.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Заказы на согласование
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/orders/pending [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.pendingorders"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	orders, err := h.service.ListPending(r.Context())
	if err != nil {
		log.Error("failed to list pending orders", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list pending orders"))
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	render.JSON(w, r, response.StatusOKWithData(orders))
}
