// Package cancel отвечает пользователю, отменившему оплату.
package cancel

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bluewave-shop/internal/http/response"
)

// Handler обрабатывает GET /checkout/cancel.
type Handler struct {
	log *slog.Logger
}

// New создаёт Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Отмена оплаты
// @Tags Checkout
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /checkout/cancel [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.log.Info("checkout cancelled",
		slog.String("op", "handlers.checkout.cancel"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status":  "cancelled",
		"message": "Checkout cancelled. You have not been charged.",
	}))
}
