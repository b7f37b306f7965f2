// Package observations проксирует запрос наблюдений во внешний API данных
// с токеном текущего пользователя.
package observations

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bluewave-shop/internal/bluewave"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/response"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/metricsproxy"
)

// Service возвращает сырое тело ответа внешнего API.
type Service interface {
	Observations(ctx context.Context, userUID, start, end string) ([]byte, error)
}

// Handler обрабатывает GET /metrics/observations.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Наблюдения буя
// @Description Тело ответа внешнего API возвращается без изменений.
// @Tags Metrics
// @Produce json
// @Security BearerAuth
// @Param start query string true "Начало интервала"
// @Param end query string true "Конец интервала"
// @Success 200 {object} object
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /metrics/observations [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.metrics.observations"

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

	q := r.URL.Query()
	body, err := h.service.Observations(r.Context(), uid, q.Get("start"), q.Get("end"))
	if err != nil {
		h.fail(w, r, log, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error("failed to write response", sl.Err(err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var apiErr *bluewave.APIError
	switch {
	case errors.Is(err, metricsproxy.ErrMissingRange):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(metricsproxy.ErrMissingRange.Error()))
	case errors.Is(err, metricsproxy.ErrNoToken):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error(metricsproxy.ErrNoToken.Error()))
	case errors.Is(err, apperr.ErrForbidden):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("an active data subscription is required"))
	case errors.As(err, &apiErr):
		log.Warn("data API returned an error", slog.Int("status", apiErr.StatusCode))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error(apiErr.Message))
	case errors.Is(err, apperr.ErrUpstream):
		log.Error("data API unavailable", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("the data API is unavailable, please try again"))
	default:
		log.Error("failed to fetch observations", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
	}
}
