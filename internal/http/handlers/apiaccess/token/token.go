// Package token выдаёт пользователю токен внешнего API данных.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/bluewave-shop/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/response"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/tokenbroker"
)

// Request — учётные данные пользователя во внешнем API.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Service выдаёт токен.
type Service interface {
	IssueToken(ctx context.Context, userUID string, creds tokenbroker.Credentials) (*tokenbroker.Token, error)
}

// Handler обрабатывает POST /api-token.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Получить токен API данных
// @Description Требует действующую подписку. Если пользователя нет во внешнем API, он регистрируется автоматически.
// @Tags API access
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Учётные данные во внешнем API"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Внешний API отклонил учётные данные"
// @Failure 403 {object} response.ErrorResponse "Нет действующей подписки"
// @Failure 502 {object} response.ErrorResponse "Внешний API недоступен"
// @Router /api-token [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.apiaccess.token"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	tok, err := h.service.IssueToken(r.Context(), uid, tokenbroker.Credentials{Email: req.Email, Password: req.Password})
	switch {
	case errors.Is(err, apperr.ErrForbidden):
		log.Info("token refused, no active subscription", slog.String("user_uid", uid))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("an active data subscription is required"))
		return
	case errors.Is(err, apperr.ErrInvalidCredentials):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("the data API rejected these credentials"))
		return
	case errors.Is(err, apperr.ErrUpstream):
		log.Error("data API unavailable", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("the data API is unavailable, please try again"))
		return
	case err != nil:
		log.Error("failed to issue token", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(tok))
}
