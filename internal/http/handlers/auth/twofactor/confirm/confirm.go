// Package confirm включает второй фактор после проверки первого кода.
package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/bluewave-shop/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/response"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
)

// Request — код из приложения-аутентификатора.
type Request struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// Service подтверждает подключение второго фактора.
type Service interface {
	ConfirmTOTP(ctx context.Context, userUID, code string) error
}

// Handler обрабатывает POST /2fa/confirm.
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
// @Summary Подтверждение второго фактора
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Код TOTP"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Неверный код"
// @Failure 409 {object} response.ErrorResponse "Подключение не начато"
// @Router /2fa/confirm [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.twofactor.confirm"

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
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	err := h.service.ConfirmTOTP(r.Context(), uid, req.Code)
	switch {
	case errors.Is(err, apperr.ErrInvalidCredentials):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid code"))
		return
	case errors.Is(err, apperr.ErrConflict):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("two-factor setup was not started"))
		return
	case err != nil:
		log.Error("failed to confirm totp", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"two_factor_enabled": true,
	}))
}
