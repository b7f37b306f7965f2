// Package verify обменивает промежуточный токен и код TOTP на полный токен.
package verify

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

// Service проверяет код второго фактора.
type Service interface {
	VerifyTOTP(ctx context.Context, userUID, code string) (string, error)
}

// Handler обрабатывает POST /2fa/verify.
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
// @Summary Проверка кода второго фактора
// @Description Принимает промежуточный токен из /login и код TOTP, возвращает полный токен.
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Код TOTP"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Неверный код"
// @Failure 409 {object} response.ErrorResponse "Второй фактор не включён"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /2fa/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.twofactor.verify"

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
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	token, err := h.service.VerifyTOTP(r.Context(), uid, req.Code)
	switch {
	case errors.Is(err, apperr.ErrInvalidCredentials):
		log.Warn("invalid totp code", slog.String("user_uid", uid))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid code"))
		return
	case errors.Is(err, apperr.ErrConflict):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("two-factor authentication is not enabled"))
		return
	case err != nil:
		log.Error("failed to verify totp", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("two-factor verification passed", slog.String("user_uid", uid))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"token": token,
	}))
}
