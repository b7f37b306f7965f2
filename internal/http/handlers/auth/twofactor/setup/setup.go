// Package setup начинает подключение второго фактора: выдаёт секрет и QR-код.
package setup

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bluewave-shop/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/response"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/services/auth"
)

// Service создаёт секрет TOTP.
type Service interface {
	SetupTOTP(ctx context.Context, userUID string) (*auth.TOTPSetup, error)
}

// Handler обрабатывает GET /2fa/setup.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подключение второго фактора
// @Description Создаёт секрет TOTP и возвращает его вместе с otpauth-ссылкой и QR-кодом (PNG в base64).
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 409 {object} response.ErrorResponse "Второй фактор уже включён"
// @Router /2fa/setup [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.twofactor.setup"

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

	res, err := h.service.SetupTOTP(r.Context(), uid)
	if errors.Is(err, apperr.ErrConflict) {
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("two-factor authentication is already enabled"))
		return
	}
	if err != nil {
		log.Error("failed to set up totp", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(res))
}
