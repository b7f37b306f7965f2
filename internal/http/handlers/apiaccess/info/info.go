// Package info отдаёт данные страницы доступа к API: есть ли право, действует ли
// сохранённый токен и где искать документацию.
package info

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bluewave-shop/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bluewave-shop/internal/http/response"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

// Entitlement проверяет право на API.
type Entitlement interface {
	IsEntitled(ctx context.Context, userUID string) (bool, error)
}

// Profiles читает профиль с токеном.
type Profiles interface {
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
}

// Info — ответ страницы доступа.
type Info struct {
	Entitled       bool       `json:"entitled"`
	HasValidToken  bool       `json:"has_valid_token"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	APIBaseURL     string     `json:"api_base_url"`
	DocsURL        string     `json:"docs_url"`
}

// Handler обрабатывает GET /api-access.
type Handler struct {
	log         *slog.Logger
	entitlement Entitlement
	profiles    Profiles
	baseURL     string
	docsURL     string
	now         func() time.Time
}

// New создаёт Handler.
func New(log *slog.Logger, entitlement Entitlement, profiles Profiles, baseURL, docsURL string) *Handler {
	return &Handler{
		log:         log,
		entitlement: entitlement,
		profiles:    profiles,
		baseURL:     baseURL,
		docsURL:     docsURL,
		now:         time.Now,
	}
}

// ServeHTTP godoc
// @Summary Доступ к API данных
// @Description Право на API вычисляется по подпискам в момент запроса.
// @Tags API access
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=Info}
// @Router /api-access [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.apiaccess.info"

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

	entitled, err := h.entitlement.IsEntitled(r.Context(), uid)
	if err != nil {
		log.Error("failed to check entitlement", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	profile, err := h.profiles.GetProfile(r.Context(), uid)
	if err != nil {
		log.Error("failed to load profile", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	res := Info{
		Entitled:      entitled,
		HasValidToken: profile.HasValidAPIToken(h.now()),
		APIBaseURL:    h.baseURL,
		DocsURL:       h.docsURL,
	}
	if res.HasValidToken {
		res.TokenExpiresAt = profile.APITokenExpiresAt
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}
