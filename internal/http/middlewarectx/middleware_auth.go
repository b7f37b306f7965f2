// Package middlewarectx содержит HTTP middleware магазина: проверку сессионного
// JWT, проверку роли и ограничение частоты запросов.
//
// JWTMiddleware пропускает только полные токены и кладёт в контекст UID, имя и роль
// пользователя. PendingMiddleware пропускает только промежуточный токен второго
// фактора. При ошибке проверки возвращается 401 с сообщением в едином формате.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bluewave-shop/internal/http/response"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/jwt"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID — ключ для UID пользователя в контексте.
	UserUID Key = "user_uid"
	// User — ключ для имени пользователя в контексте.
	User Key = "username"
	// Role — ключ для роли пользователя в контексте.
	Role Key = "role"
)

// TokenParser разбирает и проверяет сессионный токен.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// JWTMiddleware проверяет полный токен в заголовке Authorization.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return stageMiddleware(parser, log, jwt.StageFull, "middlewarectx.JWTMiddleware")
}

// PendingMiddleware проверяет промежуточный токен, выданный до ввода кода TOTP.
func PendingMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return stageMiddleware(parser, log, jwt.StagePending2FA, "middlewarectx.PendingMiddleware")
}

func stageMiddleware(parser TokenParser, log *slog.Logger, stage, op string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			if claims.Stage != stage {
				log.Warn("token stage mismatch", slog.String("stage", claims.Stage))
				render.Status(r, http.StatusUnauthorized)
				if stage == jwt.StageFull {
					render.JSON(w, r, response.Error("two-factor verification required"))
				} else {
					render.JSON(w, r, response.Error("token is not a two-factor challenge"))
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserUID, claims.UserID)
			ctx = context.WithValue(ctx, User, claims.Username)
			ctx = context.WithValue(ctx, Role, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserUIDFrom достаёт UID пользователя, положенный JWTMiddleware.
func UserUIDFrom(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserUID).(string)
	return uid, ok && uid != ""
}

// RoleFrom достаёт роль пользователя из контекста.
func RoleFrom(ctx context.Context) string {
	role, _ := ctx.Value(Role).(string)
	return role
}
