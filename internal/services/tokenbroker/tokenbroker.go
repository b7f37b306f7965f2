// Package tokenbroker выдаёт пользователям с действующей подпиской токен внешнего API данных.
package tokenbroker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/bluewave-shop/internal/bluewave"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/jwt"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/metrics"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
)

// FallbackTTL — срок жизни токена, если из него нельзя прочитать exp.
const FallbackTTL = 12 * time.Hour

// Entitlement проверяет право на API.
type Entitlement interface {
	IsEntitled(ctx context.Context, userUID string) (bool, error)
}

// IdentityAPI — вход и регистрация во внешнем API.
type IdentityAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, r bluewave.Registration) error
}

// Repository сохраняет выданный токен в профиле.
type Repository interface {
	SaveAPIToken(ctx context.Context, userUID, token string, expiresAt time.Time) error
}

// Credentials — учётные данные пользователя во внешнем API.
type Credentials struct {
	Email    string
	Password string
}

// Token — выданный токен и момент его истечения.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Broker выдаёт токены.
type Broker struct {
	entitlement Entitlement
	api         IdentityAPI
	repo        Repository
	log         *slog.Logger
	now         func() time.Time
}

// New создаёт Broker.
func New(log *slog.Logger, entitlement Entitlement, api IdentityAPI, repo Repository) *Broker {
	return &Broker{
		entitlement: entitlement,
		api:         api,
		repo:        repo,
		log:         log,
		now:         time.Now,
	}
}

// IssueToken получает токен внешнего API и сохраняет его в профиле.
//
// Без действующей подписки возвращает apperr.ErrForbidden, не обращаясь к API.
// Если вход отклонён, пользователь один раз регистрируется от имени администратора
// и вход повторяется ровно один раз. Без учётных данных администратора регистрация
// пропускается. Ошибка регистрации и прочие ошибки возвращаются сразу.
func (b *Broker) IssueToken(ctx context.Context, userUID string, creds Credentials) (*Token, error) {
	const op = "tokenbroker.IssueToken"
	log := b.log.With(sl.Op(op), slog.String("user_uid", userUID))

	entitled, err := b.entitlement.IsEntitled(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !entitled {
		metrics.TokenIssues.WithLabelValues(metrics.OutcomeForbidden).Inc()
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrForbidden)
	}

	value, err := b.api.Login(ctx, creds.Email, creds.Password)
	if errors.Is(err, apperr.ErrInvalidCredentials) {
		log.Info("login rejected, registering user in external API")
		regErr := b.api.Register(ctx, bluewave.Registration{Email: creds.Email, Password: creds.Password})
		switch {
		case errors.Is(regErr, bluewave.ErrAdminNotConfigured):
			log.Warn("admin credentials not configured, skipping registration")
		case regErr != nil:
			log.Error("registration failed", sl.Err(regErr))
			metrics.TokenIssues.WithLabelValues(metrics.OutcomeFailed).Inc()
			if errors.Is(regErr, apperr.ErrUpstream) {
				metrics.UpstreamFailures.WithLabelValues("bluewave").Inc()
			}
			return nil, fmt.Errorf("%s: register: %w", op, regErr)
		}
		value, err = b.api.Login(ctx, creds.Email, creds.Password)
	}
	if err != nil {
		metrics.TokenIssues.WithLabelValues(metrics.OutcomeFailed).Inc()
		if errors.Is(err, apperr.ErrUpstream) {
			metrics.UpstreamFailures.WithLabelValues("bluewave").Inc()
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token := &Token{Value: value, ExpiresAt: b.expiry(value)}
	if err := b.repo.SaveAPIToken(ctx, userUID, token.Value, token.ExpiresAt); err != nil {
		metrics.TokenIssues.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.TokenIssues.WithLabelValues(metrics.OutcomeIssued).Inc()
	log.Info("api token issued", slog.Time("expires_at", token.ExpiresAt))
	return token, nil
}

// expiry берёт exp из токена без проверки подписи, иначе now+FallbackTTL.
func (b *Broker) expiry(token string) time.Time {
	exp, err := jwt.UnverifiedExpiry(token)
	if err != nil {
		b.log.Debug("token expiry not decodable, using fallback", sl.Err(err))
		return b.now().Add(FallbackTTL)
	}
	return exp.UTC()
}
