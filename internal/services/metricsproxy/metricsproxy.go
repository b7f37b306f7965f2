// Package metricsproxy отдаёт пользователю наблюдения внешнего API с его собственным токеном.
package metricsproxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/metrics"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

// ErrMissingRange — не задан start или end.
var ErrMissingRange = errors.New("start and end are required")

// ErrNoToken — у пользователя нет действующего токена API.
var ErrNoToken = errors.New("no valid API token, request one on the API access page")

// Entitlement проверяет право на API.
type Entitlement interface {
	IsEntitled(ctx context.Context, userUID string) (bool, error)
}

// Repository читает профиль с токеном.
type Repository interface {
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
}

// ObservationsAPI — чтение наблюдений.
type ObservationsAPI interface {
	Observations(ctx context.Context, token, start, end string) ([]byte, error)
}

// Proxy проксирует запросы наблюдений.
type Proxy struct {
	entitlement Entitlement
	repo        Repository
	api         ObservationsAPI
	log         *slog.Logger
	now         func() time.Time
}

// New создаёт Proxy.
func New(log *slog.Logger, entitlement Entitlement, repo Repository, api ObservationsAPI) *Proxy {
	return &Proxy{entitlement: entitlement, repo: repo, api: api, log: log, now: time.Now}
}

// Observations возвращает тело ответа внешнего API без изменений.
func (p *Proxy) Observations(ctx context.Context, userUID, start, end string) ([]byte, error) {
	const op = "metricsproxy.Observations"
	if start == "" || end == "" {
		return nil, ErrMissingRange
	}

	entitled, err := p.entitlement.IsEntitled(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !entitled {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrForbidden)
	}

	profile, err := p.repo.GetProfile(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !profile.HasValidAPIToken(p.now()) {
		return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrForbidden, ErrNoToken)
	}

	body, err := p.api.Observations(ctx, profile.APIToken, start, end)
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("bluewave").Inc()
		p.log.Warn("observations request failed", sl.Op(op), slog.String("user_uid", userUID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return body, nil
}
