// Package metrics объявляет счётчики Prometheus магазина. Они регистрируются
// в реестре по умолчанию и отдаются обработчиком /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы обработки.
const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
	OutcomeCreated   = "created"
	OutcomePending   = "pending"
	OutcomeForbidden = "forbidden"
	OutcomeIssued    = "issued"
)

var (
	// WebhookEvents считает события платёжного провайдера по типу и исходу.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bluewave_shop",
		Name:      "webhook_events_total",
		Help:      "Payment provider webhook events by type and outcome.",
	}, []string{"type", "outcome"})

	// CheckoutResults считает старты и возвраты из оплаты.
	CheckoutResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bluewave_shop",
		Name:      "checkout_results_total",
		Help:      "Checkout starts and returns by stage and outcome.",
	}, []string{"stage", "outcome"})

	// TokenIssues считает выдачу токенов внешнего API.
	TokenIssues = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bluewave_shop",
		Name:      "api_token_issues_total",
		Help:      "External API token issuance attempts by outcome.",
	}, []string{"outcome"})

	// UpstreamFailures считает ошибки внешних сервисов.
	UpstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bluewave_shop",
		Name:      "upstream_failures_total",
		Help:      "Failed calls to external services.",
	}, []string{"service"})
)
