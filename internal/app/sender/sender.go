// Package sender собирает процесс рассылки писем из очередей уведомлений.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/bluewave-shop/internal/config"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/bluewave-shop/internal/services/sender"
)

// App — рассыльщик уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New подключается к брокеру и готовит SMTP-транспорт.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	svc := senderservice.New(logger, transport, cfg.Site.Name, cfg.Site.URL)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: svc,
		logger:        logger,
	}, nil
}

func (a *App) handlerFor(routingKey string) func([]byte) error {
	switch routingKey {
	case rabbitmq.RoutingOrderPaid:
		return a.senderService.SendOrderPaid
	case rabbitmq.RoutingSubscriptionExpiring:
		return a.senderService.SendSubscriptionExpiring
	default:
		return nil
	}
}

// Run потребляет все очереди уведомлений до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	for _, q := range rabbitmq.GetNotificationQueues() {
		handler := a.handlerFor(q.RoutingKey)
		if handler == nil {
			a.logger.Warn("no handler for queue", slog.String("queue", q.QueueName))
			continue
		}
		if err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, q.QueueName, handler); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), sl.Err(err))
			return err
		}
		a.logger.Info("consumer started", slog.String("queue", q.QueueName))
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
