// Package sender превращает сообщения из очередей уведомлений в письма покупателям.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/smtp"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

// Service отправляет письма через SMTP-транспорт.
type Service struct {
	transport smtp.Dialer
	log       *slog.Logger
	siteName  string
	siteURL   string
}

// New создаёт Service. siteName и siteURL подставляются в текст писем.
func New(log *slog.Logger, transport smtp.Dialer, siteName, siteURL string) *Service {
	return &Service{
		transport: transport,
		log:       log,
		siteName:  siteName,
		siteURL:   strings.TrimRight(siteURL, "/"),
	}
}

// SendOrderPaid обрабатывает сообщение order.paid.
func (s *Service) SendOrderPaid(body []byte) error {
	const op = "sender.SendOrderPaid"
	var message models.OrderPaidMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}
	if message.Email == "" {
		return fmt.Errorf("%s: message has no recipient", op)
	}

	subject := fmt.Sprintf("%s: order #%d confirmed", s.siteName, message.OrderID)
	bodyText := fmt.Sprintf(`Hello, %s!

Thank you for your purchase.

Order:   #%d
Product: %s
Total:   %s

You can review your orders at %s/api/v1/orders.

%s`,
		message.Username, message.OrderID, message.ProductName,
		FormatMoney(message.TotalMinorUnits, message.Currency), s.siteURL, s.siteName)

	return s.sendEmail([]string{message.Email}, subject, bodyText)
}

// SendSubscriptionExpiring обрабатывает сообщение subscription.expiring.
func (s *Service) SendSubscriptionExpiring(body []byte) error {
	const op = "sender.SendSubscriptionExpiring"
	var message models.SubscriptionExpiringMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}
	if message.Email == "" {
		return fmt.Errorf("%s: message has no recipient", op)
	}

	end := message.CurrentPeriodEnd.UTC().Format(time.RFC1123)
	var next string
	if message.CancelAtPeriodEnd {
		next = fmt.Sprintf("Your subscription was cancelled and API access ends on %s.\nYou can subscribe again at %s.", end, s.siteURL)
	} else {
		next = fmt.Sprintf("Your subscription renews automatically on %s.", end)
	}

	subject := fmt.Sprintf("%s: your data subscription period ends soon", s.siteName)
	bodyText := fmt.Sprintf("Hello, %s!\n\n%s\n\n%s", message.Username, next, s.siteName)

	return s.sendEmail([]string{message.Email}, subject, bodyText)
}

// FormatMoney печатает сумму в минимальных единицах как «49.00 GBP».
func FormatMoney(minorUnits int64, currency string) string {
	sign := ""
	if minorUnits < 0 {
		sign = "-"
		minorUnits = -minorUnits
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minorUnits/100, minorUnits%100, strings.ToUpper(currency))
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.Sender(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Dial()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.Sender()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.Sender()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
