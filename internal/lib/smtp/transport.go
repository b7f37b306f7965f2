// Package smtp открывает сессии с почтовым сервером для рассылки уведомлений.
package smtp

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"github.com/magabrotheeeer/bluewave-shop/internal/config"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
)

const dialTimeout = 10 * time.Second

// Client — открытая сессия отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает сессии и знает адрес отправителя.
type Dialer interface {
	Dial() (Client, error)
	Sender() string
}

// Transport — Dialer поверх net/smtp.
type Transport struct {
	cfg     config.SMTP
	log     *slog.Logger
	timeout time.Duration
}

// NewTransport создаёт Transport для указанного сервера.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log, timeout: dialTimeout}
}

// Sender возвращает адрес From, а без него — логин SMTP.
func (t *Transport) Sender() string {
	if t.cfg.From != "" {
		return t.cfg.From
	}
	return t.cfg.User
}

// Dial подключается к серверу, включает STARTTLS, если сервер его предлагает,
// и авторизуется PLAIN при заданном логине. Без STARTTLS соединение
// допускается только при RequireTLS=false.
func (t *Transport) Dial() (Client, error) {
	const op = "smtp.Dial"
	addr := net.JoinHostPort(t.cfg.Host, t.cfg.Port)
	log := t.log.With(slog.String("op", op), slog.String("addr", addr))

	conn, err := net.DialTimeout("tcp", addr, t.timeout)
	if err != nil {
		return nil, fmt.Errorf("%s: dial: %w", op, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: handshake: %w", op, err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{ServerName: t.cfg.Host, MinVersion: tls.VersionTLS12}
		if err = client.StartTLS(tlsConfig); err != nil {
			return nil, t.abort(log, client, fmt.Errorf("%s: starttls: %w", op, err))
		}
	} else if t.cfg.RequireTLS {
		return nil, t.abort(log, client, fmt.Errorf("%s: server %s does not offer STARTTLS", op, addr))
	} else {
		log.Debug("STARTTLS not offered, continuing in plain text")
	}

	if t.cfg.User != "" {
		auth := smtp.PlainAuth("", t.cfg.User, t.cfg.Password, t.cfg.Host)
		if err = client.Auth(auth); err != nil {
			return nil, t.abort(log, client, fmt.Errorf("%s: auth: %w", op, err))
		}
	}

	return client, nil
}

func (t *Transport) abort(log *slog.Logger, client *smtp.Client, err error) error {
	if closeErr := client.Close(); closeErr != nil {
		log.Warn("failed to close smtp client", sl.Err(closeErr))
	}
	return err
}
