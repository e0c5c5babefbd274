// mailer отправляет письма подтверждения e-mail по SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/pribylovaa/go-contacts-api/internal/config"
	"github.com/pribylovaa/go-contacts-api/internal/pkg/log"
	"github.com/pribylovaa/go-contacts-api/internal/pkg/redact"
)

const confirmSubject = "Confirm your email"

// Mailer — SMTP-клиент. Без состояния между отправками.
type Mailer struct {
	addr    string
	auth    smtp.Auth
	useTLS  bool
	timeout time.Duration
	from    string
}

// New создаёт Mailer. PlainAuth включается, если заданы учётные данные.
func New(cfg config.SMTPConfig) *Mailer {
	var auth smtp.Auth
	if cfg.User != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, host(cfg.Addr))
	}

	return &Mailer{
		addr:    cfg.Addr,
		auth:    auth,
		useTLS:  cfg.UseTLS,
		timeout: cfg.Timeout,
		from:    cfg.From,
	}
}

// SendConfirmation отправляет письмо со ссылкой подтверждения.
func (m *Mailer) SendConfirmation(ctx context.Context, to, username, link string) error {
	const op = "mailer.SendConfirmation"

	body := fmt.Sprintf("Hello, %s!\r\n\r\nPlease confirm your email by following the link:\r\n%s\r\n\r\nIf you did not sign up, ignore this message.", username, link)

	if err := m.Send(ctx, to, confirmSubject, body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Send отправляет текстовое письмо. Дедлайн ctx ограничивает весь SMTP-диалог.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	const op = "mailer.Send"

	lg := log.From(ctx).With(
		slog.String("op", op),
		slog.String("smtp_addr", m.addr),
		slog.Bool("tls", m.useTLS),
		slog.String("to", redact.Email(to)),
	)

	msg := buildMessage(m.from, to, subject, body)
	start := time.Now()

	dialer := net.Dialer{Timeout: m.timeout}
	var (
		conn net.Conn
		err  error
	)
	if m.useTLS {
		conn, err = (&tls.Dialer{NetDialer: &dialer, Config: &tls.Config{ServerName: host(m.addr)}}).DialContext(ctx, "tcp", m.addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", m.addr)
	}
	if err != nil {
		lg.Error("smtp_dial_failed", slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	c, err := smtp.NewClient(conn, host(m.addr))
	if err != nil {
		_ = conn.Close()
		lg.Error("smtp_client_failed", slog.String("err", err.Error()))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = c.Close() }()

	if !m.useTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: host(m.addr)}); err != nil {
				lg.Error("smtp_starttls_failed", slog.String("err", err.Error()))
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	if m.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(m.auth); err != nil {
				lg.Error("smtp_auth_failed", slog.String("err", err.Error()))
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	if err := c.Mail(m.from); err != nil {
		return fmt.Errorf("%s: mail from: %w", op, err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("%s: rcpt to: %w", op, err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("%s: data: %w", op, err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("%s: write: %w", op, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%s: close: %w", op, err)
	}

	if err := c.Quit(); err != nil {
		lg.Warn("smtp_quit_failed", slog.String("err", err.Error()))
	}

	lg.Info("email_sent", slog.Duration("elapsed", time.Since(start)))
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

func host(addr string) string {
	if h, _, err := net.SplitHostPort(addr); err == nil {
		return h
	}

	return addr
}
