package mockapi

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"sync"
	"time"

	config "github.com/NordCoder/Linkbio/internal/config/mockapi"
	domainauth "github.com/NordCoder/Linkbio/internal/domain/auth"
	"github.com/NordCoder/Linkbio/internal/obs"
	"github.com/NordCoder/Linkbio/internal/obs/retry"
	"go.uber.org/zap"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Mail struct {
	To      string
	Subject string
	Body    string
	SentAt  time.Time
}

// Mailbox keeps every message in memory so tests and the CLI can read the
// tokens that would have been emailed.
type Mailbox struct {
	mu    sync.Mutex
	mails []Mail
	next  Mailer
}

// NewMailbox records messages and forwards them to next when it is set.
func NewMailbox(next Mailer) *Mailbox {
	return &Mailbox{next: next}
}

func (b *Mailbox) Send(ctx context.Context, to, subject, body string) error {
	b.mu.Lock()
	b.mails = append(b.mails, Mail{To: to, Subject: subject, Body: body, SentAt: time.Now()})
	b.mu.Unlock()
	if b.next != nil {
		return b.next.Send(ctx, to, subject, body)
	}
	return nil
}

func (b *Mailbox) All() []Mail {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Mail(nil), b.mails...)
}

// LastToken returns the token of the newest mail of the kind sent to the
// address.
func (b *Mailbox) LastToken(to string, kind domainauth.TicketKind) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	marker := ticketPaths[kind] + "?token="
	for i := len(b.mails) - 1; i >= 0; i-- {
		m := b.mails[i]
		if !strings.EqualFold(m.To, to) {
			continue
		}
		if k := strings.Index(m.Body, marker); k >= 0 {
			tok := m.Body[k+len(marker):]
			if j := strings.IndexAny(tok, " \r\n"); j >= 0 {
				tok = tok[:j]
			}
			return tok, true
		}
	}
	return "", false
}

var ticketPaths = map[domainauth.TicketKind]string{
	domainauth.TicketVerifyEmail:   "/verify-email",
	domainauth.TicketResetPassword: "/reset-password",
}

func renderTicket(frontend string, t *domainauth.Ticket) (subject, body string) {
	link := strings.TrimSuffix(frontend, "/") + ticketPaths[t.Kind] + "?token=" + t.Token
	if t.Kind == domainauth.TicketResetPassword {
		return "Reset Your Password", "You requested a password reset.\n\n" +
			"Click the link below to reset your password:\n\n" + link + "\n\n" +
			"If you did not request this, just ignore this email.\n"
	}
	return "Verify your email", "Welcome!\n\nPlease verify your email by clicking the link below:\n\n" +
		link + "\n\nThis link expires in 24 hours.\n"
}

type SMTPMailer struct {
	addr       string
	auth       smtp.Auth
	useTLS     bool
	timeout    time.Duration
	from       string
	subjPrefix string

	log *zap.Logger
}

func NewSMTPMailer(cfg config.SMTP, log *zap.Logger) *SMTPMailer {
	var auth smtp.Auth
	if cfg.User != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, host(cfg.Addr))
	}
	return &SMTPMailer{
		addr:       cfg.Addr,
		auth:       auth,
		useTLS:     cfg.UseTLS,
		timeout:    cfg.Timeout,
		from:       cfg.From,
		subjPrefix: cfg.SubjPrefix,
		log:        obs.OrNop(log).With(zap.String("component", "mockapi.mailer")),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	subj := strings.TrimSpace(m.subjPrefix + " " + subject)
	msg := []byte(
		"From: " + m.from + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subj + "\r\n" +
			"Content-Type: text/plain; charset=utf-8\r\n" +
			"\r\n" + body + "\r\n")

	start := time.Now()
	log := m.log.With(zap.String("smtp_addr", m.addr), zap.Bool("tls", m.useTLS), zap.String("to", to))
	err := retry.Do(ctx, func(ctx context.Context) error { return m.deliver(ctx, to, msg) }, retry.MailPolicy(log))
	if err != nil {
		log.Error("mail.send failed", zap.Error(err))
		return err
	}
	log.Info("mail.sent", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// deliver makes one SMTP attempt. Only dial failures are retried; once the
// server has answered, its verdict is final.
func (m *SMTPMailer) deliver(ctx context.Context, to string, msg []byte) error {
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
		return fmt.Errorf("smtp dial: %w", err)
	}
	c, err := smtp.NewClient(conn, host(m.addr))
	if err != nil {
		_ = conn.Close()
		return retry.Permanent(fmt.Errorf("smtp client: %w", err))
	}
	defer func() { _ = c.Close() }()

	if m.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(m.auth); err != nil {
				return retry.Permanent(fmt.Errorf("smtp auth: %w", err))
			}
		}
	}
	if err := c.Mail(m.from); err != nil {
		return retry.Permanent(fmt.Errorf("smtp MAIL FROM: %w", err))
	}
	if err := c.Rcpt(to); err != nil {
		return retry.Permanent(fmt.Errorf("smtp RCPT TO: %w", err))
	}
	w, err := c.Data()
	if err != nil {
		return retry.Permanent(fmt.Errorf("smtp DATA: %w", err))
	}
	if _, err := w.Write(msg); err != nil {
		return retry.Permanent(fmt.Errorf("smtp write: %w", err))
	}
	if err := w.Close(); err != nil {
		return retry.Permanent(fmt.Errorf("smtp close: %w", err))
	}
	return c.Quit()
}

func host(addr string) string {
	h, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return h
}
