// Package mailer delivers rendered emails through the configured SMTP relay.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/sungwon/notify-mailer/internal/logger"
	"github.com/sungwon/notify-mailer/internal/metrics"
	"github.com/sungwon/notify-mailer/internal/render"
	"github.com/sungwon/notify-mailer/internal/settings"
)

// Deliverer sends one rendered email to every recipient.
type Deliverer interface {
	Deliver(ctx context.Context, cfg settings.TransportConfig, recipients []string, email render.Email) error
}

// Session is an open, authenticated relay connection.
type Session interface {
	Send(from string, to []string, msg []byte) error
	Close() error
}

// DialFunc opens a Session for cfg.
type DialFunc func(ctx context.Context, cfg settings.TransportConfig) (Session, error)

// Options holds client-side timeouts.
type Options struct {
	DialTimeout    time.Duration
	CommandTimeout time.Duration
	InsecureTLS    bool
}

// SMTPClient implements Deliverer over a single SMTP session per call.
type SMTPClient struct {
	dial DialFunc
}

// NewSMTPClient returns an SMTPClient dialing real relays.
func NewSMTPClient(opts Options) *SMTPClient {
	return &SMTPClient{dial: dialer(opts)}
}

// NewSMTPClientWithDialer returns an SMTPClient using dial, for tests and
// alternative transports.
func NewSMTPClientWithDialer(dial DialFunc) *SMTPClient {
	return &SMTPClient{dial: dial}
}

// Deliver opens one session, sends one message per recipient in order and
// stops at the first failure. The session is closed exactly once.
func (c *SMTPClient) Deliver(ctx context.Context, cfg settings.TransportConfig, recipients []string, email render.Email) error {
	log := logger.FromContext(ctx)
	start := time.Now()
	defer func() {
		metrics.DeliveryDuration.Observe(time.Since(start).Seconds())
	}()

	sess, err := c.dial(ctx, cfg)
	if err != nil {
		stage := StageConnect
		if errors.Is(err, ErrAuthFailed) {
			stage = StageAuth
		}
		return &DeliveryError{Stage: stage, Index: -1, Err: err}
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Debug().Err(err).Msg("smtp session close")
		}
	}()

	for i, rcpt := range recipients {
		if err := ctx.Err(); err != nil {
			return &DeliveryError{Stage: StageSend, Recipient: rcpt, Index: i, Err: err}
		}

		msg, err := BuildMessage(cfg, rcpt, email)
		if err != nil {
			return &DeliveryError{Stage: StageCompose, Recipient: rcpt, Index: i, Err: err}
		}

		if err := sess.Send(cfg.FromEmail, []string{rcpt}, msg); err != nil {
			metrics.MessagesSentTotal.WithLabelValues("failure").Inc()
			return &DeliveryError{Stage: StageSend, Recipient: rcpt, Index: i, Err: err}
		}
		metrics.MessagesSentTotal.WithLabelValues("success").Inc()
	}

	log.Debug().Int("recipient_count", len(recipients)).Str("host", cfg.Host).Msg("smtp delivery complete")
	return nil
}

type smtpSession struct {
	client *smtp.Client
}

func (s *smtpSession) Send(from string, to []string, msg []byte) error {
	return s.client.SendMail(from, to, bytes.NewReader(msg))
}

// Close says QUIT and falls back to dropping the connection.
func (s *smtpSession) Close() error {
	if err := s.client.Quit(); err != nil {
		_ = s.client.Close()
		return err
	}
	return nil
}

func dialer(opts Options) DialFunc {
	return func(ctx context.Context, cfg settings.TransportConfig) (Session, error) {
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		tlsConfig := &tls.Config{
			ServerName:         cfg.Host,
			InsecureSkipVerify: opts.InsecureTLS, //nolint:gosec // opt-in for local relays
			MinVersion:         tls.VersionTLS12,
		}

		d := &net.Dialer{Timeout: opts.DialTimeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		if dl, ok := ctx.Deadline(); ok {
			_ = conn.SetDeadline(dl)
		}

		var client *smtp.Client
		switch cfg.Encryption {
		case settings.EncryptionSSL:
			client = smtp.NewClient(tls.Client(conn, tlsConfig))
		case settings.EncryptionNone:
			client = smtp.NewClient(conn)
		default:
			c, err := smtp.NewClientStartTLS(conn, tlsConfig)
			if err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("starttls %s: %w", addr, err)
			}
			client = c
		}
		if opts.CommandTimeout > 0 {
			client.CommandTimeout = opts.CommandTimeout
			client.SubmissionTimeout = opts.CommandTimeout
		}

		if cfg.Username != "" {
			if err := client.Auth(sasl.NewPlainClient("", cfg.Username, cfg.Password)); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
			}
		}

		return &smtpSession{client: client}, nil
	}
}
