// Package devrelay is a capturing SMTP relay for local development. It
// accepts AUTH PLAIN with one configured credential pair and hands every
// message to a Sink instead of delivering it.
package devrelay

import (
	"context"
	"strings"
	"sync/atomic"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/rs/zerolog"

	"github.com/sungwon/notify-mailer/internal/logger"
)

// Options configures a Backend.
type Options struct {
	Username string
	Password string
	// MaxConns limits concurrent sessions; zero means unlimited.
	MaxConns int
	// Reject lists recipients answered with 550, for exercising failures.
	Reject []string
}

// Backend implements the go-smtp Backend interface.
// It manages session creation and enforces connection limits.
type Backend struct {
	opts   Options
	sink   Sink
	log    zerolog.Logger
	active atomic.Int64
}

// NewBackend creates a Backend writing accepted messages to sink.
func NewBackend(opts Options, sink Sink, log zerolog.Logger) *Backend {
	return &Backend{opts: opts, sink: sink, log: log}
}

// NewSession is called after a client sends EHLO/HELO. It enforces connection
// limits and creates a new Session for the connection.
func (b *Backend) NewSession(conn *gosmtp.Conn) (gosmtp.Session, error) {
	current := b.active.Add(1)
	if b.opts.MaxConns > 0 && int(current) > b.opts.MaxConns {
		b.active.Add(-1)
		b.log.Warn().
			Int64("active", current-1).
			Int("max", b.opts.MaxConns).
			Msg("connection limit reached")
		return nil, &gosmtp.SMTPError{
			Code:         421,
			EnhancedCode: gosmtp.EnhancedCode{4, 7, 0},
			Message:      "Too many connections",
		}
	}

	correlationID := logger.NewCorrelationID()
	ctx := logger.WithCorrelationID(context.Background(), correlationID)

	sessionLog := b.log.With().
		Str("correlation_id", correlationID).
		Str("remote_addr", conn.Conn().RemoteAddr().String()).
		Logger()
	sessionLog.Debug().Msg("new SMTP session")

	return &Session{
		ctx:     logger.WithLogger(ctx, sessionLog),
		log:     sessionLog,
		backend: b,
	}, nil
}

// ActiveSessions returns the current number of active SMTP sessions.
func (b *Backend) ActiveSessions() int64 {
	return b.active.Load()
}

func (b *Backend) rejects(addr string) bool {
	for _, r := range b.opts.Reject {
		if strings.EqualFold(r, addr) {
			return true
		}
	}
	return false
}
