package devrelay

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"github.com/rs/zerolog"

	"github.com/sungwon/notify-mailer/internal/mailer"
)

var (
	errAuthRequired = &gosmtp.SMTPError{
		Code:         530,
		EnhancedCode: gosmtp.EnhancedCode{5, 7, 0},
		Message:      "Authentication required",
	}
	errAuthFailed = &gosmtp.SMTPError{
		Code:         535,
		EnhancedCode: gosmtp.EnhancedCode{5, 7, 8},
		Message:      "Authentication failed",
	}
)

// Session handles a single SMTP connection.
type Session struct {
	ctx           context.Context
	log           zerolog.Logger
	backend       *Backend
	user          string
	authenticated bool
	sender        string
	recipients    []string
}

// AuthMechanisms advertises AUTH PLAIN.
func (s *Session) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

// Auth validates PLAIN credentials against the configured pair.
func (s *Session) Auth(mech string) (sasl.Server, error) {
	if mech != sasl.Plain {
		return nil, gosmtp.ErrAuthUnknownMechanism
	}
	return sasl.NewPlainServer(func(_, username, password string) error {
		opts := s.backend.opts
		if username != opts.Username || password != opts.Password {
			s.log.Warn().Str("username", username).Msg("auth failed")
			return errAuthFailed
		}
		s.user = username
		s.authenticated = true
		s.log.Debug().Str("username", username).Msg("auth successful")
		return nil
	}), nil
}

// Mail handles the MAIL FROM command.
func (s *Session) Mail(from string, _ *gosmtp.MailOptions) error {
	if !s.authenticated {
		return errAuthRequired
	}
	addr, err := mailer.ParseAddress(from)
	if err != nil {
		s.log.Warn().Str("from", from).Msg("invalid sender address format")
		return &gosmtp.SMTPError{
			Code:         550,
			EnhancedCode: gosmtp.EnhancedCode{5, 1, 7},
			Message:      "Invalid sender address",
		}
	}
	s.sender = addr
	return nil
}

// Rcpt handles the RCPT TO command.
func (s *Session) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	if !s.authenticated {
		return errAuthRequired
	}
	addr, err := mailer.ParseAddress(to)
	if err != nil {
		s.log.Warn().Str("to", to).Msg("invalid recipient address format")
		return &gosmtp.SMTPError{
			Code:         550,
			EnhancedCode: gosmtp.EnhancedCode{5, 1, 1},
			Message:      "Invalid recipient address",
		}
	}
	if s.backend.rejects(addr) {
		return &gosmtp.SMTPError{
			Code:         550,
			EnhancedCode: gosmtp.EnhancedCode{5, 1, 1},
			Message:      "Mailbox unavailable",
		}
	}
	s.recipients = append(s.recipients, addr)
	return nil
}

// Data reads the message, extracts its subject and hands it to the sink.
// Message bodies are not logged.
func (s *Session) Data(r io.Reader) error {
	if !s.authenticated {
		return errAuthRequired
	}
	if len(s.recipients) == 0 {
		return &gosmtp.SMTPError{
			Code:         503,
			EnhancedCode: gosmtp.EnhancedCode{5, 5, 1},
			Message:      "No recipients specified",
		}
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		s.log.Error().Err(err).Msg("failed to read message data")
		return &gosmtp.SMTPError{
			Code:         451,
			EnhancedCode: gosmtp.EnhancedCode{4, 3, 0},
			Message:      "Error reading message",
		}
	}

	msg := Message{
		User:       s.user,
		From:       s.sender,
		Recipients: append([]string(nil), s.recipients...),
		Subject:    subjectOf(buf.Bytes()),
		Raw:        buf.Bytes(),
		ReceivedAt: time.Now().UTC(),
	}
	if err := s.backend.sink.Accept(s.ctx, msg); err != nil {
		s.log.Error().Err(err).Msg("failed to store message")
		return &gosmtp.SMTPError{
			Code:         451,
			EnhancedCode: gosmtp.EnhancedCode{4, 3, 0},
			Message:      "Error storing message",
		}
	}

	s.log.Info().
		Str("from", s.sender).
		Strs("to", s.recipients).
		Str("subject", msg.Subject).
		Msg("message captured")
	return nil
}

// Reset is called between messages in the same session. It clears the sender
// and recipients but preserves the authentication state.
func (s *Session) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Logout is called when the client disconnects.
func (s *Session) Logout() error {
	s.backend.active.Add(-1)
	s.log.Debug().Msg("session closed")
	return nil
}

func subjectOf(raw []byte) string {
	mr, _ := mail.CreateReader(bytes.NewReader(raw))
	if mr == nil {
		return ""
	}
	defer mr.Close()
	subject, err := mr.Header.Subject()
	if err != nil {
		return strings.TrimSpace(mr.Header.Get("Subject"))
	}
	return subject
}
