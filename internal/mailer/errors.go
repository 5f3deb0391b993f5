package mailer

import (
	"errors"
	"fmt"

	"github.com/emersion/go-smtp"
)

// ErrAuthFailed marks a relay that rejected the configured credentials.
var ErrAuthFailed = errors.New("smtp authentication failed")

// Stage names the step of a delivery that failed.
type Stage string

const (
	StageConnect Stage = "connect"
	StageAuth    Stage = "auth"
	StageCompose Stage = "compose"
	StageSend    Stage = "send"
)

// DeliveryError reports the first failure of a delivery. Recipient and
// Index identify the message being sent when it happened; they are kept for
// logs and events and are not part of Error().
type DeliveryError struct {
	Stage     Stage
	Recipient string
	Index     int
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to send email: %s: %v", e.Stage, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Permanent reports whether the relay answered with a 5xx reply.
func (e *DeliveryError) Permanent() bool {
	var smtpErr *smtp.SMTPError
	if errors.As(e.Err, &smtpErr) {
		return smtpErr.Code >= 500
	}
	return errors.Is(e.Err, ErrAuthFailed)
}
