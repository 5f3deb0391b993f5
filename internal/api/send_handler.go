package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cast"

	"github.com/sungwon/notify-mailer/internal/auth"
	"github.com/sungwon/notify-mailer/internal/logger"
	"github.com/sungwon/notify-mailer/internal/notify"
)

// Response messages returned to callers.
const (
	msgDisabled            = "Email sending is disabled. Enable it in the admin settings."
	msgNotConfigured       = "SMTP not configured. Set host, username and password in the admin settings."
	msgAuthRequired        = "Authorization required"
	msgInvalidToken        = "Invalid or expired token"
	msgForbidden           = "You can only send emails to your own address"
	msgRateLimited         = "Rate limit exceeded"
	msgNoRecipients        = "At least one recipient is required"
	msgInvalidRecipient    = "Invalid recipient address"
	msgInvalidBody         = "Invalid request body"
	msgVerifierUnavailable = "Identity verification unavailable"
)

// Sender runs the notification pipeline.
type Sender interface {
	Send(ctx context.Context, req notify.Request, authorization string) (*notify.Result, error)
}

// sendEmailRequest is the JSON body of POST /send-email.
type sendEmailRequest struct {
	To        recipientList  `json:"to"`
	Subject   string         `json:"subject"`
	Template  string         `json:"template"`
	Variables map[string]any `json:"variables"`
	HTML      string         `json:"html"`
	Text      string         `json:"text"`
	SkipAuth  bool           `json:"skipAuth"`
}

// recipientList accepts either a single address or an array of addresses.
type recipientList []string

func (l *recipientList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = recipientList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("to must be a string or an array of strings")
	}
	*l = many
	return nil
}

// SendEmailHandler handles POST /api/v1/send-email.
func SendEmailHandler(sender Sender, maxBodyBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if maxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}

		var body sendEmailRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, msgInvalidBody)
			return
		}

		result, err := sender.Send(r.Context(), notify.Request{
			Recipients:        body.To,
			Subject:           body.Subject,
			TemplateID:        body.Template,
			Variables:         stringifyVariables(body.Variables),
			HTML:              body.HTML,
			Text:              body.Text,
			SkipAuthorization: body.SkipAuth,
		}, r.Header.Get("Authorization"))
		if err != nil {
			respondSendError(w, r, err)
			return
		}

		respondJSON(w, http.StatusOK, sendResponse{Success: true, MessageID: result.MessageID})
	}
}

// respondSendError maps pipeline errors to a status and caller-facing message.
// Configuration problems are answered with 200 so callers can branch on
// success without treating them as failures.
func respondSendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, notify.ErrNoRecipients):
		respondError(w, http.StatusBadRequest, msgNoRecipients)
	case errors.Is(err, notify.ErrInvalidRecipient):
		respondError(w, http.StatusBadRequest, msgInvalidRecipient)
	case errors.Is(err, notify.ErrAuthenticationRequired):
		respondError(w, http.StatusUnauthorized, msgAuthRequired)
	case errors.Is(err, notify.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, msgInvalidToken)
	case errors.Is(err, notify.ErrForbiddenRecipients):
		respondError(w, http.StatusForbidden, msgForbidden)
	case errors.Is(err, auth.ErrRateLimited):
		w.Header().Set("Retry-After", "3600")
		respondError(w, http.StatusTooManyRequests, msgRateLimited)
	case errors.Is(err, notify.ErrTransportDisabled):
		respondError(w, http.StatusOK, msgDisabled)
	case errors.Is(err, notify.ErrTransportIncomplete):
		respondError(w, http.StatusOK, msgNotConfigured)
	case errors.Is(err, auth.ErrVerifierUnavailable):
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("identity verification unavailable")
		respondError(w, http.StatusServiceUnavailable, msgVerifierUnavailable)
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// stringifyVariables flattens caller variables to strings. Scalars use
// their natural form; objects and arrays are JSON-encoded.
func stringifyVariables(in map[string]any) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch v.(type) {
		case nil:
			out[k] = ""
		case map[string]any, []any:
			b, _ := json.Marshal(v)
			out[k] = string(b)
		default:
			out[k] = cast.ToString(v)
		}
	}
	return out
}
