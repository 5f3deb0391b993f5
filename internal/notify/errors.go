package notify

import "errors"

// Request errors. The HTTP layer maps each of them to a status and message.
var (
	ErrNoRecipients           = errors.New("at least one recipient is required")
	ErrInvalidRecipient       = errors.New("invalid recipient address")
	ErrAuthenticationRequired = errors.New("authorization required")
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrForbiddenRecipients    = errors.New("recipients must match caller")
	ErrTransportDisabled      = errors.New("email sending is disabled")
	ErrTransportIncomplete    = errors.New("smtp transport is not configured")
)
