// Package events publishes one event per send attempt so downstream
// consumers (analytics, support tooling) can follow delivery outcomes.
package events

import (
	"context"
	"time"
)

const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

// Event describes the outcome of one send attempt.
type Event struct {
	Status         string    `json:"status"`
	MessageID      string    `json:"message_id,omitempty"`
	TemplateID     string    `json:"template_id,omitempty"`
	TemplateSource string    `json:"template_source,omitempty"`
	RecipientCount int       `json:"recipient_count"`
	ArchiveKey     string    `json:"archive_key,omitempty"`
	Error          string    `json:"error,omitempty"`
	Permanent      bool      `json:"permanent,omitempty"`
	CorrelationID  string    `json:"correlation_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher sends events to a stream or queue and returns the
// broker-assigned id.
type Publisher interface {
	Publish(ctx context.Context, ev Event) (string, error)
}

// Nop drops events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) (string, error) { return "", nil }
