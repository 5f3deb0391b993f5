// Package archive keeps a copy of every delivered notification for support
// and audit lookups.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("archive: record not found")

// ErrInvalidKey is returned for keys that do not name an archived record.
var ErrInvalidKey = errors.New("archive: invalid key")

// Record is one delivered notification.
type Record struct {
	MessageID      string    `json:"message_id"`
	TemplateID     string    `json:"template_id,omitempty"`
	TemplateSource string    `json:"template_source,omitempty"`
	Subject        string    `json:"subject"`
	RecipientCount int       `json:"recipient_count"`
	HTML           string    `json:"html"`
	Text           string    `json:"text,omitempty"`
	SentAt         time.Time `json:"sent_at"`
}

// Archive stores and loads records. Store returns the key under which the
// record can be loaded.
type Archive interface {
	Store(ctx context.Context, rec Record) (string, error)
	Load(ctx context.Context, key string) (*Record, error)
}

// Config holds configuration for creating an Archive.
type Config struct {
	Type       string // "", "local" or "s3"
	Path       string
	S3Bucket   string
	S3Prefix   string
	S3Endpoint string
	S3Region   string
}

// New creates the Archive selected by cfg.Type. An empty type disables
// archiving.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (Archive, error) {
	switch cfg.Type {
	case "":
		return Nop{}, nil
	case "local":
		return NewLocalArchive(cfg.Path)
	case "s3":
		return NewS3ArchiveFromConfig(ctx, cfg)
	default:
		log.Warn().Str("type", cfg.Type).Msg("unsupported archive type, archiving disabled")
		return Nop{}, nil
	}
}

// Nop discards records.
type Nop struct{}

func (Nop) Store(context.Context, Record) (string, error) { return "", nil }

func (Nop) Load(context.Context, string) (*Record, error) { return nil, ErrNotFound }

// recordKey places a record under its send date: 2026/03/01/<id>.json.
func recordKey(rec Record) string {
	return path.Join(rec.SentAt.UTC().Format("2006/01/02"), rec.MessageID+".json")
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || !strings.HasSuffix(key, ".json") {
		return false
	}
	return path.Clean(key) == key && !strings.Contains(key, "..")
}

func encode(rec Record) ([]byte, error) {
	if rec.MessageID == "" {
		return nil, fmt.Errorf("archive: record has no message id")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("archive: encode record: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("archive: decode record: %w", err)
	}
	return &rec, nil
}
