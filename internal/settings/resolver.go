package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/sungwon/notify-mailer/internal/logger"
	"github.com/sungwon/notify-mailer/internal/metrics"
)

// Resolver materializes the transport and branding configuration. It reads
// through to the store on every call; nothing is cached.
type Resolver struct {
	store Store
}

// NewResolver returns a Resolver over store. A nil store resolves to the
// built-in defaults.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

type legacyConfig struct {
	SiteURL string `json:"siteUrl"`
	Enabled *bool  `json:"enabled"`
}

// Resolve starts from the defaults and applies every persisted transport and
// branding row in order. A key present in a row overwrites the field; absent
// keys are left alone. The legacy row contributes the site URL and, only when
// no transport row specified it, the enabled flag. Store failures are logged
// and degrade to defaults.
func (r *Resolver) Resolve(ctx context.Context) Resolved {
	log := logger.FromContext(ctx)

	out := Resolved{
		Transport: DefaultTransport(),
		Branding:  DefaultBranding(),
		SiteURL:   DefaultSiteURL,
	}
	if r.store == nil {
		return out
	}

	enabledSet := false
	for _, row := range r.rows(ctx, KeyTransport) {
		t := out.Transport
		present, err := overlay(row, &t)
		if err != nil {
			log.Warn().Err(err).Str("key", KeyTransport).Msg("skipping malformed settings row")
			continue
		}
		out.Transport = t
		if _, ok := present["enabled"]; ok {
			enabledSet = true
		}
	}

	for _, row := range r.rows(ctx, KeyBranding) {
		b := out.Branding
		if _, err := overlay(row, &b); err != nil {
			log.Warn().Err(err).Str("key", KeyBranding).Msg("skipping malformed settings row")
			continue
		}
		out.Branding = b
	}

	if rows := r.rows(ctx, KeyLegacy); len(rows) > 0 {
		var legacy legacyConfig
		if _, err := overlay(rows[len(rows)-1], &legacy); err != nil {
			log.Warn().Err(err).Str("key", KeyLegacy).Msg("skipping malformed settings row")
		} else {
			if legacy.SiteURL != "" {
				out.SiteURL = legacy.SiteURL
			}
			if legacy.Enabled != nil && !enabledSet {
				out.Transport.Enabled = *legacy.Enabled
			}
		}
	}

	out.Transport = normalizeTransport(out.Transport)
	return out
}

func (r *Resolver) rows(ctx context.Context, key string) []json.RawMessage {
	settings, err := r.store.ListSettings(ctx, CategoryEmail, key)
	if err != nil {
		metrics.SettingsReadErrorsTotal.WithLabelValues(key).Inc()
		l := logger.FromContext(ctx)
		l.Error().Err(err).Str("key", key).Msg("settings read failed, using defaults")
		return nil
	}
	out := make([]json.RawMessage, 0, len(settings))
	for _, s := range settings {
		out = append(out, s.Value)
	}
	return out
}

// overlay decodes a JSON object row onto dst, touching only the fields whose
// keys are present and non-null. Values are weakly typed so "587" and 587
// both decode into an int port. It returns the decoded key set.
func overlay(raw json.RawMessage, dst any) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode settings row: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("decode settings row: value is not an object")
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build settings decoder: %w", err)
	}
	if err := dec.Decode(fields); err != nil {
		return nil, fmt.Errorf("apply settings row: %w", err)
	}

	for k, v := range fields {
		if v == nil {
			delete(fields, k)
		}
	}
	return fields, nil
}

func normalizeTransport(t TransportConfig) TransportConfig {
	switch Encryption(strings.ToLower(strings.TrimSpace(string(t.Encryption)))) {
	case EncryptionNone:
		t.Encryption = EncryptionNone
	case EncryptionSSL:
		t.Encryption = EncryptionSSL
	default:
		// "starttls", empty and unknown values all mean a STARTTLS upgrade.
		t.Encryption = EncryptionTLS
	}
	if t.Port <= 0 {
		if t.Encryption == EncryptionSSL {
			t.Port = 465
		} else {
			t.Port = 587
		}
	}
	if t.FromName == "" {
		t.FromName = DefaultTransport().FromName
	}
	if t.FromEmail == "" {
		t.FromEmail = DefaultTransport().FromEmail
	}
	t.Host = strings.TrimSpace(t.Host)
	return t
}
