package catalog

import (
	"context"
	"encoding/json"

	"github.com/go-viper/mapstructure/v2"

	"github.com/sungwon/notify-mailer/internal/logger"
	"github.com/sungwon/notify-mailer/internal/metrics"
	"github.com/sungwon/notify-mailer/internal/settings"
)

// Tier is one step of the resolution chain.
type Tier func(ctx context.Context, l Lookup) (Definition, bool)

type tier struct {
	source Source
	fn     Tier
}

// Resolver walks the tiers in order and returns the first match.
type Resolver struct {
	store settings.Store
	chain []tier
}

// NewResolver returns a Resolver reading persisted templates from store.
// A nil store skips the persisted tier.
func NewResolver(store settings.Store) *Resolver {
	r := &Resolver{store: store}
	r.chain = []tier{
		{SourcePersisted, r.persisted},
		{SourceBuiltin, builtinTier},
		{SourceAdhoc, adhocTier},
	}
	return r
}

// Resolve returns the definition for l and the tier that produced it.
func (r *Resolver) Resolve(ctx context.Context, l Lookup) (Definition, Source) {
	for _, t := range r.chain {
		if def, ok := t.fn(ctx, l); ok {
			metrics.TemplateResolutionsTotal.WithLabelValues(string(t.source)).Inc()
			return def, t.source
		}
	}
	// adhocTier always matches.
	return Adhoc(l), SourceAdhoc
}

// persistedDefinition is a catalog entry as admins store it. Either
// "active" or "isActive" may carry the flag; neither means active.
type persistedDefinition struct {
	ID              string `json:"id"`
	Subject         string `json:"subject"`
	Preheader       string `json:"preheader"`
	HeaderText      string `json:"headerText"`
	Body            string `json:"body"`
	ButtonText      string `json:"buttonText"`
	ButtonURL       string `json:"buttonUrl"`
	ShowSocialLinks bool   `json:"showSocialLinks"`
	ShowUnsubscribe bool   `json:"showUnsubscribe"`
	Category        string `json:"category"`
	Active          *bool  `json:"active"`
	IsActive        *bool  `json:"isActive"`
}

func (p persistedDefinition) definition() Definition {
	return Definition{
		ID:              p.ID,
		Subject:         p.Subject,
		Preheader:       p.Preheader,
		HeaderText:      p.HeaderText,
		Body:            p.Body,
		ButtonText:      p.ButtonText,
		ButtonURL:       p.ButtonURL,
		ShowSocialLinks: p.ShowSocialLinks,
		ShowUnsubscribe: p.ShowUnsubscribe,
		Category:        p.Category,
		Active:          true,
	}
}

func (p persistedDefinition) active() bool {
	if p.Active != nil {
		return *p.Active
	}
	if p.IsActive != nil {
		return *p.IsActive
	}
	return true
}

// persisted searches the stored catalogs, newest row first. An inactive
// entry does not match, letting the built-in catalog answer.
func (r *Resolver) persisted(ctx context.Context, l Lookup) (Definition, bool) {
	if r.store == nil || l.TemplateID == "" {
		return Definition{}, false
	}
	log := logger.FromContext(ctx)

	rows, err := r.store.ListSettings(ctx, settings.CategoryEmail, settings.KeyTemplates)
	if err != nil {
		metrics.SettingsReadErrorsTotal.WithLabelValues(settings.KeyTemplates).Inc()
		log.Error().Err(err).Msg("template catalog read failed, skipping persisted templates")
		return Definition{}, false
	}

	for i := len(rows) - 1; i >= 0; i-- {
		var entries []map[string]any
		if err := json.Unmarshal(rows[i].Value, &entries); err != nil {
			log.Warn().Err(err).Msg("skipping malformed template catalog row")
			continue
		}
		for _, e := range entries {
			if id, _ := e["id"].(string); id != l.TemplateID {
				continue
			}
			var p persistedDefinition
			dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				Result:           &p,
				TagName:          "json",
				WeaklyTypedInput: true,
			})
			if err == nil {
				err = dec.Decode(e)
			}
			if err != nil {
				log.Warn().Err(err).Str("template", l.TemplateID).Msg("skipping malformed persisted template")
				continue
			}
			if !p.active() {
				log.Debug().Str("template", l.TemplateID).Msg("persisted template inactive")
				continue
			}
			return p.definition(), true
		}
	}
	return Definition{}, false
}

func builtinTier(ctx context.Context, l Lookup) (Definition, bool) {
	b, ok := builtins[l.TemplateID]
	if !ok {
		return Definition{}, false
	}
	def, err := b.layer(l.TemplateID, l)
	if err != nil {
		l := logger.FromContext(ctx)
		l.Error().Err(err).Msg("built-in template layering failed")
		return Definition{}, false
	}
	return def, true
}

func adhocTier(_ context.Context, l Lookup) (Definition, bool) {
	return Adhoc(l), true
}

// Adhoc synthesizes a definition from the caller's subject and message.
func Adhoc(l Lookup) Definition {
	return Definition{
		ID:              l.TemplateID,
		Subject:         firstNonEmpty(l.Subject, DefaultSubject),
		Body:            firstNonEmpty(l.message(), l.Text),
		ShowSocialLinks: true,
		ShowUnsubscribe: true,
		Active:          true,
	}
}
