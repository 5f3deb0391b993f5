// Package notify runs the notification pipeline for one request: identity
// verification, recipient authorization, rate limiting, configuration
// resolution, template resolution and rendering, then delivery.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sungwon/notify-mailer/internal/archive"
	"github.com/sungwon/notify-mailer/internal/auth"
	"github.com/sungwon/notify-mailer/internal/catalog"
	"github.com/sungwon/notify-mailer/internal/events"
	"github.com/sungwon/notify-mailer/internal/logger"
	"github.com/sungwon/notify-mailer/internal/mailer"
	"github.com/sungwon/notify-mailer/internal/metrics"
	"github.com/sungwon/notify-mailer/internal/render"
	"github.com/sungwon/notify-mailer/internal/settings"
)

// Request is one notification to send.
type Request struct {
	Recipients        []string
	Subject           string
	TemplateID        string
	Variables         map[string]string
	HTML              string
	Text              string
	SkipAuthorization bool
}

// Result describes a delivered notification.
type Result struct {
	MessageID      string
	TemplateSource catalog.Source
	ArchiveKey     string
}

// Deps wires the collaborators of a Service. Verifier, Limiter, Archive and
// Events are optional.
type Deps struct {
	Settings  *settings.Resolver
	Catalog   *catalog.Resolver
	Verifier  auth.Verifier
	Limiter   *auth.RateLimiter
	Deliverer mailer.Deliverer
	Archive   archive.Archive
	Events    events.Publisher
}

// Service sends notifications.
type Service struct {
	settings  *settings.Resolver
	catalog   *catalog.Resolver
	verifier  auth.Verifier
	limiter   *auth.RateLimiter
	deliverer mailer.Deliverer
	archive   archive.Archive
	events    events.Publisher
	now       func() time.Time
}

// NewService creates a Service from deps.
func NewService(deps Deps) *Service {
	s := &Service{
		settings:  deps.Settings,
		catalog:   deps.Catalog,
		verifier:  deps.Verifier,
		limiter:   deps.Limiter,
		deliverer: deps.Deliverer,
		archive:   deps.Archive,
		events:    deps.Events,
		now:       time.Now,
	}
	if s.settings == nil {
		s.settings = settings.NewResolver(nil)
	}
	if s.catalog == nil {
		s.catalog = catalog.NewResolver(nil)
	}
	if s.archive == nil {
		s.archive = archive.Nop{}
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	return s
}

// Send runs the pipeline for req. authorization is the raw Authorization
// header; it is ignored when req.SkipAuthorization is set.
func (s *Service) Send(ctx context.Context, req Request, authorization string) (*Result, error) {
	log := logger.FromContext(ctx).With().
		Str("template", req.TemplateID).
		Int("recipient_count", len(req.Recipients)).
		Logger()

	recipients, err := cleanRecipients(req.Recipients)
	if err != nil {
		metrics.NotifyRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	req.Recipients = recipients

	caller, err := s.identify(ctx, req, authorization)
	if err != nil {
		metrics.NotifyRequestsTotal.WithLabelValues("unauthorized").Inc()
		return nil, err
	}

	decision := auth.Authorize(auth.Request{
		Recipients:        req.Recipients,
		SkipAuthorization: req.SkipAuthorization,
	}, caller, caller.IsAdmin())
	if !decision.Allowed {
		if decision.Reason == auth.ReasonAuthenticationRequired {
			metrics.NotifyRequestsTotal.WithLabelValues("unauthorized").Inc()
			return nil, ErrAuthenticationRequired
		}
		metrics.NotifyRequestsTotal.WithLabelValues("forbidden").Inc()
		log.Info().Str("caller", caller.UserID).Msg("recipient authorization denied")
		return nil, ErrForbiddenRecipients
	}

	reservation, err := s.limiter.Reserve(ctx, rateLimitKey(req, caller))
	if err != nil {
		if errors.Is(err, auth.ErrRateLimited) {
			metrics.NotifyRequestsTotal.WithLabelValues("rate_limited").Inc()
			metrics.RateLimitedTotal.Inc()
			return nil, err
		}
		log.Warn().Err(err).Msg("rate limit check failed, allowing send")
	}
	sent := false
	defer func() {
		if sent {
			return
		}
		if err := reservation.Cancel(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("failed to release rate limit reservation")
		}
	}()

	resolved := s.settings.Resolve(ctx)
	if !resolved.Transport.Enabled {
		metrics.NotifyRequestsTotal.WithLabelValues("disabled").Inc()
		log.Info().Msg("email sending disabled, skipping delivery")
		return nil, ErrTransportDisabled
	}
	if !resolved.Transport.Complete() {
		metrics.NotifyRequestsTotal.WithLabelValues("unconfigured").Inc()
		log.Warn().Msg("smtp transport incomplete, skipping delivery")
		return nil, ErrTransportIncomplete
	}

	email, source := s.content(ctx, req, resolved)
	messageID := uuid.NewString()
	log = log.With().Str("message_id", messageID).Str("template_source", string(source)).Logger()

	ev := events.Event{
		MessageID:      messageID,
		TemplateID:     req.TemplateID,
		TemplateSource: string(source),
		RecipientCount: len(req.Recipients),
		CorrelationID:  logger.CorrelationIDFromContext(ctx),
	}

	if err := s.deliverer.Deliver(ctx, resolved.Transport, req.Recipients, email); err != nil {
		metrics.NotifyRequestsTotal.WithLabelValues("failed").Inc()
		ev.Status = events.StatusFailed
		ev.Error = err.Error()
		var derr *mailer.DeliveryError
		if errors.As(err, &derr) {
			ev.Permanent = derr.Permanent()
			log.Error().Err(derr.Err).Str("stage", string(derr.Stage)).Int("recipient_index", derr.Index).Msg("delivery failed")
		} else {
			log.Error().Err(err).Msg("delivery failed")
		}
		s.publish(ctx, log, ev)
		return nil, err
	}

	sent = true

	result := &Result{MessageID: messageID, TemplateSource: source}
	result.ArchiveKey = s.store(ctx, log, archive.Record{
		MessageID:      messageID,
		TemplateID:     req.TemplateID,
		TemplateSource: string(source),
		Subject:        email.Subject,
		RecipientCount: len(req.Recipients),
		HTML:           email.HTML,
		Text:           email.Text,
		SentAt:         s.now(),
	})

	ev.Status = events.StatusDelivered
	ev.ArchiveKey = result.ArchiveKey
	s.publish(ctx, log, ev)

	metrics.NotifyRequestsTotal.WithLabelValues("sent").Inc()
	log.Info().Msg("notification delivered")
	return result, nil
}

// Preview resolves configuration and renders req without authorization or
// delivery.
func (s *Service) Preview(ctx context.Context, req Request) (render.Email, catalog.Source) {
	return s.content(ctx, req, s.settings.Resolve(ctx))
}

func (s *Service) identify(ctx context.Context, req Request, authorization string) (*auth.Identity, error) {
	if req.SkipAuthorization {
		return nil, nil
	}
	token, err := auth.BearerToken(authorization)
	if err != nil {
		if errors.Is(err, auth.ErrMissingToken) {
			return nil, ErrAuthenticationRequired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if s.verifier == nil {
		metrics.APIAuthFailuresTotal.Inc()
		return nil, fmt.Errorf("%w: no token verifier configured", ErrInvalidToken)
	}
	id, err := s.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrVerifierUnavailable) {
			return nil, fmt.Errorf("verify token: %w", err)
		}
		metrics.APIAuthFailuresTotal.Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return id, nil
}

// content picks what drives the message: a template id, then caller HTML,
// then the ad-hoc template built from subject and text. With none of those
// the minimal fallback document is sent.
func (s *Service) content(ctx context.Context, req Request, resolved settings.Resolved) (render.Email, catalog.Source) {
	start := time.Now()
	defer func() {
		metrics.RenderDuration.Observe(time.Since(start).Seconds())
	}()

	if req.TemplateID == "" && req.HTML != "" {
		subject := req.Subject
		if subject == "" {
			subject = catalog.DefaultSubject
		}
		text := req.Text
		if text == "" {
			text = render.StripTags(req.HTML)
		}
		return render.Email{Subject: subject, HTML: req.HTML, Text: text}, catalog.SourceAdhoc
	}

	if req.TemplateID == "" && req.Text == "" {
		vars := render.BuildVariables(resolved.Branding, resolved.SiteURL, req.Variables)
		parts := render.Interpolate(vars, req.Subject, req.Variables["message"])
		return render.ComposeFallback(parts[0], parts[1], resolved.Branding), catalog.SourceFallback
	}

	def, source := s.catalog.Resolve(ctx, catalog.Lookup{
		TemplateID: req.TemplateID,
		Subject:    req.Subject,
		Text:       req.Text,
		Variables:  req.Variables,
	})
	vars := render.BuildVariables(resolved.Branding, resolved.SiteURL, req.Variables)
	email, err := render.Render(def, vars, resolved.Branding)
	if err != nil {
		l := logger.FromContext(ctx)
		l.Warn().Err(err).Str("template", def.ID).Msg("render failed, using fallback layout")
		text := req.Text
		if text == "" {
			text = req.Variables["message"]
		}
		return render.ComposeFallback(req.Subject, text, resolved.Branding), source
	}
	return email, source
}

func (s *Service) store(ctx context.Context, log zerolog.Logger, rec archive.Record) string {
	key, err := s.archive.Store(ctx, rec)
	if err != nil {
		metrics.ArchiveWritesTotal.WithLabelValues("failure").Inc()
		log.Warn().Err(err).Msg("failed to archive notification")
		return ""
	}
	if key != "" {
		metrics.ArchiveWritesTotal.WithLabelValues("success").Inc()
	}
	return key
}

func (s *Service) publish(ctx context.Context, log zerolog.Logger, ev events.Event) {
	ev.OccurredAt = s.now().UTC()
	if _, err := s.events.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("status", ev.Status).Msg("failed to publish delivery event")
	}
}

func rateLimitKey(req Request, caller *auth.Identity) string {
	if req.SkipAuthorization || caller == nil {
		return auth.SystemCaller
	}
	if caller.Email != "" {
		return strings.ToLower(caller.Email)
	}
	return caller.UserID
}

// cleanRecipients drops blank entries and reduces the rest to bare
// addresses.
func cleanRecipients(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, r := range in {
		if strings.TrimSpace(r) == "" {
			continue
		}
		addr, err := mailer.ParseAddress(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRecipient, err)
		}
		out = append(out, addr)
	}
	if len(out) == 0 {
		return nil, ErrNoRecipients
	}
	return out, nil
}
