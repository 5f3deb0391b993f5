package render

import (
	"strings"
	"testing"

	"github.com/sungwon/notify-mailer/internal/catalog"
	"github.com/sungwon/notify-mailer/internal/settings"
)

func noSocial() settings.BrandingProfile {
	b := settings.DefaultBranding()
	b.FacebookURL, b.TwitterURL, b.InstagramURL, b.LinkedInURL = "", "", "", ""
	return b
}

func compose(t *testing.T, def catalog.Definition, c Content, b settings.BrandingProfile) Email {
	t.Helper()
	email, err := Compose(def, c, b)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	return email
}

func TestCompose_SocialLinks(t *testing.T) {
	def := catalog.Definition{ID: "t", ShowSocialLinks: true}
	content := Content{Subject: "s", Body: "b"}

	empty := compose(t, def, content, noSocial())
	if strings.Contains(empty.HTML, `class="social"`) || strings.Contains(empty.HTML, "social-link") {
		t.Error("expected no social block when all social URLs are empty")
	}

	one := noSocial()
	one.InstagramURL = "https://instagram.com/acme"
	got := compose(t, def, content, one)
	if n := strings.Count(got.HTML, `class="social-link"`); n != 1 {
		t.Errorf("expected exactly one social link, got %d", n)
	}
	if !strings.Contains(got.HTML, `href="https://instagram.com/acme"`) {
		t.Error("expected instagram link")
	}

	all := compose(t, def, content, settings.DefaultBranding())
	if n := strings.Count(all.HTML, `class="social-link"`); n != 4 {
		t.Errorf("expected four social links, got %d", n)
	}

	hidden := compose(t, catalog.Definition{ID: "t"}, content, settings.DefaultBranding())
	if strings.Contains(hidden.HTML, "social-link") {
		t.Error("expected social block hidden when template disables it")
	}
}

func TestCompose_LogoOrWordmark(t *testing.T) {
	b := settings.DefaultBranding()
	b.LogoURL = "https://cdn.example.com/logo.png"
	b.CompanyName = "Acme Realty Group"

	withLogo := compose(t, catalog.Definition{}, Content{Body: "x"}, b)
	if !strings.Contains(withLogo.HTML, `<img src="https://cdn.example.com/logo.png"`) {
		t.Error("expected logo image")
	}
	if strings.Contains(withLogo.HTML, `class="wordmark"`) {
		t.Error("expected no wordmark with a logo")
	}

	b.LogoURL = ""
	withWordmark := compose(t, catalog.Definition{}, Content{Body: "x"}, b)
	if strings.Contains(withWordmark.HTML, "<img") {
		t.Error("expected no image without a logo")
	}
	if !strings.Contains(withWordmark.HTML, `>Acme</span>`) || !strings.Contains(withWordmark.HTML, `>Realty Group</span>`) {
		t.Errorf("expected two-tone wordmark, got %s", withWordmark.HTML)
	}
}

func TestCompose_BodyVerbatimAndEscaping(t *testing.T) {
	email := compose(t, catalog.Definition{}, Content{
		Subject:    "Tom & Jerry",
		HeaderText: "<b>heading</b>",
		Body:       "Line one\n<strong>bold</strong>",
	}, settings.DefaultBranding())

	if !strings.Contains(email.HTML, "Line one\n<strong>bold</strong>") {
		t.Error("expected body inserted verbatim")
	}
	if !strings.Contains(email.HTML, "white-space:pre-line") {
		t.Error("expected pre-line body styling")
	}
	if !strings.Contains(email.HTML, "&lt;b&gt;heading&lt;/b&gt;") {
		t.Error("expected header text escaped")
	}
	if email.Subject != "Tom & Jerry" {
		t.Errorf("expected raw subject on the email, got %q", email.Subject)
	}
}

func TestCompose_ButtonRequiresBothFields(t *testing.T) {
	tests := []struct {
		name       string
		text, url  string
		wantButton bool
	}{
		{"both", "Open", "https://x.example.com", true},
		{"text only", "Open", "", false},
		{"url only", "", "https://x.example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := compose(t, catalog.Definition{}, Content{Body: "b", ButtonText: tt.text, ButtonURL: tt.url}, settings.DefaultBranding())
			if got := strings.Contains(email.HTML, `class="button"`); got != tt.wantButton {
				t.Errorf("expected button=%v", tt.wantButton)
			}
		})
	}
}

func TestCompose_UnsubscribeAndPreheader(t *testing.T) {
	b := settings.DefaultBranding()

	shown := compose(t, catalog.Definition{ShowUnsubscribe: true}, Content{Body: "b", Preheader: "peek"}, b)
	if !strings.Contains(shown.HTML, `class="unsubscribe"`) {
		t.Error("expected unsubscribe line")
	}
	if !strings.Contains(shown.HTML, `class="preheader"`) || !strings.Contains(shown.HTML, "peek") {
		t.Error("expected hidden preheader")
	}

	hidden := compose(t, catalog.Definition{}, Content{Body: "b"}, b)
	if strings.Contains(hidden.HTML, `class="unsubscribe"`) {
		t.Error("expected no unsubscribe line")
	}
	if strings.Contains(hidden.HTML, `class="preheader"`) {
		t.Error("expected no preheader")
	}
}

func TestCompose_Footer(t *testing.T) {
	b := settings.DefaultBranding()
	email := compose(t, catalog.Definition{}, Content{Body: "b"}, b)

	for _, want := range []string{b.FooterText, b.Address, b.Phone, b.SupportEmail, b.CopyrightText} {
		if !strings.Contains(email.HTML, want) {
			t.Errorf("expected footer to contain %q", want)
		}
	}
}

func TestCompose_InvalidColorFallsBack(t *testing.T) {
	b := settings.DefaultBranding()
	b.PrimaryColor = "red;background:url(evil)"

	email := compose(t, catalog.Definition{}, Content{Body: "b"}, b)
	if strings.Contains(email.HTML, "evil") {
		t.Error("expected unsafe color rejected")
	}
	if !strings.Contains(email.HTML, settings.DefaultBranding().PrimaryColor) {
		t.Error("expected default primary color")
	}
}

func TestCompose_PlainTextAlternative(t *testing.T) {
	email := compose(t, catalog.Definition{}, Content{
		HeaderText: "Hello",
		Body:       "Your booking for <strong>Villa</strong> is confirmed.<br>See you &amp; enjoy",
		ButtonText: "View",
		ButtonURL:  "https://x.example.com/b",
	}, settings.DefaultBranding())

	if strings.Contains(email.Text, "<strong>") {
		t.Error("expected tags stripped from text part")
	}
	for _, want := range []string{"Hello", "Villa", "See you & enjoy", "View: https://x.example.com/b"} {
		if !strings.Contains(email.Text, want) {
			t.Errorf("expected text part to contain %q, got %q", want, email.Text)
		}
	}
}

func TestRender_InterpolatesAllFields(t *testing.T) {
	def := catalog.Definition{
		ID:         "booking_confirmation",
		Subject:    "Booked: {{property_title}}",
		HeaderText: "Hi {{user_name}}",
		Body:       "See {{property_title}} at {{company_name}} {{unknown_key}}",
		ButtonText: "Open",
		ButtonURL:  "{{site_url}}/bookings",
	}
	b := settings.DefaultBranding()
	vars := BuildVariables(b, "https://site.example.com", map[string]string{"property_title": "Villa", "user_name": "Ana"})

	email, err := Render(def, vars, b)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if email.Subject != "Booked: Villa" {
		t.Errorf("unexpected subject %q", email.Subject)
	}
	if !strings.Contains(email.HTML, "See Villa at "+b.CompanyName+" {{unknown_key}}") {
		t.Error("expected interpolated body with unknown placeholder kept")
	}
	if !strings.Contains(email.HTML, `href="https://site.example.com/bookings"`) {
		t.Error("expected interpolated button url")
	}
}

func TestComposeFallback(t *testing.T) {
	b := settings.DefaultBranding()

	email := ComposeFallback("", "plain <text>", b)
	if email.Subject != catalog.DefaultSubject {
		t.Errorf("expected default subject, got %q", email.Subject)
	}
	if !strings.Contains(email.HTML, "plain &lt;text&gt;") {
		t.Error("expected escaped text")
	}
	if !strings.Contains(email.HTML, b.CopyrightText) {
		t.Error("expected copyright line")
	}
	if !strings.HasPrefix(email.Text, "plain <text>") {
		t.Errorf("unexpected text part %q", email.Text)
	}
}

func TestStripTags(t *testing.T) {
	got := StripTags("<p>One</p><p>Two &lt;3</p>\n\n\n\n<div>Three</div>")
	if got != "One\nTwo <3\n\nThree" {
		t.Errorf("unexpected %q", got)
	}
}
