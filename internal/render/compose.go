package render

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/sungwon/notify-mailer/internal/catalog"
	"github.com/sungwon/notify-mailer/internal/settings"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	layoutTmpl   = template.Must(template.ParseFS(templateFS, "templates/layout.html"))
	fallbackTmpl = template.Must(template.ParseFS(templateFS, "templates/fallback.html"))
)

// Email is a finished message ready for delivery.
type Email struct {
	Subject string
	HTML    string
	Text    string
}

// Content holds the interpolated strings of a template.
type Content struct {
	Subject    string
	Preheader  string
	HeaderText string
	Body       string
	ButtonText string
	ButtonURL  string
}

type socialLink struct {
	Label string
	URL   string
}

type layoutData struct {
	Subject         string
	Preheader       string
	HeaderText      string
	Body            template.HTML
	ButtonText      string
	ButtonURL       string
	LogoURL         string
	CompanyName     string
	WordmarkFirst   string
	WordmarkRest    string
	Primary         template.CSS
	Secondary       template.CSS
	Accent          template.CSS
	SocialLinks     []socialLink
	ShowUnsubscribe bool
	PreferencesURL  string
	FooterText      string
	Address         string
	Phone           string
	SupportEmail    string
	CopyrightText   string
}

// Render interpolates every string field of def and composes the document.
func Render(def catalog.Definition, vars Variables, branding settings.BrandingProfile) (Email, error) {
	s := Interpolate(vars, def.Subject, def.Preheader, def.HeaderText, def.Body, def.ButtonText, def.ButtonURL)
	return Compose(def, Content{
		Subject:    s[0],
		Preheader:  s[1],
		HeaderText: s[2],
		Body:       s[3],
		ButtonText: s[4],
		ButtonURL:  s[5],
	}, branding)
}

// Compose assembles the HTML document. The body is inserted verbatim; the
// template's flags decide the social and unsubscribe blocks.
func Compose(def catalog.Definition, c Content, b settings.BrandingProfile) (Email, error) {
	first, rest := wordmark(b.CompanyName)
	data := layoutData{
		Subject:         c.Subject,
		Preheader:       c.Preheader,
		HeaderText:      c.HeaderText,
		Body:            template.HTML(c.Body),
		LogoURL:         b.LogoURL,
		CompanyName:     b.CompanyName,
		WordmarkFirst:   first,
		WordmarkRest:    rest,
		Primary:         color(b.PrimaryColor, settings.DefaultBranding().PrimaryColor),
		Secondary:       color(b.SecondaryColor, settings.DefaultBranding().SecondaryColor),
		Accent:          color(b.AccentColor, settings.DefaultBranding().AccentColor),
		ShowUnsubscribe: def.ShowUnsubscribe,
		PreferencesURL:  strings.TrimRight(b.Website, "/") + "/settings/notifications",
		FooterText:      b.FooterText,
		Address:         b.Address,
		Phone:           b.Phone,
		SupportEmail:    b.SupportEmail,
		CopyrightText:   b.CopyrightText,
	}
	if c.ButtonText != "" && c.ButtonURL != "" {
		data.ButtonText = c.ButtonText
		data.ButtonURL = c.ButtonURL
	}
	if def.ShowSocialLinks {
		data.SocialLinks = socialLinks(b)
	}

	var buf bytes.Buffer
	if err := layoutTmpl.Execute(&buf, data); err != nil {
		return Email{}, fmt.Errorf("compose %s: %w", def.ID, err)
	}

	return Email{
		Subject: c.Subject,
		HTML:    buf.String(),
		Text:    plainText(c, b),
	}, nil
}

// ComposeFallback builds a minimal document from the subject and plain text.
// It does not fail.
func ComposeFallback(subject, text string, b settings.BrandingProfile) Email {
	if subject == "" {
		subject = catalog.DefaultSubject
	}
	data := struct {
		Subject       string
		Text          string
		CopyrightText string
	}{subject, text, b.CopyrightText}

	var buf bytes.Buffer
	if err := fallbackTmpl.Execute(&buf, data); err != nil {
		buf.Reset()
		buf.WriteString("<html><body><h2>" + html.EscapeString(subject) + "</h2><p>" +
			html.EscapeString(text) + "</p><p>" + html.EscapeString(b.CopyrightText) + "</p></body></html>")
	}

	plain := text
	if b.CopyrightText != "" {
		plain += "\n\n--\n" + b.CopyrightText
	}
	return Email{Subject: subject, HTML: buf.String(), Text: plain}
}

func wordmark(name string) (string, string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

var cssColor = regexp.MustCompile(`^(#[0-9A-Fa-f]{3,8}|[A-Za-z]{3,20}|rgba?\([0-9.,\s%]+\))$`)

// color passes a branding color into a style attribute, falling back when the
// stored value is not a plain CSS color.
func color(v, fallback string) template.CSS {
	v = strings.TrimSpace(v)
	if !cssColor.MatchString(v) {
		v = fallback
	}
	return template.CSS(v)
}

func socialLinks(b settings.BrandingProfile) []socialLink {
	var links []socialLink
	for _, l := range []socialLink{
		{"Facebook", b.FacebookURL},
		{"Twitter", b.TwitterURL},
		{"Instagram", b.InstagramURL},
		{"LinkedIn", b.LinkedInURL},
	} {
		if l.URL != "" {
			links = append(links, l)
		}
	}
	return links
}

var (
	breakTag  = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</h[1-6]>|</li>`)
	anyTag    = regexp.MustCompile(`<[^>]*>`)
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// StripTags reduces an HTML fragment to readable plain text.
func StripTags(s string) string {
	s = breakTag.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func plainText(c Content, b settings.BrandingProfile) string {
	var sb strings.Builder
	if c.HeaderText != "" {
		sb.WriteString(StripTags(c.HeaderText))
		sb.WriteString("\n\n")
	}
	sb.WriteString(StripTags(c.Body))
	if c.ButtonText != "" && c.ButtonURL != "" {
		fmt.Fprintf(&sb, "\n\n%s: %s", c.ButtonText, c.ButtonURL)
	}
	sb.WriteString("\n\n--\n")
	sb.WriteString(b.CompanyName)
	if b.Address != "" {
		sb.WriteString("\n" + b.Address)
	}
	if b.CopyrightText != "" {
		sb.WriteString("\n" + b.CopyrightText)
	}
	return sb.String()
}
