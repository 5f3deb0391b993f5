// Package settings resolves the outbound transport and branding profile from
// hard-coded defaults and the rows persisted in the site settings store.
package settings

import (
	"context"

	"github.com/sungwon/notify-mailer/internal/storage"
)

// Store keys. Every mailer setting lives under CategoryEmail.
const (
	CategoryEmail = "email"

	KeyTransport = "smtp_settings"
	KeyBranding  = "email_branding"
	KeyTemplates = "email_templates"
	KeyLegacy    = "email_config"
)

// DefaultSiteURL is used when no legacy row supplies a site URL.
const DefaultSiteURL = "https://homemarket.example.com"

// Store reads persisted settings rows. *storage.Queries satisfies it.
type Store interface {
	ListSettings(ctx context.Context, category, key string) ([]storage.Setting, error)
}

// Encryption selects how the SMTP session is secured.
type Encryption string

const (
	EncryptionNone Encryption = "none"
	EncryptionTLS  Encryption = "tls" // STARTTLS upgrade
	EncryptionSSL  Encryption = "ssl" // implicit TLS
)

// TransportConfig holds the SMTP relay settings used for one delivery.
type TransportConfig struct {
	Host       string     `json:"host"`
	Port       int        `json:"port"`
	Username   string     `json:"username"`
	Password   string     `json:"password"`
	Encryption Encryption `json:"encryption"`
	FromName   string     `json:"fromName"`
	FromEmail  string     `json:"fromEmail"`
	Enabled    bool       `json:"enabled"`
}

// Complete reports whether the relay can be contacted.
func (t TransportConfig) Complete() bool {
	return t.Host != "" && t.Username != "" && t.Password != ""
}

// BrandingProfile is the company identity rendered into every message.
type BrandingProfile struct {
	CompanyName    string `json:"companyName"`
	LogoURL        string `json:"logoUrl"`
	Website        string `json:"website"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	SupportEmail   string `json:"supportEmail"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	AccentColor    string `json:"accentColor"`
	FacebookURL    string `json:"facebookUrl"`
	TwitterURL     string `json:"twitterUrl"`
	InstagramURL   string `json:"instagramUrl"`
	LinkedInURL    string `json:"linkedinUrl"`
	FooterText     string `json:"footerText"`
	CopyrightText  string `json:"copyrightText"`
}

// Resolved is the materialized configuration for one request.
type Resolved struct {
	Transport TransportConfig
	Branding  BrandingProfile
	SiteURL   string
}

// DefaultTransport returns the built-in transport: disabled, STARTTLS on 587.
func DefaultTransport() TransportConfig {
	return TransportConfig{
		Port:       587,
		Encryption: EncryptionTLS,
		FromName:   "HomeMarket",
		FromEmail:  "noreply@homemarket.example.com",
		Enabled:    false,
	}
}

// DefaultBranding returns a branding profile with every field populated.
func DefaultBranding() BrandingProfile {
	return BrandingProfile{
		CompanyName:    "HomeMarket",
		LogoURL:        DefaultSiteURL + "/images/logo.png",
		Website:        DefaultSiteURL,
		Address:        "1 Harbour Street, Suite 400",
		Phone:          "(555) 010-0100",
		SupportEmail:   "support@homemarket.example.com",
		PrimaryColor:   "#1e3a5f",
		SecondaryColor: "#c9a227",
		AccentColor:    "#f4f1ea",
		FacebookURL:    "https://facebook.com/homemarket",
		TwitterURL:     "https://twitter.com/homemarket",
		InstagramURL:   "https://instagram.com/homemarket",
		LinkedInURL:    "https://linkedin.com/company/homemarket",
		FooterText:     "Find your next home with confidence.",
		CopyrightText:  "© HomeMarket. All rights reserved.",
	}
}
