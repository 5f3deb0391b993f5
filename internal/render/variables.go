// Package render turns a resolved template into the final email: it builds
// the variable map, substitutes {{key}} placeholders and composes the HTML
// document around the branding profile.
package render

import (
	"regexp"
	"strconv"
	"time"

	"github.com/sungwon/notify-mailer/internal/settings"
)

// Variables is the flat placeholder map for one message.
type Variables map[string]string

// BuildVariables layers branding values, the site URL, the current year and
// finally the caller's variables. Caller values win on collision.
func BuildVariables(b settings.BrandingProfile, siteURL string, caller map[string]string) Variables {
	vars := Variables{
		"company_name":    b.CompanyName,
		"logo_url":        b.LogoURL,
		"website":         b.Website,
		"address":         b.Address,
		"phone":           b.Phone,
		"support_email":   b.SupportEmail,
		"primary_color":   b.PrimaryColor,
		"secondary_color": b.SecondaryColor,
		"accent_color":    b.AccentColor,
		"facebook_url":    b.FacebookURL,
		"twitter_url":     b.TwitterURL,
		"instagram_url":   b.InstagramURL,
		"linkedin_url":    b.LinkedInURL,
		"footer_text":     b.FooterText,
		"copyright_text":  b.CopyrightText,
		"site_url":        siteURL,
		"year":            strconv.Itoa(time.Now().Year()),
	}
	for k, v := range caller {
		vars[k] = v
	}
	return vars
}

var placeholder = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Interpolate replaces {{key}} in each string with vars[key]. Placeholders
// whose key is not in vars are left as they are. Substituted values are not
// scanned again.
func Interpolate(vars Variables, strs ...string) []string {
	out := make([]string, len(strs))
	for i, s := range strs {
		out[i] = placeholder.ReplaceAllStringFunc(s, func(m string) string {
			key := m[2 : len(m)-2]
			if v, ok := vars[key]; ok {
				return v
			}
			return m
		})
	}
	return out
}
