package mailer

import (
	"fmt"
	"net/mail"
	"strings"
)

// ParseAddress validates a recipient or sender and returns its bare
// addr-spec. Display names ("Ana <ana@x.com>") and angle brackets are
// accepted. The domain must contain a dot.
func ParseAddress(s string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", s, err)
	}
	if !IsValidDomain(Domain(addr.Address)) {
		return "", fmt.Errorf("invalid address %q: bad domain", s)
	}
	return addr.Address, nil
}

// Domain extracts the domain part from an email address.
// Returns an empty string if the address does not contain an @ symbol.
func Domain(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	return domain
}

// IsValidDomain performs basic domain format validation. It checks that the
// domain is non-empty, does not start or end with a dot, and contains at
// least one dot separator.
func IsValidDomain(domain string) bool {
	if domain == "" {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return strings.Contains(domain, ".")
}
