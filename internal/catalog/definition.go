// Package catalog resolves the template definition used for a notification.
// Resolution walks persisted templates, then the built-in catalog, and ends
// in a synthesized ad-hoc definition, so it always yields exactly one result.
package catalog

// Definition describes one notification template. String fields may carry
// {{key}} placeholders.
type Definition struct {
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
	Active          bool   `json:"active"`
}

// Source names the tier that produced a Definition.
type Source string

const (
	SourcePersisted Source = "persisted"
	SourceBuiltin   Source = "builtin"
	SourceAdhoc     Source = "adhoc"
	// SourceFallback marks the minimal document sent when nothing drives
	// the content.
	SourceFallback Source = "fallback"
)

// DefaultSubject is used when neither the template nor the caller supplies one.
const DefaultSubject = "Notification"

// Lookup carries what the resolver needs from the request.
type Lookup struct {
	TemplateID string
	Subject    string
	Text       string
	Variables  map[string]string
}

func (l Lookup) message() string {
	return l.Variables["message"]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
