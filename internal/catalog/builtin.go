package catalog

import (
	"fmt"

	"dario.cat/mergo"
)

// Well-known template ids.
const (
	BookingConfirmation      = "booking_confirmation"
	BookingCancelled         = "booking_cancelled"
	NewReview                = "new_review"
	VerificationApproved     = "verification_approved"
	VIPUpgrade               = "vip_upgrade"
	ForeignInvestmentInquiry = "foreign_investment_inquiry"
	AdminNewBooking          = "admin_new_booking"
	AdminNewUser             = "admin_new_user"
	GenericNotification      = "generic_notification"
)

// builtin is a partial definition. Empty strings and nil flags are filled
// from the generic skeleton.
type builtin struct {
	def             Definition
	showSocialLinks *bool
	showUnsubscribe *bool
}

func flag(b bool) *bool { return &b }

var builtins = map[string]builtin{
	BookingConfirmation: {def: Definition{
		Subject:    "Booking confirmed: {{property_title}}",
		Preheader:  "Your viewing on {{booking_date}} is confirmed.",
		HeaderText: "Your booking is confirmed",
		Body: "Hi {{user_name}},\n\n" +
			"Your booking for <strong>{{property_title}}</strong> on {{booking_date}} at {{booking_time}} has been confirmed.\n\n" +
			"The agent will meet you at {{property_address}}. If your plans change, you can manage the booking from your dashboard.",
		ButtonText: "View booking",
		ButtonURL:  "{{site_url}}/dashboard/bookings",
		Category:   "booking",
	}, showUnsubscribe: flag(true)},

	BookingCancelled: {def: Definition{
		Subject:    "Booking cancelled: {{property_title}}",
		Preheader:  "Your booking on {{booking_date}} was cancelled.",
		HeaderText: "Your booking was cancelled",
		Body: "Hi {{user_name}},\n\n" +
			"Your booking for <strong>{{property_title}}</strong> on {{booking_date}} has been cancelled.\n\n" +
			"{{cancellation_reason}}\n\n" +
			"You can browse similar listings and book another viewing at any time.",
		ButtonText: "Browse listings",
		ButtonURL:  "{{site_url}}/properties",
		Category:   "booking",
	}, showUnsubscribe: flag(true)},

	NewReview: {def: Definition{
		Subject:    "New review on {{property_title}}",
		Preheader:  "{{reviewer_name}} left a {{rating}}-star review.",
		HeaderText: "You received a new review",
		Body: "Hi {{user_name}},\n\n" +
			"{{reviewer_name}} rated <strong>{{property_title}}</strong> {{rating}} out of 5:\n\n" +
			"\"{{review_text}}\"",
		ButtonText: "Read review",
		ButtonURL:  "{{site_url}}/dashboard/reviews",
		Category:   "review",
	}, showUnsubscribe: flag(true)},

	VerificationApproved: {def: Definition{
		Subject:    "Your account is verified",
		Preheader:  "Your verification at {{company_name}} was approved.",
		HeaderText: "Verification approved",
		Body: "Hi {{user_name}},\n\n" +
			"Good news: your {{verification_type}} verification has been approved. " +
			"Verified listings get a badge and appear higher in search results.",
		ButtonText: "Go to dashboard",
		ButtonURL:  "{{site_url}}/dashboard",
		Category:   "account",
	}},

	VIPUpgrade: {def: Definition{
		Subject:    "Welcome to {{company_name}} VIP",
		Preheader:  "Your {{plan_name}} membership is active.",
		HeaderText: "You are now a VIP member",
		Body: "Hi {{user_name}},\n\n" +
			"Your <strong>{{plan_name}}</strong> membership is active until {{expires_at}}. " +
			"Enjoy featured listings, priority support and early access to new properties.",
		ButtonText: "Explore VIP benefits",
		ButtonURL:  "{{site_url}}/vip",
		Category:   "account",
	}},

	ForeignInvestmentInquiry: {def: Definition{
		Subject:    "Foreign investment inquiry from {{investor_name}}",
		Preheader:  "{{investor_name}} from {{investor_country}} sent an inquiry.",
		HeaderText: "New foreign investment inquiry",
		Body: "A new inquiry was submitted.\n\n" +
			"Name: {{investor_name}}\n" +
			"Email: {{investor_email}}\n" +
			"Country: {{investor_country}}\n" +
			"Budget: {{budget}}\n" +
			"Property: {{property_title}}\n\n" +
			"{{message}}",
		ButtonText: "Open inquiry",
		ButtonURL:  "{{site_url}}/admin/inquiries",
		Category:   "inquiry",
	}, showSocialLinks: flag(false)},

	AdminNewBooking: {def: Definition{
		Subject:    "[Admin] New booking for {{property_title}}",
		HeaderText: "New booking received",
		Body: "{{user_name}} ({{user_email}}) booked <strong>{{property_title}}</strong> " +
			"for {{booking_date}} at {{booking_time}}.",
		ButtonText: "Review booking",
		ButtonURL:  "{{site_url}}/admin/bookings",
		Category:   "admin",
	}, showSocialLinks: flag(false)},

	AdminNewUser: {def: Definition{
		Subject:    "[Admin] New user registered: {{user_name}}",
		HeaderText: "New user registered",
		Body:       "{{user_name}} ({{user_email}}) created an account on {{registered_at}}.",
		ButtonText: "View users",
		ButtonURL:  "{{site_url}}/admin/users",
		Category:   "admin",
	}, showSocialLinks: flag(false)},

	GenericNotification: {def: Definition{Category: "general"}},
}

// skeleton is the generic notification every built-in is layered onto.
func skeleton(l Lookup) Definition {
	return Definition{
		ID:              GenericNotification,
		Subject:         DefaultSubject,
		Body:            firstNonEmpty(l.Text, l.message()),
		ShowSocialLinks: true,
		ShowUnsubscribe: false,
		Category:        "general",
		Active:          true,
	}
}

// layer fills the empty fields of a built-in from the skeleton.
func (b builtin) layer(id string, l Lookup) (Definition, error) {
	def := skeleton(l)
	if err := mergo.Merge(&def, b.def, mergo.WithOverride); err != nil {
		return Definition{}, fmt.Errorf("layer built-in template %s: %w", id, err)
	}
	def.ID = id
	if b.showSocialLinks != nil {
		def.ShowSocialLinks = *b.showSocialLinks
	}
	if b.showUnsubscribe != nil {
		def.ShowUnsubscribe = *b.showUnsubscribe
	}
	def.Active = true
	return def, nil
}

// BuiltinIDs returns the ids of the built-in catalog.
func BuiltinIDs() []string {
	return []string{
		BookingConfirmation, BookingCancelled, NewReview, VerificationApproved, VIPUpgrade,
		ForeignInvestmentInquiry, AdminNewBooking, AdminNewUser, GenericNotification,
	}
}
