// Package auth decides who may send which notification: bearer token
// verification, the recipient authorization rule and per-caller rate limits.
package auth

import "strings"

// Roles that may send to any recipient.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Denial reasons.
const (
	ReasonAuthenticationRequired = "authentication required"
	ReasonRecipientMismatch      = "recipients must match caller"
)

// Identity is a verified caller.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin reports whether the identity carries an admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && IsAdminRole(i.Role)
}

// IsAdminRole reports whether role grants unrestricted sending.
func IsAdminRole(role string) bool {
	switch strings.ToLower(role) {
	case RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Request is the part of a send request the gate looks at.
type Request struct {
	Recipients        []string
	SkipAuthorization bool
}

// Decision is the gate's answer. Reason is set when Allowed is false.
type Decision struct {
	Allowed bool
	Reason  string
}

// Authorize applies the recipient rule. System sends skip the check; admins
// may send anywhere; everyone else may only send to their own address.
func Authorize(req Request, caller *Identity, isAdmin bool) Decision {
	if req.SkipAuthorization {
		return Decision{Allowed: true}
	}
	if caller == nil {
		return Decision{Reason: ReasonAuthenticationRequired}
	}
	if isAdmin {
		return Decision{Allowed: true}
	}
	for _, r := range req.Recipients {
		if !strings.EqualFold(strings.TrimSpace(r), strings.TrimSpace(caller.Email)) {
			return Decision{Reason: ReasonRecipientMismatch}
		}
	}
	return Decision{Allowed: true}
}
