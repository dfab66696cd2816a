// Package authutil holds the credential helpers used when provisioning
// phone-based users: password rules and hashing, the synthetic sign-in
// email derived from a phone number, and the admin allowlist.
package authutil

import (
	"strings"

	"github.com/dalemusser/stratacontent/internal/app/system/normalize"
)

// DefaultPhoneUserDomain is the mail domain used for phone sign-ins when
// none is configured.
const DefaultPhoneUserDomain = "phoneuser.nursinglecture.com"

// PhoneEmail returns the sign-in email for a phone number, e.g.
// "5550101234@phoneuser.nursinglecture.com". phone must already be digits.
func PhoneEmail(phone, domain string) string {
	domain = strings.TrimPrefix(normalize.Email(domain), "@")
	if domain == "" {
		domain = DefaultPhoneUserDomain
	}
	return phone + "@" + domain
}

// Allowlist is a set of normalized email addresses.
type Allowlist map[string]struct{}

// NewAllowlist builds an Allowlist. Entries may themselves be comma
// separated lists, so both config slices and raw env strings work.
func NewAllowlist(entries ...string) Allowlist {
	a := Allowlist{}
	for _, entry := range entries {
		for _, e := range strings.Split(entry, ",") {
			if e = normalize.Email(e); e != "" {
				a[e] = struct{}{}
			}
		}
	}
	return a
}

// Contains reports whether email is on the list, ignoring case.
func (a Allowlist) Contains(email string) bool {
	email = normalize.Email(email)
	if email == "" {
		return false
	}
	_, ok := a[email]
	return ok
}
