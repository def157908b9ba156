package validation

import "regexp"

// emailPattern is a minimal syntactic check: local@domain.tld with no
// whitespace and no extra '@'. It does not attempt RFC 5322 compliance.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether candidate looks like an email address
func IsValidEmail(candidate string) bool {
	return emailPattern.MatchString(candidate)
}
