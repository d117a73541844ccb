// Package validator checks recipient addresses before they reach the SMTP
// transport. The email check is a conservative syntactic one, not RFC 5322:
// false negatives on exotic-but-legal addresses are an accepted trade-off
// for predictable behavior on campaign data.
package validator

import (
	"regexp"
	"strings"
)

// emailRegex requires non-whitespace local and domain parts around a single
// "@" and at least one dot in the domain.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether addr looks like an email address after
// trimming surrounding whitespace.
func IsValidEmail(addr string) bool {
	return emailRegex.MatchString(strings.TrimSpace(addr))
}

// FilterAddressList splits a comma-separated address list, trims each entry
// and keeps only the ones passing IsValidEmail. Invalid entries are dropped
// silently; callers that must reject instead of drop (the "to" field)
// validate the single address themselves.
func FilterAddressList(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}

	var valid []string
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if IsValidEmail(entry) {
			valid = append(valid, entry)
		}
	}
	return valid
}
