package validation

import (
	"net/url"
	"strings"
)

const minHostLength = 4

// Normalize trims the raw input and prepends https:// when it carries no
// http or https scheme.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}
	return s
}

// IsValidURL reports whether raw, once normalized, is an absolute http or
// https URL whose host has at least 4 characters and contains a dot. The
// check is purely syntactic.
func IsValidURL(raw string) bool {
	s := Normalize(raw)
	if s == "" {
		return false
	}

	parsed, err := url.Parse(s)
	if err != nil || !parsed.IsAbs() {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	host := parsed.Hostname()
	if len(host) < minHostLength {
		return false
	}

	return strings.Contains(host, ".")
}
