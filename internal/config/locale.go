package config

import (
	"fmt"
	"strings"
)

const (
	LocaleAmerican = "en-us"
	LocaleBritish  = "en-gb"
)

// NormalizeLocale canonicalizes a user-supplied locale string. Empty input
// means American English.
func NormalizeLocale(raw string) (string, error) {
	locale := strings.ToLower(strings.TrimSpace(raw))
	if locale == "" {
		locale = LocaleAmerican
	}
	switch locale {
	case LocaleAmerican, LocaleBritish:
		return locale, nil
	case "us", "en", "american":
		return LocaleAmerican, nil
	case "gb", "uk", "british":
		return LocaleBritish, nil
	default:
		return "", fmt.Errorf(
			"invalid locale %q (expected %s|%s|us|gb)",
			raw,
			LocaleAmerican,
			LocaleBritish,
		)
	}
}
