package phone

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidFormat is returned by NormalizeStrict for numbers that are not
// valid Ethiopian mobile numbers.
var ErrInvalidFormat = errors.New("phone must be 9 or 10 digits starting with 9 or 7, optionally prefixed with 251")

var (
	nonDigit     = regexp.MustCompile(`\D`)
	localForm    = regexp.MustCompile(`^(09|07)\d{7,8}$`)
	e164Form     = regexp.MustCompile(`^251[79]\d{7,8}$`)
	digitsOnlyRe = regexp.MustCompile(`^\d+$`)
)

// Normalize maps common Ethiopian phone formats to the canonical
// "+251XXXXXXXXX" form. It is best-effort: unrecognized input is returned
// unchanged and the caller decides whether that is an error. Auth and admin
// flows use this; OTP issuance uses NormalizeStrict.
func Normalize(raw string) string {
	if strings.HasPrefix(raw, "+251") {
		return raw
	}
	cleaned := nonDigit.ReplaceAllString(raw, "")
	if strings.HasPrefix(cleaned, "09") || strings.HasPrefix(cleaned, "07") {
		return "+251" + cleaned[1:]
	}
	if strings.HasPrefix(cleaned, "251") {
		return "+" + cleaned
	}
	return raw
}

// NormalizeStrict validates and normalizes a phone number for OTP issuance.
// Accepts local 09/07 forms and 251-prefixed forms only.
func NormalizeStrict(raw string) (string, error) {
	if raw == "" {
		return "", ErrInvalidFormat
	}
	cleaned := nonDigit.ReplaceAllString(raw, "")
	switch {
	case localForm.MatchString(cleaned):
		return "+251" + cleaned[1:], nil
	case e164Form.MatchString(cleaned):
		return "+" + cleaned, nil
	default:
		return "", ErrInvalidFormat
	}
}

// IsValid reports whether the number would pass strict normalization.
func IsValid(raw string) bool {
	_, err := NormalizeStrict(raw)
	return err == nil
}

// Digits returns the canonical number without the leading "+". Useful as a
// storage key where the sign character is unwanted.
func Digits(canonical string) string {
	if digitsOnlyRe.MatchString(canonical) {
		return canonical
	}
	return nonDigit.ReplaceAllString(canonical, "")
}
