package verification

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rentora/contact-verify/pkg/challenge"
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// NormalizeIdentifier canonicalizes a contact identifier for its channel so
// that the same contact always maps to the same challenge key: lowercased and
// trimmed for email, digits-only with a leading country code for messaging.
func NormalizeIdentifier(identifier string, channel challenge.Channel) (string, error) {
	switch channel {
	case challenge.ChannelEmail:
		return normalizeEmail(identifier)
	case challenge.ChannelMessaging:
		return normalizePhone(identifier)
	default:
		return "", fmt.Errorf("%w: unsupported channel %q", ErrMalformedIdentifier, channel)
	}
}

func normalizeEmail(identifier string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(identifier))

	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return "", fmt.Errorf("%w: %q is not an email address", ErrMalformedIdentifier, identifier)
	}
	if strings.ContainsAny(email, " \t") {
		return "", fmt.Errorf("%w: %q is not an email address", ErrMalformedIdentifier, identifier)
	}
	return email, nil
}

func normalizePhone(identifier string) (string, error) {
	var digits strings.Builder
	for _, r := range identifier {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')':
			// formatting characters are dropped
		default:
			return "", fmt.Errorf("%w: %q is not a phone number", ErrMalformedIdentifier, identifier)
		}
	}

	phone := digits.String()
	if len(phone) < minPhoneDigits || len(phone) > maxPhoneDigits {
		return "", fmt.Errorf("%w: phone number must have %d-%d digits including the country code",
			ErrMalformedIdentifier, minPhoneDigits, maxPhoneDigits)
	}
	if phone[0] == '0' {
		return "", fmt.Errorf("%w: phone number must start with a country code", ErrMalformedIdentifier)
	}
	return phone, nil
}
