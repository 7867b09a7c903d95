package shiprocket

import (
	"fmt"
	"sort"
	"strings"

	"github.com/parceldesk/shipbridge/pkg/carrier"
)

// SanitizeDigits strips every non-digit rune, including a leading country
// prefix separator, so "+91 98765-43210" becomes "919876543210".
func SanitizeDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone sanitizes a phone number to digits and enforces the
// carrier's 10-digit requirement. A 12-digit number with the "91" country
// prefix is accepted and trimmed.
func NormalizePhone(field, raw string) (string, error) {
	digits := SanitizeDigits(raw)
	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	}
	if len(digits) != 10 {
		return "", carrier.NewError(carrier.KindInvalidData, "validate",
			fmt.Sprintf("%s must be a 10-digit phone number, got %q", field, raw))
	}
	return digits, nil
}

// NormalizePostcode sanitizes a postal code to digits and enforces the
// carrier's 6-digit requirement.
func NormalizePostcode(field, raw string) (string, error) {
	digits := SanitizeDigits(raw)
	if len(digits) != 6 {
		return "", carrier.NewError(carrier.KindInvalidData, "validate",
			fmt.Sprintf("%s must be a 6-digit postal code, got %q", field, raw))
	}
	return digits, nil
}

// RequireFields checks that every named field is non-blank. The error names
// all missing fields at once so a caller fixes them in one pass.
func RequireFields(context string, fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return carrier.NewError(carrier.KindInvalidData, "validate",
		fmt.Sprintf("%s is missing required fields: %s", context, strings.Join(missing, ", ")))
}
