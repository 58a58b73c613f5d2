package patient

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

// normalizePhone returns the E.164 form of raw when it is a valid number for
// the patient's country. Numbers the library cannot place in a region are
// kept as entered; text that is not a phone number at all is rejected.
func normalizePhone(raw, country string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	num, err := phonenumbers.Parse(raw, phoneRegion(country))
	if err != nil {
		if errors.Is(err, phonenumbers.ErrInvalidCountryCode) {
			return raw, nil
		}
		return "", apperr.Invalid("phone", "is not a phone number")
	}
	if !phonenumbers.IsValidNumber(num) {
		return raw, nil
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func phoneRegion(country string) string {
	c := strings.ToUpper(strings.TrimSpace(country))
	switch c {
	case "USA", "UNITED STATES", "UNITED STATES OF AMERICA":
		return "US"
	case "UK", "UNITED KINGDOM":
		return "GB"
	}
	if len(c) == 2 {
		return c
	}
	return ""
}
