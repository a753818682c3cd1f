package utils

import (
	"regexp"
	"tenanthub/src/config"
	"tenanthub/src/types"
	"time"
)

// payerNumberPattern matches the mobile-wallet carrier number format: 11
// digits starting with 013-019.
var payerNumberPattern = regexp.MustCompile(`^01[3-9][0-9]{8}$`)

func ValidPayerNumber(number string) bool {
	return payerNumberPattern.MatchString(number)
}

// ParseDate parses a calendar date from a request body, normalized to
// midnight UTC.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(config.DATE_PARSE_FORMAT, value)
	if err != nil {
		return time.Time{}, types.NewValidationError(field, "expected format "+config.DATE_PARSE_FORMAT)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// AmountToCents converts a 2dp money amount to gateway minor units.
func AmountToCents(amount float64) int64 {
	return int64(amount*100 + 0.5)
}
