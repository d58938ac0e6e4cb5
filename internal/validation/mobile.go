// Package validation holds input validation helpers shared across services.
package validation

import (
	"errors"
	"strings"
)

// NormalizeMobile validates an Indian mobile number and returns it in
// +91XXXXXXXXXX form. An empty input is allowed and returns "".
//
// Accepted inputs: 9876543210, +919876543210, 91 9876543210, 91-9876-543-210.
func NormalizeMobile(mobile string) (string, error) {
	if strings.TrimSpace(mobile) == "" {
		return "", nil
	}

	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "+", "").Replace(strings.TrimSpace(mobile))

	var number string
	switch {
	case strings.HasPrefix(cleaned, "91") && len(cleaned) == 12:
		number = cleaned[2:]
	case len(cleaned) == 10:
		number = cleaned
	default:
		return "", errors.New("mobile number must be 10 digits (with or without +91 country code)")
	}

	if number[0] < '6' || number[0] > '9' {
		return "", errors.New("indian mobile number must start with 6, 7, 8, or 9")
	}
	for _, c := range number {
		if c < '0' || c > '9' {
			return "", errors.New("mobile number must contain only digits")
		}
	}

	return "+91" + number, nil
}
