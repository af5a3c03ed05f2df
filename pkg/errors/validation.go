package errors

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ValidateURL validates a base URL for a remote service.
// It must be absolute, use http or https, and name a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	for _, r := range rawURL {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "URL contains invalid control characters")
		}
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL %q has no host", rawURL)
	}
	return nil
}

// ValidateTrust checks that an origin trust value lies in [0, 1].
func ValidateTrust(trust float64) error {
	if math.IsNaN(trust) || trust < 0 || trust > 1 {
		return New(ErrCodeInvalidInput, "trust must be between 0.0 and 1.0, got %v", trust)
	}
	return nil
}

// ParseTrust converts a textual trust value (as found in flags and config
// files) to a float and validates its range.
func ParseTrust(s string) (float64, error) {
	trust, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, Wrap(ErrCodeInvalidInput, err, "unable to convert %q to float", s)
	}
	return trust, ValidateTrust(trust)
}

// ValidateUUID checks that s is a canonical UUID.
func ValidateUUID(s string) error {
	if s == "" {
		return New(ErrCodeInvalidInput, "UUID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return Wrap(ErrCodeInvalidInput, err, "%q is not a valid UUID", s)
	}
	return nil
}

// ValidatePageID checks that a wiki page id is a positive integer.
func ValidatePageID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "page id cannot be empty")
	}
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return New(ErrCodeInvalidInput, "page id must be a positive integer, got %q", id)
	}
	return nil
}
