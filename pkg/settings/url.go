package settings

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when a pack URL is not an absolute http or https URL.
var ErrInvalidURL = errors.New("invalid resource pack URL")

// ParseURL parses s as a resource pack download URL.
// Only absolute URLs with a host and the http or https scheme are accepted.
func ParseURL(s string) (*url.URL, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: input URL is empty", ErrInvalidURL)
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	case "":
		return nil, fmt.Errorf("%w: missing scheme in %q", ErrInvalidURL, s)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, s)
	}
	return parsed, nil
}

// ValidURL reports whether s is a usable resource pack URL.
func ValidURL(s string) bool {
	_, err := ParseURL(s)
	return err == nil
}
