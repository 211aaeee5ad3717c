package entity

import (
	"fmt"
	"net/url"
	"strings"
)

// maxURLLength defines the maximum allowed length for URLs.
const maxURLLength = 2048

// HasRequiredFields reports whether a raw article carries the minimum fields
// needed for the pipeline: a non-empty title and a non-empty link. Articles
// failing this check are silently filtered, not reported as errors.
func (a RawArticle) HasRequiredFields() bool {
	return strings.TrimSpace(a.Title) != "" && strings.TrimSpace(a.Link) != ""
}

// NormalizeKey lower-cases and trims a title or URL so that duplicate
// detection is insensitive to case and surrounding whitespace.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeCategory lower-cases a category name. Categories are matched
// case-insensitively everywhere: subscription lookups, the notification
// idempotency cache, and stored article topics.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// ValidateURL validates the format of an article URL.
// It checks that the URL is well-formed, uses an HTTP or HTTPS scheme, and
// has a host. Returns a ValidationError if the URL is invalid or empty.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	return nil
}
