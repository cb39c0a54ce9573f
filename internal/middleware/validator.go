package middleware

import (
	"fmt"
	"mime"
	"strings"
)

// Input validation and sanitization utilities

// ValidateImageType checks that a declared content type is an image/* type and
// returns the bare media type without parameters.
func ValidateImageType(contentType string) (string, error) {
	if contentType == "" {
		return "", fmt.Errorf("content type cannot be empty")
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("invalid content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("invalid content type: %s (images only)", mediaType)
	}
	return mediaType, nil
}

// SanitizeString drops NUL bytes and leaves everything else as sent, so the
// document says exactly what the client displayed.
func SanitizeString(input string) string {
	return strings.ReplaceAll(input, "\x00", "")
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
