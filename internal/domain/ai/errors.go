package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrEmptyResponse indicates the provider answered without any text.
var ErrEmptyResponse = errors.New("ai returned an empty response")

// ErrInvalidDataURI is returned when an image data URI cannot be decoded.
var ErrInvalidDataURI = errors.New("invalid image data uri")
