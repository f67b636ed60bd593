// Package util provides utility functions for the product catalog.
package util

import (
	"strings"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id between client and server.
const RequestIDHeader = "X-Request-ID"

// NewRequestID returns a random RFC 4122 v4 UUID string.
func NewRequestID() string {
	return uuid.NewString()
}

// RequestIDOrNew keeps a caller-supplied id when it is a valid UUID and
// generates a fresh one otherwise.
func RequestIDOrNew(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate != "" {
		if _, err := uuid.Parse(candidate); err == nil {
			return candidate
		}
	}
	return NewRequestID()
}
