package models

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates a new entity identifier.
func NewID() string {
	return uuid.NewString()
}

// IsValidID reports whether s is a well-formed entity identifier.
// Malformed identifiers are rejected before they reach the store so the
// caller can answer BadRequest instead of a not-found miss.
func IsValidID(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
