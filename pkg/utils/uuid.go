package utils

import (
	"strings"

	"github.com/google/uuid"
)

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// GenerateOrderNo generates a human-readable order number such as ORD-1A2B3C4D
func GenerateOrderNo(prefix string) string {
	if prefix == "" {
		prefix = "ORD-"
	}
	return prefix + strings.ToUpper(uuid.New().String()[:8])
}
