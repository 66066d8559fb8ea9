package envutil

import (
	"os"
	"strings"
)

// Bool reads an environment variable as a flag. Unset and unrecognized
// values are false.
func Bool(key string) bool {
	return ParseBool(os.Getenv(key))
}

func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// String reads an environment variable, falling back when it is unset or
// blank.
func String(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
