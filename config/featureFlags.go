package config

import (
	"os"
	"strings"
)

// SequenceLockEnabled serializes document number allocation (COT-/PED- codes) through a
// redis lock. Off by default: allocation is count-then-insert and concurrent creations on the
// same day may receive the same code.
//
// Set via env:
// - SEQUENCE_LOCK_ENABLED=true
func SequenceLockEnabled() bool {
	return envBool("SEQUENCE_LOCK_ENABLED", false)
}

// PhoneValidationEnabled checks party phone numbers with libphonenumber at the request boundary.
//
// Set via env:
// - PHONE_VALIDATION=false to accept any phone text
func PhoneValidationEnabled() bool {
	return envBool("PHONE_VALIDATION", true)
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	default:
		return def
	}
}
