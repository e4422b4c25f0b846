package tracing

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Key fragments that mark an attribute as credential- or PII-bearing.
// Volunteer emails fall under PII and never belong on spans.
var redactedKeyFragments = [...]string{
	"authorization",
	"email",
	"password",
	"secret",
	"token",
}

// ScrubAttributes returns attrs with credential and PII keys removed.
func ScrubAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	kept := attrs[:0]
	for _, attr := range attrs {
		if redactedKey(string(attr.Key)) {
			continue
		}
		kept = append(kept, attr)
	}
	return kept
}

// ErrType reduces an error to its dynamic type so span events never carry
// values embedded in error strings.
func ErrType(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%T", err)
}

func redactedKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, fragment := range redactedKeyFragments {
		if strings.Contains(key, fragment) {
			return true
		}
	}
	return false
}
