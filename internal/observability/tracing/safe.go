package tracing

import (
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

var sensitiveKeys = []string{"password", "secret", "token", "authorization", "access_key"}

// SafeAttributes drops attributes whose key looks like it carries credentials.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		key := strings.ToLower(string(attr.Key))
		if isSensitive(key) {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// SafeError returns an error suitable for span recording, or nil.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	if isSensitive(lower) {
		return errors.New("redacted error")
	}
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return errors.New(msg)
}

func isSensitive(s string) bool {
	for _, k := range sensitiveKeys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
