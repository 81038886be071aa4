package security

import (
	"strings"
)

// sensitiveHeaders are credential-bearing headers that must never leave the
// process in a captured request.
var sensitiveHeaders = []string{
	"Authorization",
	"Cookie",
	"Set-Cookie",
	"X-Csrf-Token",
	"X-Api-Key",
}

// ScrubHeaders removes sensitive headers from a captured request before it
// is attached to an outgoing error event.
func ScrubHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	scrubbed := make(map[string]string, len(headers))
	for name, value := range headers {
		if isSensitiveHeader(name) {
			continue
		}
		scrubbed[name] = value
	}
	return scrubbed
}

func isSensitiveHeader(name string) bool {
	for _, h := range sensitiveHeaders {
		if strings.EqualFold(name, h) {
			return true
		}
	}
	return false
}
