package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrubHeaders(t *testing.T) {
	headers := map[string]string{
		"Authorization": "Bearer secret",
		"Cookie":        "session=abc",
		"x-api-key":     "key123",
		"Content-Type":  "application/json",
		"User-Agent":    "test-client/1.0",
	}

	scrubbed := ScrubHeaders(headers)

	assert.NotContains(t, scrubbed, "Authorization")
	assert.NotContains(t, scrubbed, "Cookie")
	assert.NotContains(t, scrubbed, "x-api-key")
	assert.Equal(t, "application/json", scrubbed["Content-Type"])
	assert.Equal(t, "test-client/1.0", scrubbed["User-Agent"])
}

func TestScrubHeaders_Nil(t *testing.T) {
	assert.Nil(t, ScrubHeaders(nil))
}
