package reporting

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldDropEvent(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{
			name:    "network failure dropped",
			message: "TypeError: Network request failed",
			want:    true,
		},
		{
			name:    "unauthorized dropped",
			message: "Request failed with status code 401",
			want:    true,
		},
		{
			name:    "forbidden dropped",
			message: "Request failed with status code 403",
			want:    true,
		},
		{
			name:    "server error passes",
			message: "Request failed with status code 500",
			want:    false,
		},
		{
			name:    "plain error passes",
			message: "cannot read property of undefined",
			want:    false,
		},
		{
			name:    "empty message passes",
			message: "",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldDropEvent(tt.message))
		})
	}
}

func TestBeforeSend_DropsExpectedFailures(t *testing.T) {
	dropped := BeforeSend(&sentry.Event{Message: "Network request failed"}, nil)
	assert.Nil(t, dropped)

	dropped = BeforeSend(&sentry.Event{
		Exception: []sentry.Exception{{Type: "HTTPError", Value: "status 403"}},
	}, nil)
	assert.Nil(t, dropped)
}

func TestBeforeSend_PassesThroughUnmodified(t *testing.T) {
	got := BeforeSend(&sentry.Event{Message: "database timeout"}, nil)
	require.NotNil(t, got)
	assert.Equal(t, "database timeout", got.Message)
}

func TestBeforeSend_ScrubsRequestCredentials(t *testing.T) {
	got := BeforeSend(&sentry.Event{
		Message: "database timeout",
		Request: &sentry.Request{
			Headers: map[string]string{
				"Authorization": "Bearer secret",
				"Content-Type":  "application/json",
			},
			Cookies: "session=abc",
		},
	}, nil)
	require.NotNil(t, got)
	assert.NotContains(t, got.Request.Headers, "Authorization")
	assert.Equal(t, "application/json", got.Request.Headers["Content-Type"])
	assert.Empty(t, got.Request.Cookies)
}

func TestBeforeBreadcrumb(t *testing.T) {
	debugConsole := &sentry.Breadcrumb{Category: "console", Level: sentry.LevelDebug}
	assert.Nil(t, BeforeBreadcrumb(debugConsole, nil))

	infoConsole := &sentry.Breadcrumb{Category: "console", Level: sentry.LevelInfo}
	assert.NotNil(t, BeforeBreadcrumb(infoConsole, nil))

	nav := &sentry.Breadcrumb{Category: "navigation"}
	got := BeforeBreadcrumb(nav, nil)
	require.NotNil(t, got)
	assert.Contains(t, got.Data, "timestamp")
}

func TestSampleRates(t *testing.T) {
	traces, profiles := SampleRates("production")
	assert.Equal(t, 0.1, traces)
	assert.Equal(t, 0.1, profiles)

	traces, profiles = SampleRates("development")
	assert.Equal(t, 1.0, traces)
	assert.Equal(t, 1.0, profiles)
}
