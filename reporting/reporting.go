// reporting/reporting.go
package reporting

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/pbdna/pbdna_backend/security"
)

// droppedFragments are message substrings that mark an event as an expected
// failure not worth reporting: transient network errors and auth rejections.
var droppedFragments = []string{
	"Network request failed",
	"401",
	"403",
}

// ShouldDropEvent reports whether an error message represents an expected
// network or authentication failure that must not reach the reporting service.
func ShouldDropEvent(message string) bool {
	for _, fragment := range droppedFragments {
		if strings.Contains(message, fragment) {
			return true
		}
	}
	return false
}

// BeforeSend filters events before transmission: expected failures are
// dropped, everything else passes through with captured request credentials
// scrubbed. User identity is attached per request by the hub scope (see
// ErrorHandler).
func BeforeSend(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if event.Message != "" && ShouldDropEvent(event.Message) {
		return nil
	}
	for _, exc := range event.Exception {
		if ShouldDropEvent(exc.Value) {
			return nil
		}
	}

	if event.Request != nil {
		event.Request.Headers = security.ScrubHeaders(event.Request.Headers)
		event.Request.Cookies = ""
	}

	return event
}

// BeforeBreadcrumb suppresses debug-level console breadcrumbs and stamps
// navigation breadcrumbs with the time they were recorded.
func BeforeBreadcrumb(breadcrumb *sentry.Breadcrumb, hint *sentry.BreadcrumbHint) *sentry.Breadcrumb {
	if breadcrumb == nil {
		return nil
	}
	if breadcrumb.Category == "console" && breadcrumb.Level == sentry.LevelDebug {
		return nil
	}
	if breadcrumb.Category == "navigation" {
		if breadcrumb.Data == nil {
			breadcrumb.Data = map[string]interface{}{}
		}
		breadcrumb.Data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}
	return breadcrumb
}

// SampleRates returns the traces and profiles sampling rates for an
// environment. Production keeps a low sample to bound volume; everything
// else reports in full.
func SampleRates(environment string) (traces, profiles float64) {
	if environment == "production" || environment == "prod" {
		return 0.1, 0.1
	}
	return 1.0, 1.0
}

// Init bootstraps the error-reporting client. A missing DSN disables
// reporting rather than failing startup.
func Init(environment string) {
	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		log.Println("SENTRY_DSN not set, error reporting disabled")
		return
	}

	traces, profiles := SampleRates(environment)

	err := sentry.Init(sentry.ClientOptions{
		Dsn:                dsn,
		Environment:        environment,
		EnableTracing:      true,
		TracesSampleRate:   traces,
		ProfilesSampleRate: profiles,
		BeforeSend:         BeforeSend,
		BeforeBreadcrumb:   BeforeBreadcrumb,
	})
	if err != nil {
		log.Printf("Sentry initialization failed: %v", err)
		return
	}

	log.Println("Error reporting initialized")
}

// CaptureError reports an error raised outside a request, e.g. from the
// agent workers.
func CaptureError(err error) {
	sentry.CaptureException(err)
}

// Flush drains buffered events before shutdown.
func Flush() {
	sentry.Flush(2 * time.Second)
}
