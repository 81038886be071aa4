package reporting

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbdna/pbdna_backend/middleware"
)

type captureTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *captureTransport) Configure(options sentry.ClientOptions) {}

func (t *captureTransport) SendEvent(event *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *captureTransport) Flush(timeout time.Duration) bool { return true }

func (t *captureTransport) FlushWithContext(ctx context.Context) bool { return true }

func (t *captureTransport) Close() {}

func (t *captureTransport) Events() []*sentry.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*sentry.Event, len(t.events))
	copy(out, t.events)
	return out
}

func newTestApp(t *testing.T) (*echo.Echo, *captureTransport) {
	t.Helper()

	transport := &captureTransport{}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:       "https://key@example.ingest.sentry.io/1",
		Transport: transport,
	})
	require.NoError(t, err)

	e := echo.New()
	e.Use(Middleware())
	e.HTTPErrorHandler = ErrorHandler(e)
	return e, transport
}

func TestErrorHandler_CapturesServerErrors(t *testing.T) {
	e, transport := newTestApp(t)
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("connection pool exhausted")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Len(t, transport.Events(), 1)
}

func TestErrorHandler_SkipsClientErrors(t *testing.T) {
	e, transport := newTestApp(t)
	e.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, transport.Events())
}

func TestErrorHandler_AttachesAuthenticatedUser(t *testing.T) {
	e, transport := newTestApp(t)
	e.GET("/boom", func(c echo.Context) error {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, &middleware.JwtCustomClaims{
			UserID:           "42",
			Email:            "pat@example.com",
			SubscriptionTier: "professional",
		})
		c.Set("user", token)
		return errors.New("connection pool exhausted")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	events := transport.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "42", events[0].User.ID)
	assert.Equal(t, "pat@example.com", events[0].User.Email)
	assert.Equal(t, "professional", events[0].Tags["subscription_tier"])
}
